package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/school-quiz-api/internal/websocket"
)

// TicketValidator проверяет тикет подключения и возвращает ID пользователя
type TicketValidator interface {
	ValidateWsTicket(ticket string) (uint, error)
}

// RoomWatchAuthorizer проверяет право пользователя наблюдать за прогрессом комнаты
type RoomWatchAuthorizer interface {
	AuthorizeRoomWatch(userID, roomID uint) error
}

// WSHandler подключает клиентов к каналу уведомлений о комнатах
type WSHandler struct {
	manager    *websocket.Manager
	tickets    TicketValidator
	watchers   RoomWatchAuthorizer
	sendBuffer int
	upgrader   gorillaws.Upgrader
}

// NewWSHandler создает новый обработчик WebSocket.
// allowedOrigins синхронизирован с настройкой CORS; пустой Origin (не браузер) разрешен.
func NewWSHandler(manager *websocket.Manager, tickets TicketValidator, watchers RoomWatchAuthorizer, sendBuffer int, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}
	return &WSHandler{
		manager:    manager,
		tickets:    tickets,
		watchers:   watchers,
		sendBuffer: sendBuffer,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if _, ok := allowed[origin]; ok {
					return true
				}
				log.Printf("WebSocket: rejected unauthorized origin: %s", origin)
				return false
			},
		},
	}
}

// HandleConnection проверяет тикет (?ticket=...) и регистрирует соединение в хабе
// GET /ws
func (h *WSHandler) HandleConnection(c *gin.Context) {
	userID, ok := h.authenticate(c)
	if !ok {
		return
	}
	h.serve(c, h.manager.Hub(), userID)
}

// HandleRoomConnection подписывает владельца комнаты или администратора на progress_update комнаты
// GET /ws/room/:id
func (h *WSHandler) HandleRoomConnection(c *gin.Context) {
	roomID := c.GetUint("roomID")
	userID, ok := h.authenticate(c)
	if !ok {
		return
	}
	if err := h.watchers.AuthorizeRoomWatch(userID, roomID); err != nil {
		handleError(c, err)
		return
	}
	h.serve(c, h.manager.RoomHub(roomID), userID)
}

// authenticate проверяет тикет подключения и при ошибке сам отвечает 401
func (h *WSHandler) authenticate(c *gin.Context) (uint, bool) {
	ticket := c.Query("ticket")
	if ticket == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authentication ticket parameter", "error_type": "token_missing"})
		return 0, false
	}

	userID, err := h.tickets.ValidateWsTicket(ticket)
	if err != nil {
		log.Printf("WebSocket: Invalid or expired ticket - %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired ticket", "error_type": "token_invalid"})
		return 0, false
	}
	return userID, true
}

func (h *WSHandler) serve(c *gin.Context, hub *websocket.Hub, userID uint) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже записал ответ клиенту
		log.Printf("WebSocket: Error upgrading connection for UserID %d: %v", userID, err)
		return
	}

	client := websocket.NewClient(hub, conn, userID, h.sendBuffer)
	if err := client.Start(h.manager.HandleMessage); err != nil {
		log.Printf("WebSocket: UserID %d not registered: %v", userID, err)
		return
	}
	log.Printf("WebSocket: UserID %d connected (%s)", userID, client.ID())
}

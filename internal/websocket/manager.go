package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/school-quiz-api/internal/config"
	"github.com/yourusername/school-quiz-api/internal/domain/entity"
)

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Manager рассылает события через Hub и, в кластерном режиме, через Pub/Sub
// остальным экземплярам сервера. Помимо общего канала у каждой наблюдаемой комнаты
// есть свой хаб для progress_update.
type Manager struct {
	hub        *Hub
	roomsMu    sync.Mutex
	rooms      map[uint]*Hub
	provider   PubSubProvider
	instanceID string
	channel    string
	clustered  bool
	handlers   map[string]func(data json.RawMessage, client *Client) error
}

// NewManager создает менеджер. При выключенном кластерном режиме provider игнорируется.
func NewManager(hub *Hub, provider PubSubProvider, cfg config.ClusterConfig) *Manager {
	instanceID := cfg.InstanceID
	if instanceID == "" {
		instanceID = uuid.New().String()
	}
	if !cfg.Enabled || provider == nil {
		provider = &NoOpPubSub{}
	}
	m := &Manager{
		hub:        hub,
		rooms:      make(map[uint]*Hub),
		provider:   provider,
		instanceID: instanceID,
		channel:    cfg.BroadcastChannel,
		clustered:  cfg.Enabled,
		handlers:   make(map[string]func(data json.RawMessage, client *Client) error),
	}
	m.RegisterHandler(PING, func(_ json.RawMessage, client *Client) error {
		m.sendToClient(client, Event{Type: PONG})
		return nil
	})
	return m
}

// Hub возвращает локальный хаб
func (m *Manager) Hub() *Hub {
	return m.hub
}

// RoomHub возвращает хаб наблюдателей комнаты, создавая его при первом обращении
func (m *Manager) RoomHub(roomID uint) *Hub {
	m.roomsMu.Lock()
	defer m.roomsMu.Unlock()
	h, ok := m.rooms[roomID]
	if !ok {
		h = NewHub()
		m.rooms[roomID] = h
	}
	return h
}

func (m *Manager) existingRoomHub(roomID uint) (*Hub, bool) {
	m.roomsMu.Lock()
	defer m.roomsMu.Unlock()
	h, ok := m.rooms[roomID]
	return h, ok
}

// Close закрывает общий хаб и хабы комнат
func (m *Manager) Close() {
	m.roomsMu.Lock()
	rooms := make([]*Hub, 0, len(m.rooms))
	for id, h := range m.rooms {
		rooms = append(rooms, h)
		delete(m.rooms, id)
	}
	m.roomsMu.Unlock()

	for _, h := range rooms {
		h.Close()
	}
	m.hub.Close()
}

// InstanceID возвращает ID экземпляра в кластере
func (m *Manager) InstanceID() string {
	return m.instanceID
}

// RegisterHandler регистрирует обработчик для определенного типа входящих сообщений
func (m *Manager) RegisterHandler(eventType string, handler func(data json.RawMessage, client *Client) error) {
	m.handlers[eventType] = handler
}

// HandleMessage обрабатывает входящее сообщение клиента.
// Неизвестный тип или невалидный JSON не разрывают соединение.
func (m *Manager) HandleMessage(message []byte, client *Client) error {
	var event struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(message, &event); err != nil {
		m.sendError(client, "invalid_message_format", "Invalid JSON format")
		return nil
	}

	handler, ok := m.handlers[event.Type]
	if !ok {
		m.sendError(client, "unknown_message_type", fmt.Sprintf("Unknown message type: %s", event.Type))
		return nil
	}
	return handler(event.Data, client)
}

// BroadcastEvent рассылает событие локальным подписчикам и остальным экземплярам.
// Ошибки рассылки только логируются.
func (m *Manager) BroadcastEvent(event Event) {
	m.broadcast(0, event)
}

// NotifyRoomsUpdated рассылает {"type":"rooms_updated"}
func (m *Manager) NotifyRoomsUpdated() {
	m.BroadcastEvent(Event{Type: ROOMS_UPDATED})
}

// NotifyProgress рассылает progress_update наблюдателям комнаты
func (m *Manager) NotifyProgress(update entity.ProgressUpdate) {
	m.broadcast(update.RoomID, Event{Type: PROGRESS_UPDATE, Data: update})
}

// broadcast отправляет событие в общий хаб (roomID == 0) или в хаб комнаты
func (m *Manager) broadcast(roomID uint, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[WebSocketManager] Ошибка сериализации события %s: %v", event.Type, err)
		return
	}

	delivered := m.deliver(roomID, payload)
	log.Printf("[WebSocketManager] Событие %s доставлено %d подписчикам", event.Type, delivered)

	if !m.clustered {
		return
	}
	msg, err := json.Marshal(ClusterMessage{
		InstanceID: m.instanceID,
		RoomID:     roomID,
		Payload:    payload,
		Timestamp:  time.Now(),
	})
	if err != nil {
		log.Printf("[WebSocketManager] Ошибка сериализации сообщения кластера: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.provider.Publish(ctx, m.channel, msg); err != nil {
		log.Printf("[WebSocketManager] Ошибка публикации в кластер: %v", err)
	}
}

// deliver рассылает локально. Хаб комнаты без наблюдателей не создается.
func (m *Manager) deliver(roomID uint, payload []byte) int {
	if roomID == 0 {
		return m.hub.Broadcast(payload)
	}
	h, ok := m.existingRoomHub(roomID)
	if !ok {
		return 0
	}
	return h.Broadcast(payload)
}

// RunRelay пересылает локальным подписчикам события других экземпляров.
// Блокируется до отмены ctx. В одиночном режиме сразу возвращает nil.
func (m *Manager) RunRelay(ctx context.Context) error {
	if !m.clustered {
		return nil
	}
	msgCh, err := m.provider.Subscribe(ctx, m.channel)
	if err != nil {
		return err
	}
	log.Printf("[WebSocketManager] Кластерная ретрансляция запущена, instance=%s channel=%s", m.instanceID, m.channel)

	for raw := range msgCh {
		var msg ClusterMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("[WebSocketManager] Невалидное сообщение кластера: %v", err)
			continue
		}
		if msg.InstanceID == m.instanceID {
			continue
		}
		m.deliver(msg.RoomID, msg.Payload)
	}
	return nil
}

func (m *Manager) sendError(client *Client, code, message string) {
	m.sendToClient(client, Event{
		Type: SERVER_ERROR,
		Data: map[string]string{"code": code, "message": message},
	})
}

func (m *Manager) sendToClient(client *Client, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := client.Send(payload); err != nil {
		log.Printf("[WebSocketManager] Не удалось отправить %s клиенту %s: %v", event.Type, client.ID(), err)
	}
}

package websocket

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время, которое разрешено писать сообщение клиенту.
	writeWait = 10 * time.Second

	// Время, которое разрешено клиенту читать следующее сообщение.
	pongWait = 30 * time.Second

	// Периодичность отправки ping-сообщений клиенту.
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящего сообщения
	maxMessageSize = 512

	defaultClientBufferSize = 32
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}

	// ErrSendBufferFull возвращается, если клиент не успевает читать
	ErrSendBufferFull = errors.New("client send buffer is full")
	// ErrClientClosed возвращается при отправке закрытому клиенту
	ErrClientClosed = errors.New("client is closed")
)

// MessageHandler обрабатывает входящее сообщение клиента.
// Ошибка считается фатальной для соединения.
type MessageHandler func(message []byte, client *Client) error

// Client является посредником между WebSocket соединением и Hub.
type Client struct {
	// ID пользователя
	UserID uint

	// Уникальный ID для каждого соединения
	ConnectionID string

	hub  *Hub
	conn *websocket.Conn

	// Буферизованный канал для исходящих сообщений
	send chan []byte

	// sendMu защищает закрытие send от конкурентного Send
	sendMu     sync.RWMutex
	sendClosed bool
}

// NewClient создает клиента для установленного соединения
func NewClient(hub *Hub, conn *websocket.Conn, userID uint, bufferSize int) *Client {
	if bufferSize <= 0 {
		bufferSize = defaultClientBufferSize
	}
	return &Client{
		UserID:       userID,
		ConnectionID: uuid.New().String(),
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, bufferSize),
	}
}

// ID возвращает идентификатор соединения
func (c *Client) ID() string {
	return c.ConnectionID
}

// Send ставит сообщение в очередь без блокировки
func (c *Client) Send(message []byte) error {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.sendClosed {
		return ErrClientClosed
	}
	select {
	case c.send <- message:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close закрывает очередь отправки. writePump после этого отправит CloseMessage.
func (c *Client) Close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

// Start регистрирует клиента в хабе и запускает горутины чтения и записи
func (c *Client) Start(handler MessageHandler) error {
	if err := c.hub.Subscribe(c); err != nil {
		c.conn.Close()
		return err
	}
	go c.writePump()
	go c.readPump(handler)
	return nil
}

// readPump читает сообщения от клиента. Выход из цикла отписывает клиента от хаба.
func (c *Client) readPump(handler MessageHandler) {
	defer func() {
		c.hub.Unsubscribe(c)
		c.Close()
		c.conn.Close()
		log.Printf("[WSClient] Read pump stopped: user=%d conn=%s", c.UserID, c.ConnectionID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[WSClient] Read error: user=%d conn=%s: %v", c.UserID, c.ConnectionID, err)
			}
			return
		}

		if handlerErr := safeHandleMessage(message, c, handler); handlerErr != nil {
			log.Printf("[WSClient] Handler error: user=%d conn=%s: %v. Closing connection.", c.UserID, c.ConnectionID, handlerErr)
			return
		}
	}
}

// safeHandleMessage вызывает обработчик с recover
func safeHandleMessage(message []byte, client *Client, handler MessageHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC recovered in message handler for user=%d conn=%s. Panic: %v\nStack trace:\n%s",
				client.UserID, client.ConnectionID, r, string(debug.Stack()))
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()
	message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))
	if handler == nil {
		return nil
	}
	return handler(message, client)
}

// writePump отправляет сообщения клиенту из канала send
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WSClient] Write error: user=%d conn=%s: %v", c.UserID, c.ConnectionID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

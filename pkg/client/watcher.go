package client

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultPollInterval - период резервного опроса списка комнат
const DefaultPollInterval = 30 * time.Second

const roomsUpdatedEvent = "rooms_updated"

// RoomWatcher держит список комнат актуальным: перезапрашивает его по событию
// rooms_updated из /ws и, независимо от push-канала, по таймеру.
type RoomWatcher struct {
	client       *Client
	onRooms      func([]Room)
	pollInterval time.Duration
	dialer       *websocket.Dialer
}

// WatcherOption настраивает RoomWatcher
type WatcherOption func(*RoomWatcher)

// WithPollInterval задает период резервного опроса
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *RoomWatcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithDialer задает собственный websocket.Dialer
func WithDialer(d *websocket.Dialer) WatcherOption {
	return func(w *RoomWatcher) {
		w.dialer = d
	}
}

// NewRoomWatcher создает наблюдателя. onRooms вызывается из горутины Run с полным списком.
func NewRoomWatcher(c *Client, onRooms func([]Room), opts ...WatcherOption) *RoomWatcher {
	w := &RoomWatcher{
		client:       c,
		onRooms:      onRooms,
		pollInterval: DefaultPollInterval,
		dialer:       websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run работает до отмены ctx. Потеря push-канала не останавливает наблюдение:
// опрос продолжается, а переподключение выполняется на очередном тике.
func (w *RoomWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	updates := make(chan struct{}, 1)
	dropped := make(chan *websocket.Conn, 1)

	var conn *websocket.Conn
	connect := func() {
		c, err := w.dial(ctx)
		if err != nil {
			log.Printf("[RoomWatcher] WebSocket недоступен, работаем опросом: %v", err)
			return
		}
		conn = c
		go w.readLoop(c, updates, dropped)
	}
	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()

	w.refresh(ctx)
	connect()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-updates:
			w.refresh(ctx)
		case c := <-dropped:
			if c == conn {
				conn.Close()
				conn = nil
			}
		case <-ticker.C:
			w.refresh(ctx)
			if conn == nil {
				connect()
			}
		}
	}
}

func (w *RoomWatcher) refresh(ctx context.Context) {
	rooms, err := w.client.AvailableRooms(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[RoomWatcher] Ошибка загрузки комнат: %v", err)
		}
		return
	}
	w.onRooms(rooms)
}

func (w *RoomWatcher) dial(ctx context.Context) (*websocket.Conn, error) {
	ticket, err := w.client.WSTicket(ctx)
	if err != nil {
		return nil, err
	}
	wsURL, err := websocketURL(w.client.BaseURL(), ticket)
	if err != nil {
		return nil, err
	}
	conn, _, err := w.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (w *RoomWatcher) readLoop(conn *websocket.Conn, updates chan<- struct{}, dropped chan<- *websocket.Conn) {
	defer func() {
		select {
		case dropped <- conn:
		default:
		}
	}()
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var event struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &event); err != nil || event.Type != roomsUpdatedEvent {
			continue
		}
		// Несколько событий подряд сливаются в один перезапрос
		select {
		case updates <- struct{}{}:
		default:
		}
	}
}

func websocketURL(baseURL, ticket string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"ticket": {ticket}}.Encode()
	return u.String(), nil
}

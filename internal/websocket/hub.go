package websocket

import (
	"errors"
	"log"
	"sync"
)

// ErrHubClosed возвращается при подписке на закрытый хаб
var ErrHubClosed = errors.New("websocket hub is closed")

// Subscriber - получатель широковещательных сообщений.
// Send не должен блокироваться: переполненный или закрытый получатель возвращает ошибку.
type Subscriber interface {
	ID() string
	Send(message []byte) error
	Close()
}

// Hub - реестр подписчиков канала уведомлений.
// Рассылка идет по снимку реестра вне блокировки, поэтому медленный или сломанный
// подписчик не мешает остальным и не блокирует Subscribe/Unsubscribe.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
	closed      bool
}

// NewHub создает пустой хаб
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]Subscriber)}
}

// Subscribe добавляет подписчика
func (h *Hub) Subscribe(sub Subscriber) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	h.subscribers[sub.ID()] = sub
	count := len(h.subscribers)
	h.mu.Unlock()

	log.Printf("[Hub] Подписчик %s добавлен, всего: %d", sub.ID(), count)
	return nil
}

// Unsubscribe удаляет подписчика. Повторный вызов ничего не делает.
func (h *Hub) Unsubscribe(sub Subscriber) {
	if h.remove(sub) {
		log.Printf("[Hub] Подписчик %s удален", sub.ID())
	}
}

// remove удаляет именно этот экземпляр: переподключение с тем же ID не затрагивается
func (h *Hub) remove(sub Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	current, ok := h.subscribers[sub.ID()]
	if !ok || current != sub {
		return false
	}
	delete(h.subscribers, sub.ID())
	return true
}

// Broadcast отправляет сообщение всем подписчикам и возвращает число успешных доставок.
// Подписчик, на котором Send вернул ошибку, удаляется и закрывается.
func (h *Hub) Broadcast(message []byte) int {
	h.mu.RLock()
	snapshot := make([]Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		snapshot = append(snapshot, sub)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, sub := range snapshot {
		if err := sub.Send(message); err != nil {
			log.Printf("[Hub] Ошибка отправки подписчику %s: %v. Отключаем.", sub.ID(), err)
			if h.remove(sub) {
				sub.Close()
			}
			continue
		}
		delivered++
	}
	return delivered
}

// ClientCount возвращает число подписчиков
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close закрывает всех подписчиков. Последующие Subscribe возвращают ErrHubClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	snapshot := make([]Subscriber, 0, len(h.subscribers))
	for id, sub := range h.subscribers {
		snapshot = append(snapshot, sub)
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	for _, sub := range snapshot {
		sub.Close()
	}
	log.Printf("[Hub] Хаб закрыт, отключено подписчиков: %d", len(snapshot))
}

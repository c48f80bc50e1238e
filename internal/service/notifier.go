package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
)

// RoomNotifier рассылает подписчикам сигнал об изменении списка комнат
type RoomNotifier interface {
	NotifyRoomsUpdated()
}

// NoOpNotifier используется, когда канал уведомлений не нужен (CLI, тесты)
type NoOpNotifier struct{}

// NotifyRoomsUpdated ничего не делает
func (NoOpNotifier) NotifyRoomsUpdated() {}

// ProgressNotifier рассылает прогресс сессии тем, кто наблюдает за комнатой
type ProgressNotifier interface {
	NotifyProgress(update entity.ProgressUpdate)
}

// NoOpProgressNotifier используется, когда наблюдение за комнатами не нужно
type NoOpProgressNotifier struct{}

// NotifyProgress ничего не делает
func (NoOpProgressNotifier) NotifyProgress(entity.ProgressUpdate) {}

// SessionCompletedEvent публикуется после завершения сессии
type SessionCompletedEvent struct {
	Type        string    `json:"type"`
	SessionID   uint      `json:"session_id"`
	RoomID      uint      `json:"room_id"`
	StudentID   uint      `json:"student_id"`
	TotalScore  int       `json:"total_score"`
	Mode        string    `json:"mode"`
	CompletedAt time.Time `json:"completed_at"`
}

// SessionEventPublisher публикует события сессий во внешнюю шину
type SessionEventPublisher interface {
	PublishSessionCompleted(ctx context.Context, event SessionCompletedEvent) error
}

// NoOpSessionPublisher используется, когда RabbitMQ отключен
type NoOpSessionPublisher struct{}

// PublishSessionCompleted ничего не делает
func (NoOpSessionPublisher) PublishSessionCompleted(context.Context, SessionCompletedEvent) error {
	return nil
}

// QueuePublisher - минимальный контракт брокера сообщений
type QueuePublisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

// AMQPSessionPublisher публикует события сессий в очередь RabbitMQ
type AMQPSessionPublisher struct {
	publisher QueuePublisher
	queue     string
}

// NewAMQPSessionPublisher создает издателя событий для очереди queue
func NewAMQPSessionPublisher(publisher QueuePublisher, queue string) *AMQPSessionPublisher {
	return &AMQPSessionPublisher{publisher: publisher, queue: queue}
}

// PublishSessionCompleted сериализует событие и отправляет его в очередь
func (p *AMQPSessionPublisher) PublishSessionCompleted(ctx context.Context, event SessionCompletedEvent) error {
	event.Type = "session.completed"
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}
	if err := p.publisher.Publish(ctx, p.queue, body); err != nil {
		log.Printf("[SessionEvents] Ошибка публикации события сессии %d: %v", event.SessionID, err)
		return err
	}
	return nil
}

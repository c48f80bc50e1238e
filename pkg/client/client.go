// Package client - клиент API викторин: вызовы REST, наблюдение за списком
// комнат и локальная игра по файлу викторины без сервера.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yourusername/school-quiz-api/pkg/scoring"
)

// DefaultTimeout - таймаут одного HTTP-запроса по умолчанию
const DefaultTimeout = 10 * time.Second

// ErrorTypeAlreadySubmitted - error_type повторной отправки ответа
const ErrorTypeAlreadySubmitted = "already_submitted"

// APIError - ошибка, которую вернул сервер
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	// Result заполнен для повторной отправки ответа
	Result *SubmitResult
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Type, e.Message)
}

// AlreadySubmitted возвращает исходный результат, если ошибка означает повторную отправку ответа
func AlreadySubmitted(err error) (*SubmitResult, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Type == ErrorTypeAlreadySubmitted && apiErr.Result != nil {
		return apiErr.Result, true
	}
	return nil, false
}

// Option настраивает Client
type Option func(*Client)

// WithHTTPClient задает собственный http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithToken задает токен доступа (например, сохраненный ранее)
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// Client вызывает REST API сервера. Безопасен для использования из нескольких горутин.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
	user  *User
}

// New создает клиента для сервера baseURL (например, http://localhost:8080)
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL возвращает адрес сервера
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token возвращает текущий токен доступа
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// User возвращает пользователя, под которым выполнен вход
func (c *Client) User() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Login выполняет вход и запоминает токен для следующих запросов
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var res LoginResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &res); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.token = res.AccessToken
	c.user = &res.User
	c.mu.Unlock()
	return &res, nil
}

// WSTicket получает короткоживущий билет для подключения к /ws
func (c *Client) WSTicket(ctx context.Context) (string, error) {
	var res struct {
		Ticket string `json:"ticket"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/ws-ticket", nil, &res); err != nil {
		return "", err
	}
	return res.Ticket, nil
}

// AvailableRooms возвращает комнаты, доступные текущему пользователю
func (c *Client) AvailableRooms(ctx context.Context) ([]Room, error) {
	var rooms []Room
	if err := c.do(ctx, http.MethodGet, "/api/game/available-rooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// StartSession начинает сессию или возвращает незавершенную
func (c *Client) StartSession(ctx context.Context, roomID uint) (*Session, error) {
	var res Session
	if err := c.do(ctx, http.MethodPost, "/api/game/start-session/"+idPath(roomID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SessionPuzzles возвращает задания сессии в порядке прохождения
func (c *Client) SessionPuzzles(ctx context.Context, sessionID uint) ([]Puzzle, error) {
	var puzzles []Puzzle
	if err := c.do(ctx, http.MethodGet, "/api/game/session/"+idPath(sessionID)+"/puzzles", nil, &puzzles); err != nil {
		return nil, err
	}
	return puzzles, nil
}

// SubmitAnswer отправляет ответ. При повторной отправке возвращает *APIError,
// из которого исходный результат достается через AlreadySubmitted.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID, puzzleID uint, answer scoring.Answer, timeTaken time.Duration) (*SubmitResult, error) {
	body := map[string]interface{}{
		"session_id":         sessionID,
		"puzzle_id":          puzzleID,
		"answer_data":        answer,
		"time_taken_seconds": int(timeTaken / time.Second),
	}
	var res SubmitResult
	if err := c.do(ctx, http.MethodPost, "/api/game/submit-answer", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Progress возвращает прогресс сессии
func (c *Client) Progress(ctx context.Context, sessionID uint) (*Progress, error) {
	var res Progress
	if err := c.do(ctx, http.MethodGet, "/api/game/session/"+idPath(sessionID)+"/progress", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CompleteSession завершает сессию
func (c *Client) CompleteSession(ctx context.Context, sessionID uint) (*CompletedSession, error) {
	var res CompletedSession
	if err := c.do(ctx, http.MethodPost, "/api/game/session/"+idPath(sessionID)+"/complete", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, raw []byte) error {
	var body struct {
		Error     string        `json:"error"`
		ErrorType string        `json:"error_type"`
		Result    *SubmitResult `json:"result"`
	}
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(raw, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		return apiErr
	}
	apiErr.Type = body.ErrorType
	apiErr.Message = body.Error
	apiErr.Result = body.Result
	return apiErr
}

func idPath(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

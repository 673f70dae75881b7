package auditservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("auditservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("auditservice client: invalid response")
)

// Result исход операции в аудит-записи
type Result string

const (
	ResultOK     Result = "ok"
	ResultDenied Result = "denied"
	ResultError  Result = "error"
)

// Entry аудит-запись об изменяющей состояние операции
// Пишется как для успешных, так и для неуспешных вызовов
type Entry struct {
	ActorID    int64     `json:"actor_id"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resource_id"`
	Result     Result    `json:"result"`
	Detail     string    `json:"detail,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент аудит-сервиса
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента аудит-сервиса
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Log отправляет аудит-запись
// Вызывающие используют LogAsync и не зависят от доступности аудит-сервиса
func (c *Client) Log(ctx context.Context, entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal entry: %v", ErrInternal, err)
	}

	url := c.baseURL + "/internal/audit"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: unexpected status code %d", ErrInvalidResponse, resp.StatusCode)
	}

	return nil
}

// LogAsync отправляет аудит-запись в режиме fire-and-forget
// Ошибка доставки логируется и не влияет на исход бизнес-операции
func (c *Client) LogAsync(entry Entry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := c.Log(ctx, entry); err != nil {
			c.log.Error("audit: failed to deliver entry action=%s resource=%s/%s: %v",
				entry.Action, entry.Resource, entry.ResourceID, err)
		}
	}()
}

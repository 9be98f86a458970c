package notesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"notes-sync/internal/model"
)

const defaultTimeout = 10 * time.Second

// UpdateRequest тело PUT /notes/{id}: патч и, при обычном обновлении, новая метка времени
type UpdateRequest struct {
	model.NotePatch
	UpdatedAt int64 `json:"updatedAt,omitempty"`
}

// Client HTTP клиент сервиса заметок
type Client struct {
	baseURL string
	http    *http.Client
}

// New создает клиент для baseURL с таймаутом запросов
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient создает клиент с заданным http.Client
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// BaseURL адрес сервиса
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListNotes GET /notes
func (c *Client) ListNotes(ctx context.Context) ([]model.Note, error) {
	var notes []model.Note
	if err := c.doJSON(ctx, http.MethodGet, "/notes", nil, &notes); err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []model.Note{}
	}
	return notes, nil
}

// CreateNote POST /notes; сервер возвращает подтвержденную заметку
func (c *Client) CreateNote(ctx context.Context, note model.Note) (model.Note, error) {
	var created model.Note
	if err := c.doJSON(ctx, http.MethodPost, "/notes", note, &created); err != nil {
		return model.Note{}, err
	}
	if created.ID == "" {
		return model.Note{}, errors.New("create note: response without id")
	}
	return created, nil
}

// UpdateNoteInto PUT /notes/{id}, ответ декодируется поверх dst:
// меняются только поля, присутствующие в ответе.
func (c *Client) UpdateNoteInto(ctx context.Context, id string, req UpdateRequest, dst *model.Note) error {
	return c.doJSON(ctx, http.MethodPut, notePath(id), req, dst)
}

// DeleteNote DELETE /notes/{id}
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, notePath(id), nil, nil)
}

// Ping выполняет GET по абсолютному адресу и возвращает код ответа
func (c *Client) Ping(ctx context.Context, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Cache-Control", "no-store")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func notePath(id string) string {
	return "/notes/" + url.PathEscape(id)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// APIError ответ сервиса с кодом вне 2xx
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// AsAPIError извлекает *APIError из цепочки ошибок
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(data))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"prism-todos/domain"
)

// DefaultBaseURL points at the public JSONPlaceholder service.
const DefaultBaseURL = "https://jsonplaceholder.typicode.com"

const (
	maxResponseSize = 4 << 20 // 4 MiB
	requestIDHeader = "X-Request-ID"

	headerAccept      = "Accept"
	headerContentType = "Content-Type"
)

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// Client talks to the remote task service over JSON/HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	logger  *log.Logger
}

// New creates a Client. A zero timeout leaves the http.Client without a deadline.
func New(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ListTasks fetches the full task list.
func (c *Client) ListTasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.do(ctx, "list", http.MethodGet, "/todos", nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// UpdateTask persists the full task body. The response body is not required.
func (c *Client) UpdateTask(ctx context.Context, task domain.Task) error {
	return c.do(ctx, "update", http.MethodPut, "/todos/"+strconv.Itoa(task.ID), task, nil)
}

// DeleteTask removes a task by id.
func (c *Client) DeleteTask(ctx context.Context, id int) error {
	return c.do(ctx, "delete", http.MethodDelete, "/todos/"+strconv.Itoa(id), nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (err error) {
	requestID := uuid.NewString()
	metrics, ctx := newCallMetrics(ctx, c.logger, op, method, path, requestID)
	status := 0
	defer func() {
		metrics.Log(status, err)
	}()

	var reader io.Reader
	if body != nil {
		payload, merr := sonic.Marshal(body)
		if merr != nil {
			metrics.SetErrorStage("encode_request")
			return merr
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		metrics.SetErrorStage("build_request")
		return err
	}
	req.Header.Set(headerAccept, "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if body != nil {
		req.Header.Set(headerContentType, "application/json; charset=UTF-8")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		metrics.SetErrorStage("transport")
		return err
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		metrics.SetErrorStage("status")
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil
	}
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(resp.Body, maxResponseSize))
	if err = dec.Decode(out); err != nil {
		metrics.SetErrorStage("decode_response")
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

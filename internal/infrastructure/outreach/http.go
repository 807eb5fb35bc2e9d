package outreach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"founder-connect/internal/logger"

	"go.uber.org/zap"
)

// HTTPCollaborator calls a collaborator service exposing POST /search and
// POST /draft.
type HTTPCollaborator struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

type searchRequest struct {
	Topic string `json:"topic"`
	Max   int    `json:"max"`
}

func NewHTTPCollaborator(baseURL string, timeout time.Duration, l *zap.Logger) *HTTPCollaborator {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPCollaborator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.OrNop(l),
	}
}

func (c *HTTPCollaborator) SearchEmails(ctx context.Context, topic string, limit int) ([]string, error) {
	var out searchResponse
	if err := c.post(ctx, "/search", searchRequest{Topic: strings.TrimSpace(topic), Max: limit}, &out); err != nil {
		return nil, err
	}
	if len(out.Emails) == 0 {
		return nil, ErrEmptyResult
	}
	return out.Emails, nil
}

func (c *HTTPCollaborator) DraftEmail(ctx context.Context, in DraftRequest) (Draft, error) {
	var out Draft
	if err := c.post(ctx, "/draft", in, &out); err != nil {
		return Draft{}, err
	}
	if strings.TrimSpace(out.Body) == "" {
		return Draft{}, ErrEmptyResult
	}
	return out, nil
}

func (c *HTTPCollaborator) post(ctx context.Context, path string, body any, out any) error {
	if c == nil || c.client == nil {
		return errors.New("nil outreach client")
	}
	endpoint := c.baseURL + path

	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		bodyStr := strings.TrimSpace(string(rb))
		c.logger.Warn("outreach collaborator error",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("body", bodyStr),
		)
		return fmt.Errorf("outreach %s failed: status=%d body=%s", path, resp.StatusCode, bodyStr)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

var _ Collaborator = (*HTTPCollaborator)(nil)

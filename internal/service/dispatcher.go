package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storymagic/internal/models"

	"go.uber.org/zap"
)

// WebhookDispatcher hands a generation request over to the external
// automation platform. The platform answers later through the inbound
// webhook endpoints.
type WebhookDispatcher interface {
	Dispatch(ctx context.Context, payload *models.DispatchPayload) error
}

type httpDispatcher struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewHTTPDispatcher creates a WebhookDispatcher posting JSON to the given
// automation webhook URL.
func NewHTTPDispatcher(url string, timeout time.Duration, logger *zap.Logger) WebhookDispatcher {
	return &httpDispatcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.Named("Dispatcher"),
	}
}

// Dispatch posts the payload. A non-2xx answer is reported as
// models.ErrUpstreamDispatch with the upstream status and body attached,
// mirroring what the platform returned.
func (d *httpDispatcher) Dispatch(ctx context.Context, payload *models.DispatchPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	d.logger.Info("Dispatching generation request",
		zap.String("storyID", payload.ID),
		zap.String("storyType", payload.StoryType))

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Error("Dispatch request failed", zap.Error(err), zap.String("storyID", payload.ID))
		return fmt.Errorf("%w: %v", models.ErrUpstreamDispatch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		d.logger.Error("Dispatch rejected by automation platform",
			zap.Int("status", resp.StatusCode),
			zap.String("storyID", payload.ID),
			zap.ByteString("body", respBody))
		return fmt.Errorf("%w (%d): %s", models.ErrUpstreamDispatch, resp.StatusCode, string(respBody))
	}

	d.logger.Info("Dispatch accepted", zap.String("storyID", payload.ID), zap.Int("status", resp.StatusCode))
	return nil
}

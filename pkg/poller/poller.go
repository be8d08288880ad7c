// Package poller implements the client side of the story status poll loop:
// a fixed-interval poller with a bounded attempt budget and a monotonic view
// of the story lifecycle. It is used by server-side consumers (CLI tooling,
// tests) that wait for a generation to finish.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"storymagic/internal/models"
	"storymagic/internal/slug"
)

// ErrTimeout is returned when the attempt budget runs out before the story
// reaches a terminal state.
var ErrTimeout = errors.New("story generation did not finish within the polling budget")

// Defaults of the poll loop. With 60 attempts every 30 seconds a generation
// may take half an hour before the poller gives up.
const (
	DefaultInitialDelay = 10 * time.Second
	DefaultInterval     = 30 * time.Second
	DefaultMaxAttempts  = 60
)

// Config tunes a Poller. The zero value is completed by New with the
// defaults above.
type Config struct {
	// BaseURL of the story service, e.g. https://storymagic.example.
	BaseURL string
	// InitialDelay before the first poll. Generations never finish
	// instantly, an early first poll is a wasted request.
	InitialDelay time.Duration
	// Interval between polls.
	Interval time.Duration
	// MaxAttempts bounds the loop; 0 means DefaultMaxAttempts.
	MaxAttempts int
	// HTTPClient to use; nil means a client with the interval as timeout.
	HTTPClient *http.Client
}

// Poller waits for story generations to finish.
type Poller struct {
	cfg Config
}

// New creates a Poller, filling unset config fields with defaults.
func New(cfg Config) (*Poller, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("poller base URL is empty")
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Interval}
	}
	return &Poller{cfg: cfg}, nil
}

// Wait polls the status endpoint until the story completes or fails, the
// attempt budget runs out (ErrTimeout) or the context is canceled. The
// returned response is the last observed state; on ErrTimeout it is the
// last non-terminal one, or a synthetic generating state when no poll ever
// succeeded. On context cancellation the response may be nil.
//
// Observed statuses only move forward: a delivery that would regress the
// lifecycle (stale reads through caches or balancers) is ignored and the
// previous state kept.
func (p *Poller) Wait(ctx context.Context, storyID string) (*models.StoryStatusResponse, error) {
	if storyID == "" {
		return nil, errors.New("story id is empty")
	}

	if err := sleep(ctx, p.cfg.InitialDelay); err != nil {
		return nil, err
	}

	var last *models.StoryStatusResponse
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, p.cfg.Interval); err != nil {
				return last, err
			}
		}

		resp, err := p.fetch(ctx, storyID)
		if err != nil {
			// Transient fetch errors consume an attempt but do not
			// abort the loop.
			continue
		}

		if last != nil && !last.Status.CanTransitionTo(resp.Status) {
			continue
		}
		last = resp

		if resp.Status.IsTerminal() {
			return resp, nil
		}
	}
	if last == nil {
		last = &models.StoryStatusResponse{ID: storyID, Status: models.StoryStatusGenerating}
	}
	return last, fmt.Errorf("%w: story %s after %d attempts", ErrTimeout, storyID, p.cfg.MaxAttempts)
}

func (p *Poller) fetch(ctx context.Context, storyID string) (*models.StoryStatusResponse, error) {
	endpoint := fmt.Sprintf("%s/api/webhook?id=%s", p.cfg.BaseURL, url.QueryEscape(storyID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint answered %d", resp.StatusCode)
	}

	var status models.StoryStatusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}
	return &status, nil
}

// StoryPath returns the canonical reader path for a finished story:
// /{category}/{slug} when a slug exists, /story/{id} otherwise.
func StoryPath(resp *models.StoryStatusResponse) string {
	if resp.Slug != nil && *resp.Slug != "" && resp.StoryType != "" {
		return fmt.Sprintf("/%s/%s", slug.ForCategory(resp.StoryType), *resp.Slug)
	}
	return "/story/" + resp.ID
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

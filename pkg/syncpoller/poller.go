// Package syncpoller is the client side of room synchronisation: it re-reads a room
// endpoint on a fixed interval and hands changed snapshots to a callback.
package syncpoller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Snapshot is the last good response body with its validator.
type Snapshot struct {
	ETag      string
	Body      []byte
	FetchedAt time.Time
}

// Poller fetches one URL every interval. A failed read keeps the previous snapshot
// and is retried on the next tick.
type Poller struct {
	url      string
	interval time.Duration
	token    string
	client   *http.Client
	onChange func(Snapshot)
	logger   *zap.Logger

	mu   sync.RWMutex
	last *Snapshot
}

// Option configures a Poller.
type Option func(*Poller)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) Option { return func(p *Poller) { p.client = c } }

// WithToken sends a bearer token on every request.
func WithToken(token string) Option { return func(p *Poller) { p.token = token } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(p *Poller) { p.logger = l } }

// New creates a poller for url. onChange runs on the polling goroutine each time a
// snapshot different from the previous one arrives.
func New(url string, interval time.Duration, onChange func(Snapshot), opts ...Option) *Poller {
	p := &Poller{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
		onChange: onChange,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(p)
	}
	if p.interval <= 0 {
		p.interval = 3 * time.Second
	}
	return p
}

// Last returns the most recent good snapshot.
func (p *Poller) Last() (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return Snapshot{}, false
	}
	return *p.last, true
}

// Run polls immediately and then every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if _, err := p.Fetch(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn("poll failed, keeping last snapshot", zap.String("url", p.url), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Fetch performs one conditional GET and reports whether a new snapshot was delivered.
func (p *Poller) Fetch(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false, fmt.Errorf("syncpoller: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	prev, havePrev := p.Last()
	if havePrev && prev.ETag != "" {
		req.Header.Set("If-None-Match", prev.ETag)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("syncpoller: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("syncpoller: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("syncpoller: read body: %w", err)
	}

	etag := resp.Header.Get("ETag")
	if havePrev && bytes.Equal(prev.Body, body) && (etag == "" || etag == prev.ETag) {
		return false, nil
	}
	snap := Snapshot{ETag: etag, Body: body, FetchedAt: time.Now()}
	p.mu.Lock()
	p.last = &snap
	p.mu.Unlock()
	if p.onChange != nil {
		p.onChange(snap)
	}
	return true, nil
}

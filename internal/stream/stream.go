// Package stream subscribes to the profile service's server-sent event feed
// and fans the payloads out as typed channels for view consumption.
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
)

const (
	// EventPostsChanged is the SSE event name for posts-list invalidations.
	EventPostsChanged = "posts_changed"
	// EventWorkerStatus is the SSE event name for job lifecycle and progress.
	EventWorkerStatus = "worker_status"

	defaultRetryDelay = 2 * time.Second
	maxRetryDelay     = 30 * time.Second
	channelBuffer     = 64
)

// Options configures a Subscriber.
type Options struct {
	// URL is the event stream endpoint, e.g. ".../api/events/stream".
	URL string
	// Client overrides the transport. The default client carries no timeout
	// since the stream is long-lived.
	Client *http.Client
	// RetryDelay is the initial reconnect backoff; it doubles per attempt up
	// to a cap and resets after a successful connect.
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// Subscriber maintains one SSE connection and republishes decoded events.
// Channels are closed when Run returns.
type Subscriber struct {
	url        string
	client     *http.Client
	retryDelay time.Duration
	logger     *slog.Logger

	postsCh  chan model.PostsChangedEvent
	workerCh chan model.WorkerEvent
}

// NewSubscriber constructs a Subscriber. Callers must provide a stream URL.
func NewSubscriber(opts Options) (*Subscriber, error) {
	raw := strings.TrimSpace(opts.URL)
	if raw == "" {
		return nil, errors.New("stream url is required")
	}
	if _, err := url.Parse(raw); err != nil {
		return nil, fmt.Errorf("parse stream url: %w", err)
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}

	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Subscriber{
		url:        raw,
		client:     client,
		retryDelay: delay,
		logger:     logger.With("component", "event_stream"),
		postsCh:    make(chan model.PostsChangedEvent, channelBuffer),
		workerCh:   make(chan model.WorkerEvent, channelBuffer),
	}, nil
}

// PostsEvents returns the posts-changed channel.
func (s *Subscriber) PostsEvents() <-chan model.PostsChangedEvent { return s.postsCh }

// WorkerEvents returns the worker-status channel.
func (s *Subscriber) WorkerEvents() <-chan model.WorkerEvent { return s.workerCh }

// Run connects and pumps events until the context is canceled, reconnecting
// with exponential backoff on any stream failure. It always returns ctx.Err().
func (s *Subscriber) Run(ctx context.Context) error {
	defer close(s.postsCh)
	defer close(s.workerCh)

	delay := s.retryDelay
	for {
		err := s.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.logger.WarnContext(ctx, "event stream disconnected", "error", err, "retry_in", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return ctx.Err()
		case <-timer.C:
		}

		delay = min(delay*2, maxRetryDelay)
	}
}

// consume runs one connection to completion. A nil error means the server
// closed the stream cleanly.
func (s *Subscriber) consume(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("connect event stream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event stream status %s", resp.Status)
	}

	s.logger.DebugContext(ctx, "event stream connected")

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var eventName string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() > 0 {
				s.dispatch(ctx, eventName, data.String())
			}
			eventName = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
			// Comment / keep-alive line.
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	return scanner.Err()
}

func (s *Subscriber) dispatch(ctx context.Context, eventName, payload string) {
	switch eventName {
	case EventPostsChanged:
		var ev model.PostsChangedEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			s.logger.WarnContext(ctx, "bad posts_changed payload", "error", err)
			return
		}
		select {
		case s.postsCh <- ev:
		case <-ctx.Done():
		default:
			s.logger.WarnContext(ctx, "posts event channel full, dropping event")
		}
	case EventWorkerStatus:
		var ev model.WorkerEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			s.logger.WarnContext(ctx, "bad worker_status payload", "error", err)
			return
		}
		if !ev.Status.Valid() {
			s.logger.WarnContext(ctx, "unknown worker event status", "status", ev.Status)
			return
		}
		// Dropping under backpressure is safe: the worker list is fully
		// replaced on the next refresh-triggering event.
		select {
		case s.workerCh <- ev:
		case <-ctx.Done():
		default:
			s.logger.WarnContext(ctx, "worker event channel full, dropping event")
		}
	default:
		s.logger.DebugContext(ctx, "ignoring unknown stream event", "event", eventName)
	}
}

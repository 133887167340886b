package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
)

func sseServer(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		for _, frame := range frames {
			fmt.Fprint(w, frame)
			flusher.Flush()
		}
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewSubscriber_RequiresURL(t *testing.T) {
	t.Parallel()

	_, err := NewSubscriber(Options{})
	require.Error(t, err)
}

func TestRun_DispatchesTypedEvents(t *testing.T) {
	t.Parallel()

	srv := sseServer(t, []string{
		"event: posts_changed\ndata: {\"profile_id\": 7}\n\n",
		": keep-alive\n\n",
		"event: worker_status\ndata: {\"status\":\"progress\",\"id\":\"j1\",\"type\":\"posts\",\"profile_id\":7,\"current\":3,\"progress\":0.3}\n\n",
		"event: worker_status\ndata: {\"status\":\"finished\",\"id\":\"j1\",\"type\":\"posts\",\"profile_id\":7}\n\n",
	})

	sub, err := NewSubscriber(Options{URL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sub.Run(ctx)
	}()

	select {
	case ev := <-sub.PostsEvents():
		assert.Equal(t, int64(7), ev.ProfileID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for posts event")
	}

	var worker []model.WorkerEvent
	for len(worker) < 2 {
		select {
		case ev := <-sub.WorkerEvents():
			worker = append(worker, ev)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for worker events")
		}
	}

	assert.Equal(t, model.WorkerEventProgress, worker[0].Status)
	assert.Equal(t, "j1", worker[0].JobID)
	assert.Equal(t, 3, worker[0].Current)
	assert.Equal(t, model.WorkerEventFinished, worker[1].Status)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop on cancel")
	}
}

func TestRun_SkipsMalformedAndUnknownEvents(t *testing.T) {
	t.Parallel()

	srv := sseServer(t, []string{
		"event: worker_status\ndata: not json\n\n",
		"event: worker_status\ndata: {\"status\":\"exploded\",\"id\":\"j1\"}\n\n",
		"event: mystery\ndata: {}\n\n",
		"event: worker_status\ndata: {\"status\":\"queued\",\"id\":\"j2\",\"type\":\"posts\",\"profile_id\":7}\n\n",
	})

	sub, err := NewSubscriber(Options{URL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sub.Run(ctx) }()

	select {
	case ev := <-sub.WorkerEvents():
		// Only the well-formed queued event survives decoding.
		assert.Equal(t, model.WorkerEventQueued, ev.Status)
		assert.Equal(t, "j2", ev.JobID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for worker event")
	}
}

func TestRun_ReconnectsAfterDisconnect(t *testing.T) {
	t.Parallel()

	var connects atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := connects.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprintf(w, "event: posts_changed\ndata: {\"profile_id\": %d}\n\n", n)
		flusher.Flush()
		// Close the stream right away to force a reconnect.
	}))
	t.Cleanup(srv.Close)

	sub, err := NewSubscriber(Options{URL: srv.URL, RetryDelay: 10 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sub.Run(ctx) }()

	first := <-sub.PostsEvents()
	second := <-sub.PostsEvents()
	assert.Equal(t, int64(1), first.ProfileID)
	assert.Equal(t, int64(2), second.ProfileID)
}

func TestRun_ChannelsCloseOnReturn(t *testing.T) {
	t.Parallel()

	srv := sseServer(t, nil)
	sub, err := NewSubscriber(Options{URL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- sub.Run(ctx) }()
	cancel()

	select {
	case err := <-runErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return")
	}

	_, open := <-sub.PostsEvents()
	assert.False(t, open)
	_, open = <-sub.WorkerEvents()
	assert.False(t, open)
}

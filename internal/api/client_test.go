package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	apperrors "github.com/profilewatch/profile-ui-api/internal/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestProfilePosts(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/profile/7/posts", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "25", r.URL.Query().Get("rpp"))

		_ = json.NewEncoder(w).Encode(model.PostsPage{
			SiteName:   "x",
			Username:   "bob",
			Posts:      []model.Post{{ID: 1, ProfileID: 7, Content: "hello"}},
			TotalCount: 42,
		})
	}))

	page, err := client.ProfilePosts(context.Background(), 7, 2, 25)
	require.NoError(t, err)
	assert.Equal(t, "bob", page.Username)
	assert.Equal(t, 42, page.TotalCount)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "hello", page.Posts[0].Content)
}

func TestProfilePosts_ErrorEnvelope(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "not_found",
			"message": "profile 7 does not exist",
		})
	}))

	_, err := client.ProfilePosts(context.Background(), 7, 1, 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "profile 7 does not exist", apperrors.UserMessage(err))
}

func TestProfilePosts_NonJSONError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))

	_, err := client.ProfilePosts(context.Background(), 7, 1, 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsRemote(err))
}

func TestEnqueuePostsFetch(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusAccepted)
	}))

	require.NoError(t, client.EnqueuePostsFetch(context.Background(), 7))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/profile/7/posts/fetch", gotPath)
}

func TestEnqueuePostsFetch_Conflict(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "conflict",
			"message": "a posts job is already running",
		})
	}))

	err := client.EnqueuePostsFetch(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestWorkers(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tasks/workers", r.URL.Path)
		_ = json.NewEncoder(w).Encode(model.WorkerList{
			Workers: []model.WorkerDescriptor{
				{Name: "worker-1", CurrentJob: &model.Job{ID: "j1", Type: model.JobTypePosts, ProfileID: 7}},
				{Name: "worker-2"},
			},
		})
	}))

	workers, err := client.Workers(context.Background())
	require.NoError(t, err)
	require.Len(t, workers, 2)
	require.NotNil(t, workers[0].CurrentJob)
	assert.Equal(t, int64(7), workers[0].CurrentJob.ProfileID)
	assert.Nil(t, workers[1].CurrentJob)
}

func TestFailedTasks(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tasks/failed", r.URL.Path)
		_ = json.NewEncoder(w).Encode(model.FailedTaskList{
			Failed: []model.FailedTask{{ID: "t1", Type: model.JobTypePosts, ProfileID: 7, Error: "boom"}},
		})
	}))

	failed, err := client.FailedTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "boom", failed[0].Error)
}

func TestTimeoutMapsToTimeoutError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err = client.ProfilePosts(ctx, 7, 1, 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsTimeout(err))
}

func TestTokenSourceAddsBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(model.WorkerList{})
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL: srv.URL,
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: "sekrit",
			TokenType:   "Bearer",
		}),
	})
	require.NoError(t, err)

	_, err = client.Workers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer sekrit", gotAuth)
}

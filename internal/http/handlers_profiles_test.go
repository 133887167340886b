package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/profilewatch/profile-ui-api/internal/core"
	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	apperrors "github.com/profilewatch/profile-ui-api/internal/errors"
	"github.com/profilewatch/profile-ui-api/internal/mocks"
	"github.com/profilewatch/profile-ui-api/internal/service"
)

type routerFixture struct {
	server   *httptest.Server
	profiles *mocks.MockProfileRepository
	posts    *mocks.MockPostRepository
	jobs     *mocks.MockJobRepository
	registry *mocks.MockWorkerRegistry
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &routerFixture{
		profiles: mocks.NewMockProfileRepository(ctrl),
		posts:    mocks.NewMockPostRepository(ctrl),
		jobs:     mocks.NewMockJobRepository(ctrl),
		registry: mocks.NewMockWorkerRegistry(ctrl),
	}

	handler := NewRouter(RouterServices{
		Profiles: service.NewProfileService(service.ProfileServiceOptions{
			Profiles: f.profiles,
			Posts:    f.posts,
		}),
		Tasks: service.NewTaskService(service.TaskServiceOptions{
			Jobs:     f.jobs,
			Registry: f.registry,
		}),
	})
	f.server = httptest.NewServer(handler)
	t.Cleanup(f.server.Close)
	return f
}

func decodeErrorBody(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestGetPosts(t *testing.T) {
	f := newRouterFixture(t)

	f.profiles.EXPECT().GetByID(gomock.Any(), int64(7)).
		Return(&model.Profile{ID: 7, Site: "x", Username: "bob"}, nil)
	f.posts.EXPECT().CountByProfile(gomock.Any(), int64(7)).Return(12, nil)
	f.posts.EXPECT().ListByProfile(gomock.Any(), int64(7), core.PostPage{Limit: 5, Offset: 5}).
		Return([]model.Post{{ID: 3, ProfileID: 7, Content: "hi"}}, nil)

	resp, err := http.Get(f.server.URL + "/api/profile/7/posts?page=2&rpp=5")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var page model.PostsPage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, "x", page.SiteName)
	assert.Equal(t, "bob", page.Username)
	assert.Equal(t, 12, page.TotalCount)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "hi", page.Posts[0].Content)
}

func TestGetPosts_InvalidProfileID(t *testing.T) {
	f := newRouterFixture(t)

	for _, id := range []string{"bob", "-3", "0"} {
		resp, err := http.Get(f.server.URL + "/api/profile/" + id + "/posts")
		require.NoError(t, err)
		body := decodeErrorBody(t, resp)
		resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "id %q", id)
		assert.Equal(t, "invalid_path", body["error"])
	}
}

func TestGetPosts_UnknownProfile(t *testing.T) {
	f := newRouterFixture(t)

	f.profiles.EXPECT().GetByID(gomock.Any(), int64(9)).
		Return(nil, apperrors.NotFound("no rows"))

	resp, err := http.Get(f.server.URL + "/api/profile/9/posts")
	require.NoError(t, err)
	body := decodeErrorBody(t, resp)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["error"])
	assert.Equal(t, "profile 9 does not exist", body["message"])
}

func TestTriggerFetch(t *testing.T) {
	f := newRouterFixture(t)

	f.profiles.EXPECT().GetByID(gomock.Any(), int64(7)).
		Return(&model.Profile{ID: 7, Site: "x", Username: "bob"}, nil)
	f.jobs.EXPECT().HasActiveJob(gomock.Any(), int64(7), model.JobTypePosts).Return(false, nil)
	f.jobs.EXPECT().Create(gomock.Any(), &model.CreateJobRequest{Type: model.JobTypePosts, ProfileID: 7}).
		Return(&model.Job{ID: "j1", Type: model.JobTypePosts, ProfileID: 7, Status: model.JobStatusQueued}, nil)

	resp, err := http.Post(f.server.URL+"/api/profile/7/posts/fetch", "application/json", strings.NewReader(""))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var job model.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	assert.Equal(t, "j1", job.ID)
	assert.Equal(t, model.JobStatusQueued, job.Status)
}

func TestTriggerFetch_ActiveJobConflicts(t *testing.T) {
	f := newRouterFixture(t)

	f.profiles.EXPECT().GetByID(gomock.Any(), int64(7)).
		Return(&model.Profile{ID: 7, Site: "x", Username: "bob"}, nil)
	f.jobs.EXPECT().HasActiveJob(gomock.Any(), int64(7), model.JobTypePosts).Return(true, nil)

	resp, err := http.Post(f.server.URL+"/api/profile/7/posts/fetch", "application/json", strings.NewReader(""))
	require.NoError(t, err)
	body := decodeErrorBody(t, resp)
	resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "conflict", body["error"])
	assert.Equal(t, "a posts job is already scheduled for profile 7", body["message"])
}

func TestTriggerFetch_UnknownProfile(t *testing.T) {
	f := newRouterFixture(t)

	f.profiles.EXPECT().GetByID(gomock.Any(), int64(404)).
		Return(nil, apperrors.NotFound("no rows"))

	resp, err := http.Post(f.server.URL+"/api/profile/404/posts/fetch", "application/json", strings.NewReader(""))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	f := newRouterFixture(t)

	resp, err := http.Get(f.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

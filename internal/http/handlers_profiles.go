// Package httpx provides the HTTP handlers and router for the profilewatch API.
package httpx

import (
	"errors"
	"net/http"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	"github.com/profilewatch/profile-ui-api/internal/service"
)

var errInvalidProfileID = errors.New("profile id must be a positive integer")

const (
	defaultRPP = 10
)

// ProfileHandlers provides HTTP handlers for profile-related operations.
type ProfileHandlers struct {
	Profiles *service.ProfileService
	Tasks    *service.TaskService
}

// GetPosts returns one page of a profile's posts along with the profile's
// identity fields and the total post count.
func (h *ProfileHandlers) GetPosts(w http.ResponseWriter, r *http.Request) {
	id, ok := parseProfileID(w, r)
	if !ok {
		return
	}
	page := parseIntQuery(r, "page", 1)
	rpp := parseIntQuery(r, "rpp", defaultRPP)

	posts, err := h.Profiles.PostsPage(r.Context(), id, page, rpp)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, posts)
}

// TriggerFetch enqueues a posts extraction job for a profile. A queued or
// started posts job for the same profile is a conflict.
func (h *ProfileHandlers) TriggerFetch(w http.ResponseWriter, r *http.Request) {
	id, ok := parseProfileID(w, r)
	if !ok {
		return
	}

	if _, err := h.Profiles.GetByID(r.Context(), id); err != nil {
		WriteAppError(w, err)
		return
	}

	job, err := h.Tasks.Enqueue(r.Context(), &model.CreateJobRequest{
		Type:      model.JobTypePosts,
		ProfileID: id,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, job)
}

// Package view implements the profile posts view: the paginated posts list
// for one profile, live tracking of that profile's extraction jobs, and the
// routing of push events into either in-place patches or REST refreshes.
package view

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	apperrors "github.com/profilewatch/profile-ui-api/internal/errors"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
)

// PostsAPI is the REST surface the view consumes. Implemented by
// api.Client in production and mocked in tests.
type PostsAPI interface {
	ProfilePosts(ctx context.Context, profileID int64, page, rpp int) (*model.PostsPage, error)
	EnqueuePostsFetch(ctx context.Context, profileID int64) error
	Workers(ctx context.Context) ([]model.WorkerDescriptor, error)
	FailedTasks(ctx context.Context) ([]model.FailedTask, error)
}

// Breadcrumb is one entry of the navigation trail.
type Breadcrumb struct {
	Label string
	Path  string
}

// Chrome receives page title and breadcrumb updates. The rendering widget
// behind it is not this package's concern.
type Chrome interface {
	SetTitle(title string)
	SetBreadcrumbs(crumbs []Breadcrumb)
}

// State is a snapshot of the view's template-facing fields.
type State struct {
	SiteName         string
	Username         string
	Posts            []model.Post
	Pager            Pager
	Error            string
	Loading          bool
	Workers          []model.WorkerDescriptor
	RunningJobs      map[string]model.Job
	FailedPostsFetch bool
}

// Options groups the collaborators of a ProfilePostsView.
type Options struct {
	// ProfileID is the route parameter. It must parse as a positive integer.
	ProfileID string
	// Page and RPP are the pagination query parameters; empty means default.
	Page string
	RPP  string

	API    PostsAPI // Required
	Chrome Chrome   // Optional: title/breadcrumb sink

	// PostsEvents and WorkerEvents deliver push notifications for the
	// lifetime of the view. Unsubscribe, when set, is invoked on unmount.
	PostsEvents  <-chan model.PostsChangedEvent
	WorkerEvents <-chan model.WorkerEvent
	Unsubscribe  func()

	Logger *slog.Logger // Optional
}

// ProfilePostsView owns all state for one mounted posts view. All mutation
// happens through its methods; completion callbacks are serialized by the
// view mutex.
type ProfilePostsView struct {
	profileID int64
	api       PostsAPI
	chrome    Chrome
	logger    *slog.Logger

	postsEvents  <-chan model.PostsChangedEvent
	workerEvents <-chan model.WorkerEvent
	unsubscribe  func()

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	page        int
	rpp         int
	siteName    string
	username    string
	posts       []model.Post
	pager       Pager
	errMsg      string
	loading     int
	workers     []model.WorkerDescriptor
	runningJobs map[string]*model.Job
	failedFetch bool
}

// New constructs a ProfilePostsView. The profile id is parsed once here; all
// later comparisons are integer comparisons.
func New(opts Options) (*ProfilePostsView, error) {
	if opts.API == nil {
		return nil, apperrors.Validation("PostsAPI is required")
	}

	profileID, err := strconv.ParseInt(opts.ProfileID, 10, 64)
	if err != nil || profileID <= 0 {
		return nil, apperrors.Validationf("invalid profile id %q", opts.ProfileID)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ProfilePostsView{
		profileID:    profileID,
		api:          opts.API,
		chrome:       opts.Chrome,
		logger:       logger.With("component", "posts_view", "profile_id", profileID),
		postsEvents:  opts.PostsEvents,
		workerEvents: opts.WorkerEvents,
		unsubscribe:  opts.Unsubscribe,
		page:         parsePageParam(opts.Page, defaultPage),
		rpp:          parsePageParam(opts.RPP, defaultPageSize),
		runningJobs:  make(map[string]*model.Job),
	}, nil
}

// parsePageParam parses a pagination query parameter, falling back to def for
// absent, malformed, or non-positive values.
func parsePageParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Mount starts the view: initial chrome, the sequential startup chain
// (posts page, then workers, then failed tasks), and the event loop.
func (v *ProfilePostsView) Mount(ctx context.Context) {
	ctx, v.cancel = context.WithCancel(ctx)

	v.setChrome("")

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		// Startup fetches are strictly sequential; everything after may
		// overlap and relies on full-replacement semantics.
		v.refreshPosts(ctx)
		v.refreshWorkers(ctx)
		v.checkFailed(ctx)
	}()

	v.wg.Add(1)
	go v.eventLoop(ctx)
}

// Unmount tears the view down. It is the only cancellation point: event
// subscriptions are released and any still-running completion becomes a no-op.
func (v *ProfilePostsView) Unmount() {
	if v.cancel != nil {
		v.cancel()
	}
	if v.unsubscribe != nil {
		v.unsubscribe()
	}
	v.wg.Wait()
}

// SetPagination applies changed page/rpp query parameters and re-triggers the
// page fetch.
func (v *ProfilePostsView) SetPagination(ctx context.Context, page, rpp string) {
	v.mu.Lock()
	v.page = parsePageParam(page, defaultPage)
	v.rpp = parsePageParam(rpp, defaultPageSize)
	v.mu.Unlock()

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		v.refreshPosts(ctx)
	}()
}

// TriggerExtraction asks the server to enqueue a new posts-extraction job.
// done, when set, is always invoked once the request settles, success or not.
func (v *ProfilePostsView) TriggerExtraction(ctx context.Context, done func()) {
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		if done != nil {
			defer done()
		}
		if err := v.api.EnqueuePostsFetch(ctx, v.profileID); err != nil {
			v.mu.Lock()
			v.errMsg = apperrors.UserMessage(err)
			v.mu.Unlock()
			v.logger.WarnContext(ctx, "enqueue posts fetch failed", "error", err)
		}
	}()
}

// State returns a copy of the template-facing view state.
func (v *ProfilePostsView) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := State{
		SiteName:         v.siteName,
		Username:         v.username,
		Posts:            append([]model.Post(nil), v.posts...),
		Pager:            v.pager,
		Error:            v.errMsg,
		Loading:          v.loading > 0,
		FailedPostsFetch: v.failedFetch,
		RunningJobs:      make(map[string]model.Job, len(v.runningJobs)),
	}
	for id, job := range v.runningJobs {
		s.RunningJobs[id] = *job
	}
	for _, w := range v.workers {
		if w.CurrentJob != nil {
			job := *w.CurrentJob
			w.CurrentJob = &job
		}
		s.Workers = append(s.Workers, w)
	}
	return s
}

// Loading reports whether any page fetch is in flight.
func (v *ProfilePostsView) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading > 0
}

// eventLoop dispatches push notifications until the view is unmounted.
func (v *ProfilePostsView) eventLoop(ctx context.Context) {
	defer v.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-v.postsEvents:
			if !ok {
				v.postsEvents = nil
				continue
			}
			if ev.ProfileID != v.profileID {
				continue
			}
			v.wg.Add(1)
			go func() {
				defer v.wg.Done()
				v.refreshPosts(ctx)
			}()
		case ev, ok := <-v.workerEvents:
			if !ok {
				v.workerEvents = nil
				continue
			}
			v.routeWorkerEvent(ctx, ev)
		}
	}
}

// routeWorkerEvent applies the event-kind state machine: lifecycle transitions
// require worker-list membership the payload does not carry, so they refresh
// over REST; progress ticks patch in place when the job is already tracked.
func (v *ProfilePostsView) routeWorkerEvent(ctx context.Context, ev model.WorkerEvent) {
	switch ev.Status {
	case model.WorkerEventProgress:
		if v.patchProgress(ev) {
			return
		}
		// Unknown job (e.g. the view mounted after it started): fall back
		// to a full refresh.
		v.wg.Add(1)
		go func() {
			defer v.wg.Done()
			v.refreshWorkers(ctx)
		}()
	case model.WorkerEventQueued, model.WorkerEventStarted, model.WorkerEventFinished:
		v.wg.Add(1)
		go func() {
			defer v.wg.Done()
			v.refreshWorkers(ctx)
		}()
	case model.WorkerEventFailed:
		// Failed-flag first, then the worker list recompute.
		v.wg.Add(1)
		go func() {
			defer v.wg.Done()
			v.checkFailed(ctx)
			v.refreshWorkers(ctx)
		}()
	default:
		v.logger.WarnContext(ctx, "unknown worker event status", "status", ev.Status)
	}
}

// patchProgress mutates a tracked job's current/progress fields in place.
// Returns false when the job id is not in the running-jobs map.
func (v *ProfilePostsView) patchProgress(ev model.WorkerEvent) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	job, ok := v.runningJobs[ev.JobID]
	if !ok {
		return false
	}
	job.Current = ev.Current
	job.Progress = ev.Progress
	return true
}

// refreshPosts fetches one page of posts and republishes it into view state.
// The loading counter is incremented before the call and decremented exactly
// once after, so overlapping fetches settle back to an idle counter.
func (v *ProfilePostsView) refreshPosts(ctx context.Context) {
	v.mu.Lock()
	v.loading++
	page, rpp := v.page, v.rpp
	v.mu.Unlock()

	pageData, err := v.api.ProfilePosts(ctx, v.profileID, page, rpp)

	v.mu.Lock()
	v.loading--
	if err != nil {
		// Prior list state stays untouched on failure.
		if ctx.Err() == nil {
			v.errMsg = apperrors.UserMessage(err)
		}
		v.mu.Unlock()
		return
	}

	v.siteName = pageData.SiteName
	v.username = pageData.Username
	v.posts = pageData.Posts
	v.pager = NewPager(pageData.TotalCount, page, rpp)
	v.errMsg = ""
	username := v.username
	v.mu.Unlock()

	v.setChrome(username)
}

// refreshWorkers rebuilds the displayed worker subset and the running-jobs
// map from one workers response. Both structures are replaced together;
// stale entries never survive a refresh.
func (v *ProfilePostsView) refreshWorkers(ctx context.Context) {
	workers, err := v.api.Workers(ctx)
	if err != nil {
		if ctx.Err() == nil {
			v.logger.WarnContext(ctx, "worker list refresh failed", "error", err)
		}
		return
	}

	var filtered []model.WorkerDescriptor
	running := make(map[string]*model.Job)
	for _, w := range workers {
		job := w.CurrentJob
		if job == nil || job.ProfileID != v.profileID || job.Type != model.JobTypePosts {
			continue
		}
		filtered = append(filtered, w)
		running[job.ID] = job
	}

	v.mu.Lock()
	v.workers = filtered
	v.runningJobs = running
	v.mu.Unlock()
}

// checkFailed sets the failed-posts flag when any failed task belongs to this
// profile. The flag is monotonic for the lifetime of the view.
func (v *ProfilePostsView) checkFailed(ctx context.Context) {
	failed, err := v.api.FailedTasks(ctx)
	if err != nil {
		if ctx.Err() == nil {
			v.logger.WarnContext(ctx, "failed task check failed", "error", err)
		}
		return
	}

	for _, task := range failed {
		if task.ProfileID == v.profileID && task.Type == model.JobTypePosts {
			v.mu.Lock()
			v.failedFetch = true
			v.mu.Unlock()
			return
		}
	}
}

// setChrome pushes the title and breadcrumb trail for the resolved username,
// or an id-based placeholder before the first fetch completes.
func (v *ProfilePostsView) setChrome(username string) {
	if v.chrome == nil {
		return
	}

	label := username
	if label == "" {
		label = fmt.Sprintf("Profile %d", v.profileID)
	}

	v.chrome.SetTitle("Posts by " + label)
	v.chrome.SetBreadcrumbs([]Breadcrumb{
		{Label: "Home", Path: "/"},
		{Label: "Profiles", Path: "/profiles"},
		{Label: label, Path: fmt.Sprintf("/profiles/%d", v.profileID)},
		{Label: "Posts"},
	})
}

// Package mocks provides generated mock implementations for testing.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the repository and client ports. The generated files are checked in so tests
// build without a codegen step; regenerate after interface changes with:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	api := mocks.NewMockPostsAPI(ctrl)
//	api.EXPECT().Workers(gomock.Any()).Return(workers, nil)
package mocks

// Mock for the view's REST port.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=posts_api_mock.go github.com/profilewatch/profile-ui-api/internal/view PostsAPI

// Mocks for the service-layer repository ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/profilewatch/profile-ui-api/internal/core JobRepository
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=post_repository_mock.go github.com/profilewatch/profile-ui-api/internal/core PostRepository
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=profile_repository_mock.go github.com/profilewatch/profile-ui-api/internal/core ProfileRepository
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=worker_registry_mock.go github.com/profilewatch/profile-ui-api/internal/core WorkerRegistry
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=event_publisher_mock.go github.com/profilewatch/profile-ui-api/internal/core EventPublisher

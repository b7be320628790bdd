// Package mocks provides gomock implementations of the portal's repository and port interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockProfileRepository(ctrl)
//	repo.EXPECT().GetByUserID(gomock.Any(), "oidc|123").Return(profile, nil)
package mocks

// Ports used by the session gate and the auth flow.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/besf/portal/internal/ports AuthProvider,RateLimiter,RoleLookup,RoleMapper,SessionNotifier,SessionSource,SessionStore,Subscription

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=profile_repository_mock.go github.com/besf/portal/internal/core ProfileRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=account_repository_mock.go github.com/besf/portal/internal/core AccountRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=game_repository_mock.go github.com/besf/portal/internal/core GameRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_game_repository_mock.go github.com/besf/portal/internal/core UserGameRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=event_repository_mock.go github.com/besf/portal/internal/core EventRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_event_repository_mock.go github.com/besf/portal/internal/core UserEventRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=gamer_repository_mock.go github.com/besf/portal/internal/core GamerRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=activity_repository_mock.go github.com/besf/portal/internal/core ActivityRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=stats_repository_mock.go github.com/besf/portal/internal/core StatsRepository

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/violation-service/internal/config"
	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/events"
	"github.com/spec-kit/violation-service/internal/repository"
	"github.com/spec-kit/violation-service/internal/repository/memory"
	"github.com/spec-kit/violation-service/internal/storage"
)

// tickingClock advances one second per call so creation order is observable.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickingClock() *tickingClock {
	return &tickingClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	repos    repository.Set
	clock    *tickingClock
	uploader *storage.BlobUploader
	inbox    *MemoryInbox

	users    *UserService
	cases    *CaseService
	queries  *QueryService
	payments *PaymentService
	stats    *StatsService
	auth     *AuthService

	superAdmin *domain.User
	admin      *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.NewRepositories(memory.NewStore())
	clock := newTickingClock()
	dispatcher := events.NewInMemoryDispatcher(nil)
	inbox := NewMemoryInbox(20)
	NewNotificationService(inbox, nil).RegisterHandlers(dispatcher)

	uploader := storage.NewBlobUploader(memblob.OpenBucket(nil), "/files", 1024)
	t.Cleanup(func() { _ = uploader.Close() })

	f := &fixture{repos: repos, clock: clock, uploader: uploader, inbox: inbox}
	f.users = NewUserService(UserDependencies{
		UserRepo:   repos.Users,
		CaseRepo:   repos.Cases,
		Dispatcher: dispatcher,
		BcryptCost: bcrypt.MinCost,
		Clock:      clock.Now,
	})
	f.cases = NewCaseService(CaseDependencies{
		CaseRepo:   repos.Cases,
		UserRepo:   repos.Users,
		Dispatcher: dispatcher,
		Clock:      clock.Now,
	})
	f.queries = NewQueryService(QueryDependencies{
		QueryRepo:      repos.Queries,
		ResponseRepo:   repos.Responses,
		AttachmentRepo: repos.Attachments,
		UserRepo:       repos.Users,
		CaseRepo:       repos.Cases,
		Uploader:       uploader,
		Dispatcher:     dispatcher,
		Clock:          clock.Now,
	})
	f.payments = NewPaymentService(PaymentDependencies{
		PaymentRepo: repos.Payments,
		CaseRepo:    repos.Cases,
		Dispatcher:  dispatcher,
		Currency:    "usd",
		Clock:       clock.Now,
	})
	f.stats = NewStatsService(StatsDependencies{
		UserRepo:  repos.Users,
		CaseRepo:  repos.Cases,
		QueryRepo: repos.Queries,
		Clock:     clock.Now,
	})
	f.auth = NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 30,
		BcryptCost:            bcrypt.MinCost,
	}, AuthDependencies{UserRepo: repos.Users, UserService: f.users})

	ctx := context.Background()
	superAdmin, err := f.auth.EnsureSuperAdmin(ctx, "Root", "root@example.com", "rootpass")
	require.NoError(t, err)
	f.superAdmin = superAdmin
	admin, err := f.users.Create(ctx, superAdmin, UserCreateInput{
		Name: "Desk Admin", Email: "admin@example.com", Password: "adminpass", Role: domain.UserRoleAdmin,
	})
	require.NoError(t, err)
	f.admin = admin
	return f
}

func (f *fixture) citizen(t *testing.T, name, email string, plate *string) *domain.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), nil, UserCreateInput{
		Name: name, Email: email, Password: "secret1", NumberPlate: plate,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) violation(t *testing.T, userID string, fine float64) *domain.Case {
	t.Helper()
	c, err := f.cases.Create(context.Background(), f.admin, CaseCreateInput{
		UserID:        userID,
		ViolationType: domain.ViolationSpeeding,
		Violation:     "Speeding 80 in a 50 zone",
		Fine:          fine,
		ProofURL:      "https://cdn.example.com/proof.jpg",
		Location:      "Main Street",
		Date:          "2026-03-01T10:00:00Z",
	})
	require.NoError(t, err)
	return c
}

func ptr[T any](v T) *T { return &v }

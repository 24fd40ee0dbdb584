package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gocloud.dev/blob/memblob"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/violation-service/internal/api/http/handlers"
	"github.com/spec-kit/violation-service/internal/auth"
	"github.com/spec-kit/violation-service/internal/config"
	"github.com/spec-kit/violation-service/internal/events"
	"github.com/spec-kit/violation-service/internal/observability"
	"github.com/spec-kit/violation-service/internal/repository/memory"
	"github.com/spec-kit/violation-service/internal/service"
	"github.com/spec-kit/violation-service/internal/storage"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details map[string]any  `json:"details"`
}

type testServer struct {
	app        *fiber.App
	adminToken string
}

func newTestServer(t *testing.T, limiter *RateLimiter) *testServer {
	t.Helper()
	logger := zap.NewNop()
	repos := memory.NewRepositories(memory.NewStore())
	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics := observability.NewMetrics("test")

	blobs := storage.NewBlobUploader(memblob.OpenBucket(nil), "/files", 1024)
	t.Cleanup(func() { _ = blobs.Close() })

	users := service.NewUserService(service.UserDependencies{
		UserRepo: repos.Users, CaseRepo: repos.Cases, Dispatcher: dispatcher, Logger: logger, BcryptCost: bcrypt.MinCost,
	})
	cases := service.NewCaseService(service.CaseDependencies{
		CaseRepo: repos.Cases, UserRepo: repos.Users, Dispatcher: dispatcher, Logger: logger,
	})
	queries := service.NewQueryService(service.QueryDependencies{
		QueryRepo: repos.Queries, ResponseRepo: repos.Responses, AttachmentRepo: repos.Attachments,
		UserRepo: repos.Users, CaseRepo: repos.Cases, Uploader: blobs, Dispatcher: dispatcher, Logger: logger,
	})
	payments := service.NewPaymentService(service.PaymentDependencies{
		PaymentRepo: repos.Payments, CaseRepo: repos.Cases, Dispatcher: dispatcher, Logger: logger,
	})
	stats := service.NewStatsService(service.StatsDependencies{
		UserRepo: repos.Users, CaseRepo: repos.Cases, QueryRepo: repos.Queries,
	})
	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret: "test-secret", AccessTokenTTLMinutes: 30, BcryptCost: bcrypt.MinCost,
	}, service.AuthDependencies{UserRepo: repos.Users, UserService: users, Logger: logger})
	notifications := service.NewNotificationService(service.NewMemoryInbox(10), logger)
	notifications.RegisterHandlers(dispatcher)

	_, err := authService.EnsureSuperAdmin(context.Background(), "Root", "root@example.com", "rootpass")
	require.NoError(t, err)

	if limiter == nil {
		limiter = NewRateLimiter(1000, 1000)
	}
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("violation-service", "test", map[string]handlers.Pinger{"postgres": nil}),
		Auth:   handlers.NewAuthHandler(authService),
		Me: handlers.NewMeHandler(handlers.MeDependencies{
			Users: users, Cases: cases, Queries: queries, Payments: payments, Stats: stats, Notifications: notifications,
		}),
		AdminUsers:     handlers.NewAdminUsersHandler(users),
		AdminCases:     handlers.NewAdminCasesHandler(cases, payments),
		AdminQueries:   handlers.NewAdminQueriesHandler(queries),
		Stats:          handlers.NewStatsHandler(stats),
		Files:          handlers.NewFilesHandler(blobs),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), repos.Users),
		RateLimiter:    limiter,
		Metrics:        metrics,
	})

	s := &testServer{app: app}
	status, env := s.do(t, fiber.MethodPost, "/auth/login", "", map[string]any{"email": "root@example.com", "password": "rootpass"})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	s.adminToken = tokenFrom(t, env)
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *nethttp.Request, token string) (int, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &env))
	} else {
		env.Data = raw
	}
	return resp.StatusCode, env
}

func (s *testServer) register(t *testing.T, name, email string) (string, string) {
	t.Helper()
	status, env := s.do(t, fiber.MethodPost, "/auth/register", "", map[string]any{
		"name": name, "email": email, "password": "secret1",
	})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	var res struct {
		User  struct{ ID string } `json:"user"`
		Token string              `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res.User.ID, res.Token
}

func (s *testServer) createCase(t *testing.T, userID string, fine float64) string {
	t.Helper()
	status, env := s.do(t, fiber.MethodPost, "/admin/cases", s.adminToken, map[string]any{
		"userId":        userID,
		"violationType": "speeding",
		"violation":     "Speeding 80 in a 50 zone",
		"fine":          fine,
		"proofUrl":      "https://cdn.example.com/p.jpg",
		"location":      "Main Street",
		"date":          "2026-03-01",
	})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	return idFrom(t, env)
}

func tokenFrom(t *testing.T, env envelope) string {
	t.Helper()
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func idFrom(t *testing.T, env envelope) string {
	t.Helper()
	var res struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(t, res.ID)
	return res.ID
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

type page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	status, env := s.do(t, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Success)

	status, env = s.do(t, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"postgres":"disabled"`)

	status, env = s.do(t, fiber.MethodGet, "/metrics", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), "test_http_requests_total")
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.register(t, "Ann Lee", "ann@x.com")

	status, env := s.do(t, fiber.MethodPost, "/auth/register", "", map[string]any{
		"name": "Ann Again", "email": "ANN@x.com", "password": "secret1",
	})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.False(t, env.Success)
	assert.Equal(t, "CONFLICT", env.Code)

	status, env = s.do(t, fiber.MethodPost, "/auth/register", "", map[string]any{"name": "A", "email": "bad", "password": "1"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Code)

	status, _ = s.do(t, fiber.MethodPost, "/auth/login", "", map[string]any{"email": "ann@x.com", "password": "wrong1"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, env = s.do(t, fiber.MethodGet, "/me", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"email":"ann@x.com"`)

	status, _ = s.do(t, fiber.MethodGet, "/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	status, _ = s.do(t, fiber.MethodGet, "/admin/users", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do(t, fiber.MethodPost, "/me/password", token, map[string]any{"currentPassword": "secret1", "newPassword": "secret2"})
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = s.do(t, fiber.MethodPost, "/auth/login", "", map[string]any{"email": "ann@x.com", "password": "secret2"})
	assert.Equal(t, fiber.StatusOK, status)
}

func TestViolationLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	annID, annToken := s.register(t, "Ann Lee", "ann@x.com")
	first := s.createCase(t, annID, 120)
	second := s.createCase(t, annID, 40)

	status, env := s.do(t, fiber.MethodGet, "/me/cases?limit=1", annToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	listed := decode[page[struct{ ID string }]](t, env)
	assert.Equal(t, 2, listed.Total)
	assert.Equal(t, 2, listed.TotalPages)
	assert.Len(t, listed.Data, 1)

	status, env = s.do(t, fiber.MethodPost, "/me/cases/"+first+"/pay", annToken, map[string]any{"amount": 100, "method": "card"})
	assert.Equal(t, fiber.StatusBadRequest, status, env.Error)
	status, env = s.do(t, fiber.MethodPost, "/me/cases/"+first+"/pay", annToken, map[string]any{"amount": 120, "method": "card", "last4": "4242"})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	status, _ = s.do(t, fiber.MethodPost, "/me/cases/"+first+"/pay", annToken, map[string]any{"amount": 120, "method": "card"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, env = s.do(t, fiber.MethodGet, "/me/stats", annToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	stats := decode[struct {
		Violations struct {
			ViolationCount   int     `json:"violationCount"`
			OutstandingFines float64 `json:"outstandingFines"`
			PaidFines        float64 `json:"paidFines"`
		} `json:"violations"`
	}](t, env)
	assert.Equal(t, 2, stats.Violations.ViolationCount)
	assert.InDelta(t, 40, stats.Violations.OutstandingFines, 0.001)
	assert.InDelta(t, 120, stats.Violations.PaidFines, 0.001)

	status, env = s.do(t, fiber.MethodGet, "/admin/payments", s.adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, decode[page[json.RawMessage]](t, env).Total)

	status, env = s.do(t, fiber.MethodDelete, "/admin/users/"+annID, s.adminToken, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Cannot delete user with outstanding violations", env.Error)
	assert.EqualValues(t, 1, env.Details["outstandingViolations"])

	status, env = s.do(t, fiber.MethodPost, "/me/cases/"+second+"/dispute", annToken, map[string]any{"reason": "not my car"})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	assert.Contains(t, string(env.Data), `"status":"disputed"`)

	status, env = s.do(t, fiber.MethodPost, "/me/cases/"+second+"/pay", annToken, map[string]any{"amount": 40, "method": "cash"})
	require.Equal(t, fiber.StatusCreated, status, env.Error)

	status, env = s.do(t, fiber.MethodGet, "/admin/users?hasOutstandingFines=false", s.adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), annID)

	status, _ = s.do(t, fiber.MethodDelete, "/admin/users/"+annID, s.adminToken, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env = s.do(t, fiber.MethodGet, "/admin/cases/"+first, s.adminToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestBulkCaseStatus(t *testing.T) {
	s := newTestServer(t, nil)
	annID, _ := s.register(t, "Ann Lee", "ann@x.com")
	pending := s.createCase(t, annID, 60)

	status, env := s.do(t, fiber.MethodPost, "/admin/cases/bulk-status", s.adminToken, map[string]any{
		"caseIds": []string{pending, "case_missing"}, "status": "cancelled",
	})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	bulk := decode[service.BulkResult](t, env)
	assert.Equal(t, 2, bulk.Requested)
	assert.Equal(t, 1, bulk.Updated)
	assert.Contains(t, bulk.Failed, "case_missing")

	status, env = s.do(t, fiber.MethodPatch, "/admin/cases/"+pending, s.adminToken, map[string]any{"status": "pending"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Invalid status transition", env.Error)

	status, env = s.do(t, fiber.MethodPost, "/admin/cases/bulk-status", s.adminToken, map[string]any{"caseIds": []string{}, "status": "paid"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Code)
}

func TestQueryDesk(t *testing.T) {
	s := newTestServer(t, nil)
	_, annToken := s.register(t, "Ann Lee", "ann@x.com")
	_, bobToken := s.register(t, "Bob Ray", "bob@x.com")

	status, env := s.do(t, fiber.MethodPost, "/me/queries", annToken, map[string]any{
		"subject": "Double charge", "message": "I was charged twice for one fine", "category": "payment_issues",
	})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	queryID := idFrom(t, env)

	status, _ = s.do(t, fiber.MethodGet, "/me/queries/"+queryID, bobToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, env = s.do(t, fiber.MethodPost, "/admin/queries/"+queryID+"/responses", s.adminToken, map[string]any{
		"message": "Refund issued", "internalNotes": "ticket 42", "markAsResolved": true,
	})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	assert.Contains(t, string(env.Data), "ticket 42")

	status, env = s.do(t, fiber.MethodGet, "/me/queries/"+queryID, annToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"status":"resolved"`)
	assert.NotContains(t, string(env.Data), "ticket 42")

	status, env = s.do(t, fiber.MethodGet, "/me/notifications", annToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), "New response to your query")

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	require.NoError(t, mw.WriteField("queryId", queryID))
	part, err := mw.CreateFormFile("file", "receipt.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("paid twice"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(fiber.MethodPost, "/me/attachments", &form)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	status, env = s.send(t, req, annToken)
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	attachment := decode[struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}](t, env)

	status, env = s.do(t, fiber.MethodGet, attachment.URL, "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "paid twice", string(env.Data))

	status, env = s.do(t, fiber.MethodPost, "/admin/queries/bulk-status", s.adminToken, map[string]any{"queryIds": []string{queryID}, "status": "closed"})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	assert.Equal(t, 1, decode[service.BulkResult](t, env).Updated)

	status, _ = s.do(t, fiber.MethodDelete, "/admin/queries/"+queryID, s.adminToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = s.do(t, fiber.MethodGet, attachment.URL, "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAdminStats(t *testing.T) {
	s := newTestServer(t, nil)
	annID, _ := s.register(t, "Ann Lee", "ann@x.com")
	s.createCase(t, annID, 75)

	status, env := s.do(t, fiber.MethodGet, "/admin/stats", s.adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	dash := decode[struct {
		Users struct {
			TotalUsers int `json:"totalUsers"`
		} `json:"users"`
		Cases struct {
			OutstandingFines float64 `json:"outstandingFines"`
		} `json:"cases"`
	}](t, env)
	assert.Equal(t, 2, dash.Users.TotalUsers)
	assert.InDelta(t, 75, dash.Cases.OutstandingFines, 0.001)

	status, _ = s.do(t, fiber.MethodGet, "/admin/stats/queries", s.adminToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, NewRateLimiter(0.001, 2))

	status, _ := s.do(t, fiber.MethodPost, "/auth/login", "", map[string]any{"email": "root@example.com", "password": "nope"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, env := s.do(t, fiber.MethodPost, "/auth/login", "", map[string]any{"email": "root@example.com", "password": "nope"})
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMITED", env.Code)
}

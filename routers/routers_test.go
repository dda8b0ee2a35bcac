package routers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shams/config"
	"shams/database"
	"shams/middleware"
	"shams/models"
	"shams/repository"
	"shams/repository/repotest"
	"shams/services/account"
	"shams/services/assessment"
	"shams/services/assistant"
	"shams/services/course"
	"shams/services/library"
	"shams/services/notification"
	"shams/services/payment"
	"shams/utils/cache"
	"shams/utils/logger"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	app   *fiber.App
	repos *repository.Repos
	cfg   *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Nop()
	repos := repository.New(database.OpenTest(t), log)
	cfg := &config.Config{
		JWTKey:               "test-secret",
		JWTAccessTTL:         time.Hour,
		JWTRefreshTTL:        2 * time.Hour,
		SaltRound:            bcrypt.MinCost,
		FrontendURL:          "http://front.test",
		PaymentWebhookSecret: "hook-secret",
		AIDailyLimit:         2,
	}
	notify := notification.NewService(repos, log)
	courses := course.NewService(repos, notify, log)
	svc := Services{
		Accounts:      account.NewService(repos, notify, cache.Nop{}, cfg, log),
		Courses:       courses,
		Tests:         assessment.NewService(repos, notify, log),
		Books:         library.NewService(repos, log),
		Payments:      payment.NewService(repos, courses, notify, payment.NewSandbox(cfg.FrontendURL), log),
		Notifications: notify,
		Assistant:     assistant.NewService(repos, assistant.NewOpenAIClient(cfg, log), cache.Nop{}, cfg.AIDailyLimit, log),
	}
	app := fiber.New()
	Setup(app, cfg, repos, svc, log)
	return &testServer{app: app, repos: repos, cfg: cfg}
}

func (s *testServer) token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := middleware.GenerateJWT(s.cfg, u, middleware.TokenTypeAccess)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestHealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Status)

	code, env = s.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Status)
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/auth/register", "", fiber.Map{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, _ = s.do(t, http.MethodPost, "/auth/login", "", fiber.Map{"email": "alice@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, code, "unverified account")

	var tok models.EmailVerificationToken
	require.NoError(t, s.repos.DB.First(&tok).Error)
	code, _ = s.do(t, http.MethodPost, "/auth/verify-email", "", fiber.Map{"token": tok.Token})
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, "/auth/login", "", fiber.Map{"email": "alice@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, code)
	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tokens))
	require.NotEmpty(t, tokens.Access)
	require.NotEmpty(t, tokens.Refresh)

	code, env = s.do(t, http.MethodGet, "/profile", tokens.Access, nil)
	require.Equal(t, http.StatusOK, code)
	var profile models.User
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "alice", profile.Username)

	code, _ = s.do(t, http.MethodGet, "/profile", tokens.Refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, code, "refresh tokens are not access tokens")

	code, env = s.do(t, http.MethodPost, "/auth/refresh", "", fiber.Map{"refresh_token": tokens.Refresh})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "access")
}

func TestRegisterValidationErrors(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/auth/register", "", fiber.Map{"email": "bad"})
	assert.Equal(t, http.StatusBadRequest, code)
	var fields map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &fields))
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestAuthenticationGuards(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodGet, "/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodGet, "/courses", "", nil)
	assert.Equal(t, http.StatusOK, code, "catalog is public")

	code, _ = s.do(t, http.MethodGet, "/courses", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code, "a bad token is rejected even on public routes")
}

func TestStaffOnlyRoutes(t *testing.T) {
	s := newTestServer(t)
	user := repotest.SeedUser(t, s.repos.DB, "student")
	staff := repotest.SeedStaff(t, s.repos.DB, "instructor")
	body := fiber.Map{"title": "Robots 101", "category": "robotics", "level": "beginner", "price": 0}

	code, _ := s.do(t, http.MethodPost, "/courses", s.token(t, user), body)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(t, http.MethodPost, "/courses", s.token(t, staff), body)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var created models.Course
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.True(t, created.IsActive)

	code, _ = s.do(t, http.MethodGet, fmt.Sprintf("/courses/%d", created.ID), "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPost, fmt.Sprintf("/courses/%d/enroll", created.ID), s.token(t, user), nil)
	assert.Equal(t, http.StatusCreated, code)
}

func TestSubmitTestOverHTTP(t *testing.T) {
	s := newTestServer(t)
	user := repotest.SeedUser(t, s.repos.DB, "taker")
	test, qs := repotest.SeedTest(t, s.repos.DB, 2)
	path := fmt.Sprintf("/tests/%d/submit", test.ID)
	body := fiber.Map{
		"answers": []fiber.Map{
			{"question_id": qs[0].ID, "selected_option": "A"},
			{"question_id": qs[1].ID, "selected_option": "B"},
		},
		"time_spent": 40,
	}

	code, env := s.do(t, http.MethodPost, path, s.token(t, user), body)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var result assessment.ResultView
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 50, result.Score)
	assert.Equal(t, 1, result.CorrectAnswers)

	code, _ = s.do(t, http.MethodPost, path, s.token(t, user), body)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodGet, "/tests/results", s.token(t, user), nil)
	assert.Equal(t, http.StatusOK, code, "results listing is not shadowed by /tests/:id")

	code, env = s.do(t, http.MethodPost, path, s.token(t, user), fiber.Map{"answers": []fiber.Map{}})
	assert.Equal(t, http.StatusConflict, code, env.Message)

	newcomer := repotest.SeedUser(t, s.repos.DB, "newcomer")
	code, env = s.do(t, http.MethodPost, path, s.token(t, newcomer), fiber.Map{"answers": []fiber.Map{}})
	assert.Equal(t, http.StatusBadRequest, code, env.Message)
}

func TestBooksMineAndDownloadGuard(t *testing.T) {
	s := newTestServer(t)
	user := repotest.SeedUser(t, s.repos.DB, "reader")
	paid := repotest.SeedBook(t, s.repos.DB, models.BookStatusPaid, 100, 0)

	code, _ := s.do(t, http.MethodGet, "/books/mine", s.token(t, user), nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPost, fmt.Sprintf("/books/%d/download", paid.ID), s.token(t, user), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodGet, "/books/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPaymentWebhookNeedsSecret(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPost, "/payments/1/webhook", "", fiber.Map{"status": "completed"})
	assert.Equal(t, http.StatusUnauthorized, code)

	req := httptest.NewRequest(http.MethodPost, "/payments/999/webhook", bytes.NewReader([]byte(`{"status":"completed"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Secret", "hook-secret")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotificationsUnreadCount(t *testing.T) {
	s := newTestServer(t)
	user := repotest.SeedUser(t, s.repos.DB, "noticed")

	code, env := s.do(t, http.MethodGet, "/notifications/unread_count", s.token(t, user), nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"count":0}`, string(env.Data))

	code, _ = s.do(t, http.MethodPost, "/notifications/12345/mark_as_read", s.token(t, user), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAssistantWithoutProvider(t *testing.T) {
	s := newTestServer(t)
	user := repotest.SeedUser(t, s.repos.DB, "asker")
	tok := s.token(t, user)

	code, env := s.do(t, http.MethodPost, "/assistant/conversations", tok, fiber.Map{"title": "Help"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var conv models.Conversation
	require.NoError(t, json.Unmarshal(env.Data, &conv))

	code, _ = s.do(t, http.MethodPost, fmt.Sprintf("/assistant/conversations/%d/messages", conv.ID), tok, fiber.Map{"text": "What is a robot?"})
	assert.Equal(t, http.StatusBadGateway, code)

	code, env = s.do(t, http.MethodGet, "/assistant/quota", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"limit":2,"used":1,"remaining":1}`, string(env.Data))
}

package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/npezzotti/teamchat/internal/chat"
	"github.com/npezzotti/teamchat/internal/config"
	"github.com/npezzotti/teamchat/internal/database"
	"github.com/npezzotti/teamchat/internal/server"
	"github.com/npezzotti/teamchat/internal/stats"
	"github.com/npezzotti/teamchat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func newTestApp(t *testing.T, db database.TeamChatRepository) *TeamChatApp {
	t.Helper()

	cfg, err := config.NewConfig("localhost:8000", "dsn", "c29tZV9zZWNyZXQ=", []string{"http://localhost:3000"})
	assert.NoError(t, err)

	logger := testutil.TestLogger(t)

	mockStats := &stats.MockStatsUpdater{}
	mockStats.On("RegisterMetric", mock.AnythingOfType("string")).Return()

	hub := server.NewHub(logger, mockStats)
	chatSvc := chat.NewService(logger, db, hub, nil)

	return NewTeamChatApp(http.NewServeMux(), logger, hub, chatSvc, db, cfg)
}

func uniqueViolationErr() error {
	return &pq.Error{Code: "23505"}
}

func mustHash(t *testing.T, passwd string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(h)
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	assert.NoError(t, json.NewEncoder(&buf).Encode(v))
	return &buf
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := hashPassword("s3cretpass")
	assert.NoError(t, err)
	assert.True(t, verifyPassword(hash, "s3cretpass"))
	assert.False(t, verifyPassword(hash, "wrong"))
}

func TestJwtRoundTrip(t *testing.T) {
	app := newTestApp(t, &database.MockTeamChatRepository{})

	token, err := app.createJwtForSession(42, time.Hour)
	assert.NoError(t, err)

	userId, err := app.extractUserIdFromToken(token)
	assert.NoError(t, err)
	assert.Equal(t, 42, userId)
}

func TestExtractUserIdFromToken_Invalid(t *testing.T) {
	app := newTestApp(t, &database.MockTeamChatRepository{})

	_, err := app.extractUserIdFromToken("not-a-token")
	assert.Error(t, err)
}

func TestCreateAccount(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("CreateAccount", mock.MatchedBy(func(p database.CreateAccountParams) bool {
		return p.AccountName == "acme" && p.UserName == "alice" &&
			p.EmailAddress == "alice@example.com" &&
			p.PasswordHash != "" && p.GeneralRoomExternalId != ""
	})).Return(
		database.Account{Id: 1, Name: "acme"},
		database.User{Id: 1, AccountId: 1, Name: "alice", EmailAddress: "alice@example.com"},
		nil,
	)

	app := newTestApp(t, mockDb)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, RegisterRequest{
		AccountName: "acme",
		Name:        "alice",
		Email:       " Alice@Example.com ",
		Password:    "s3cretpass",
	}))
	rec := httptest.NewRecorder()
	app.createAccount(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	mockDb.AssertExpectations(t)
}

func TestCreateAccount_Validation(t *testing.T) {
	tt := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing account name", RegisterRequest{Name: "alice", Email: "a@b.com", Password: "s3cretpass"}},
		{"bad email", RegisterRequest{AccountName: "acme", Name: "alice", Email: "nope", Password: "s3cretpass"}},
		{"short password", RegisterRequest{AccountName: "acme", Name: "alice", Email: "a@b.com", Password: "short"}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, &database.MockTeamChatRepository{})
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, tc.req))
			rec := httptest.NewRecorder()
			app.createAccount(rec, req)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("CreateAccount", mock.Anything).Return(database.Account{}, database.User{}, uniqueViolationErr())

	app := newTestApp(t, mockDb)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, RegisterRequest{
		AccountName: "acme", Name: "alice", Email: "alice@example.com", Password: "s3cretpass",
	}))
	rec := httptest.NewRecorder()
	app.createAccount(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	mockDb.AssertExpectations(t)
}

func TestLogin(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserByEmail", "alice@example.com").Return(database.User{
		Id: 1, AccountId: 1, Name: "alice", EmailAddress: "alice@example.com",
		PasswordHash: mustHash(t, "s3cretpass"),
	}, nil)

	app := newTestApp(t, mockDb)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, LoginRequest{
		Email: "Alice@Example.com", Password: "s3cretpass",
	}))
	rec := httptest.NewRecorder()
	app.login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	assert.Len(t, cookies, 1)
	assert.Equal(t, tokenCookieKey, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	mockDb.AssertExpectations(t)
}

func TestLogin_WrongPasswordRecordsAttempt(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserByEmail", "alice@example.com").Return(database.User{
		Id: 1, PasswordHash: mustHash(t, "s3cretpass"), FailedLoginAttempts: 1,
	}, nil)
	mockDb.On("RecordFailedLogin", 1, mock.AnythingOfType("time.Time"), false).Return(nil)

	app := newTestApp(t, mockDb)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, LoginRequest{
		Email: "alice@example.com", Password: "wrong",
	}))
	rec := httptest.NewRecorder()
	app.login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	mockDb.AssertExpectations(t)
}

func TestLogin_FifthFailureLocksAccount(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserByEmail", "alice@example.com").Return(database.User{
		Id: 1, PasswordHash: mustHash(t, "s3cretpass"), FailedLoginAttempts: 4,
	}, nil)
	mockDb.On("RecordFailedLogin", 1, mock.AnythingOfType("time.Time"), true).Return(nil)

	app := newTestApp(t, mockDb)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, LoginRequest{
		Email: "alice@example.com", Password: "wrong",
	}))
	rec := httptest.NewRecorder()
	app.login(rec, req)

	assert.Equal(t, http.StatusLocked, rec.Code)
	mockDb.AssertExpectations(t)
}

func TestLogin_LockedAccount(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserByEmail", "alice@example.com").Return(database.User{
		Id: 1, PasswordHash: mustHash(t, "s3cretpass"),
		FailedLoginAttempts: 5,
		LockedAt:            sql.NullTime{Time: time.Now().Add(-time.Minute), Valid: true},
	}, nil)

	app := newTestApp(t, mockDb)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, LoginRequest{
		Email: "alice@example.com", Password: "s3cretpass",
	}))
	rec := httptest.NewRecorder()
	app.login(rec, req)

	assert.Equal(t, http.StatusLocked, rec.Code)
	mockDb.AssertExpectations(t)
}

func TestLogin_ExpiredLockAllowsLoginAndResets(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserByEmail", "alice@example.com").Return(database.User{
		Id: 1, PasswordHash: mustHash(t, "s3cretpass"),
		FailedLoginAttempts: 5,
		LockedAt:            sql.NullTime{Time: time.Now().Add(-time.Hour), Valid: true},
	}, nil)
	mockDb.On("ResetLoginAttempts", 1).Return(nil)

	app := newTestApp(t, mockDb)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, LoginRequest{
		Email: "alice@example.com", Password: "s3cretpass",
	}))
	rec := httptest.NewRecorder()
	app.login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockDb.AssertExpectations(t)
}

func TestLogin_UnknownEmail(t *testing.T) {
	mockDb := &database.MockTeamChatRepository{}
	mockDb.On("GetUserByEmail", "ghost@example.com").Return(database.User{}, sql.ErrNoRows)

	app := newTestApp(t, mockDb)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, LoginRequest{
		Email: "ghost@example.com", Password: "whatever",
	}))
	rec := httptest.NewRecorder()
	app.login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	mockDb.AssertExpectations(t)
}

func TestLogout_ExpiresCookie(t *testing.T) {
	app := newTestApp(t, &database.MockTeamChatRepository{})
	rec := httptest.NewRecorder()
	app.logout(rec, httptest.NewRequest(http.MethodGet, "/api/auth/logout", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	assert.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
}

func TestAuthMiddleware(t *testing.T) {
	app := newTestApp(t, &database.MockTeamChatRepository{})

	var gotUserId int
	handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		gotUserId, _ = UserId(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := app.createJwtForSession(42, time.Hour)
		assert.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: token})
		rec := httptest.NewRecorder()
		handler(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 42, gotUserId)
	})

	t.Run("missing cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: "garbage"})
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

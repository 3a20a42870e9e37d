package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/auth"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/domain/user"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/http/handlers"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/http/middlewares"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type fakeDirectory struct {
	getByUsernameFn func(ctx context.Context, username string) (user.User, error)
	getByEmailFn    func(ctx context.Context, email string) (user.User, error)
	getByIDFn       func(ctx context.Context, id string) (user.User, error)
	createFn        func(ctx context.Context, username, email, passwordHash string) (user.User, error)
}

func (f *fakeDirectory) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return f.getByUsernameFn(ctx, username)
}

func (f *fakeDirectory) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return f.getByEmailFn(ctx, email)
}

func (f *fakeDirectory) GetByID(ctx context.Context, id string) (user.User, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakeDirectory) Create(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	return f.createFn(ctx, username, email, passwordHash)
}

type fakeIssuer struct {
	generateFn func(userID string) (string, error)
}

func (f *fakeIssuer) GenerateAccessToken(userID string) (string, error) {
	return f.generateFn(userID)
}

type staticVerifier struct {
	claims *auth.Claims
	err    error
}

func (s *staticVerifier) VerifyAccessToken(string) (*auth.Claims, error) {
	return s.claims, s.err
}

func notFoundDirectory() *fakeDirectory {
	return &fakeDirectory{
		getByUsernameFn: func(context.Context, string) (user.User, error) {
			return user.User{}, user.ErrNotFound
		},
		getByEmailFn: func(context.Context, string) (user.User, error) {
			return user.User{}, user.ErrNotFound
		},
		getByIDFn: func(context.Context, string) (user.User, error) {
			return user.User{}, user.ErrNotFound
		},
		createFn: func(_ context.Context, username, email, hash string) (user.User, error) {
			return user.User{ID: "new-id", Username: username, Email: email, PasswordHash: hash}, nil
		},
	}
}

func authRouter(dir handlers.UserDirectory, issuer handlers.TokenIssuer, verifier middlewares.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()

	h := handlers.NewAuthHandler(dir, issuer)

	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	if verifier != nil {
		mw := middlewares.NewAuthMiddleware(verifier)
		r.GET("/auth/me", mw.RequireAuth(), h.Me)
	}

	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func postForm(t *testing.T, r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}

	return body.Error.Code
}

func TestRegisterSuccess(t *testing.T) {
	r := authRouter(notFoundDirectory(), nil, nil)

	w := postJSON(t, r, "/auth/register", `{"username":"alice","email":"alice@x.com","password":"pw12345"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", w.Code, w.Body.String())
	}

	var got map[string]interface{}

	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got["username"] != "alice" || got["email"] != "alice@x.com" {
		t.Errorf("unexpected body %v", got)
	}

	// password material never leaves the server
	raw := w.Body.String()

	if strings.Contains(raw, "pw12345") || strings.Contains(strings.ToLower(raw), "password") {
		t.Errorf("response leaks password material: %s", raw)
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	dir := notFoundDirectory()

	var storedHash string

	dir.createFn = func(_ context.Context, username, email, hash string) (user.User, error) {
		storedHash = hash
		return user.User{ID: "new-id", Username: username, Email: email}, nil
	}

	r := authRouter(dir, nil, nil)

	w := postJSON(t, r, "/auth/register", `{"username":"alice","email":"alice@x.com","password":"pw12345"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}

	if storedHash == "" || storedHash == "pw12345" {
		t.Fatalf("password stored without hashing: %q", storedHash)
	}

	if err := security.CheckPassword(storedHash, "pw12345"); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegisterUsernameConflictWinsOverEmail(t *testing.T) {
	dir := notFoundDirectory()

	// both the username and the email are taken
	dir.getByUsernameFn = func(context.Context, string) (user.User, error) {
		return user.User{ID: "u1"}, nil
	}
	dir.getByEmailFn = func(context.Context, string) (user.User, error) {
		return user.User{ID: "u2"}, nil
	}

	r := authRouter(dir, nil, nil)

	w := postJSON(t, r, "/auth/register", `{"username":"alice","email":"alice@x.com","password":"pw12345"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("got status %d, want 409", w.Code)
	}

	if code := errorCode(t, w); code != "username_taken" {
		t.Fatalf("got code %q, want username_taken", code)
	}
}

func TestRegisterEmailConflict(t *testing.T) {
	dir := notFoundDirectory()

	dir.getByEmailFn = func(context.Context, string) (user.User, error) {
		return user.User{ID: "u2"}, nil
	}

	r := authRouter(dir, nil, nil)

	w := postJSON(t, r, "/auth/register", `{"username":"alice","email":"alice@x.com","password":"pw12345"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("got status %d, want 409", w.Code)
	}

	if code := errorCode(t, w); code != "email_in_use" {
		t.Fatalf("got code %q, want email_in_use", code)
	}
}

func TestRegisterConflictOnCreateRace(t *testing.T) {
	dir := notFoundDirectory()

	dir.createFn = func(context.Context, string, string, string) (user.User, error) {
		return user.User{}, user.ErrUsernameTaken
	}

	r := authRouter(dir, nil, nil)

	w := postJSON(t, r, "/auth/register", `{"username":"alice","email":"alice@x.com","password":"pw12345"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("got status %d, want 409", w.Code)
	}

	if code := errorCode(t, w); code != "username_taken" {
		t.Fatalf("got code %q, want username_taken", code)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing username", `{"email":"alice@x.com","password":"pw12345"}`},
		{"short username", `{"username":"ab","email":"alice@x.com","password":"pw12345"}`},
		{"bad email", `{"username":"alice","email":"not-an-email","password":"pw12345"}`},
		{"short password", `{"username":"alice","email":"alice@x.com","password":"pw"}`},
		{"broken json", `{"username":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := authRouter(notFoundDirectory(), nil, nil)

			w := postJSON(t, r, "/auth/register", tt.body)

			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("got status %d, want 422: %s", w.Code, w.Body.String())
			}

			if code := errorCode(t, w); code != "validation_error" {
				t.Fatalf("got code %q, want validation_error", code)
			}
		})
	}
}

func loginDirectory(t *testing.T) *fakeDirectory {
	t.Helper()

	hash, err := security.HashPassword("pw12345")

	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	byUsername := user.User{ID: "user-by-name", Username: "alice", Email: "alice@x.com", PasswordHash: hash}
	byEmail := user.User{ID: "user-by-email", Username: "someone", Email: "alice", PasswordHash: hash}

	dir := notFoundDirectory()

	dir.getByUsernameFn = func(_ context.Context, username string) (user.User, error) {
		if username == "alice" {
			return byUsername, nil
		}
		return user.User{}, user.ErrNotFound
	}

	dir.getByEmailFn = func(_ context.Context, email string) (user.User, error) {
		switch email {
		case "alice":
			return byEmail, nil
		case "alice@x.com":
			return byUsername, nil
		}
		return user.User{}, user.ErrNotFound
	}

	return dir
}

func TestLoginByUsername(t *testing.T) {
	issuer := &fakeIssuer{generateFn: func(userID string) (string, error) {
		return "token-for-" + userID, nil
	}}

	r := authRouter(loginDirectory(t), issuer, nil)

	w := postForm(t, r, "/auth/login", url.Values{"username": {"alice"}, "password": {"pw12345"}})

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", w.Code, w.Body.String())
	}

	var got struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// the username match takes precedence over any email match
	if got.AccessToken != "token-for-user-by-name" {
		t.Errorf("got token %q, want token-for-user-by-name", got.AccessToken)
	}

	if got.TokenType != "bearer" {
		t.Errorf("got token_type %q, want bearer", got.TokenType)
	}
}

func TestLoginByEmailFallback(t *testing.T) {
	issuer := &fakeIssuer{generateFn: func(userID string) (string, error) {
		return "token-for-" + userID, nil
	}}

	r := authRouter(loginDirectory(t), issuer, nil)

	w := postForm(t, r, "/auth/login", url.Values{"username": {"alice@x.com"}, "password": {"pw12345"}})

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", w.Code, w.Body.String())
	}

	if !strings.Contains(w.Body.String(), "token-for-user-by-name") {
		t.Errorf("email login did not resolve the account: %s", w.Body.String())
	}
}

func TestLoginWrongPassword(t *testing.T) {
	r := authRouter(loginDirectory(t), nil, nil)

	w := postForm(t, r, "/auth/login", url.Values{"username": {"alice"}, "password": {"wrong"}})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", w.Code)
	}

	if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Errorf("got WWW-Authenticate %q, want Bearer", got)
	}

	if code := errorCode(t, w); code != "invalid_credentials" {
		t.Errorf("got code %q, want invalid_credentials", code)
	}
}

func TestLoginUnknownIdentifier(t *testing.T) {
	r := authRouter(loginDirectory(t), nil, nil)

	w := postForm(t, r, "/auth/login", url.Values{"username": {"nobody"}, "password": {"pw12345"}})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", w.Code)
	}
}

func TestLoginMissingFields(t *testing.T) {
	r := authRouter(loginDirectory(t), nil, nil)

	w := postForm(t, r, "/auth/login", url.Values{"username": {"alice"}})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got status %d, want 422: %s", w.Code, w.Body.String())
	}
}

func TestMeReturnsProfile(t *testing.T) {
	dir := notFoundDirectory()

	dir.getByIDFn = func(_ context.Context, id string) (user.User, error) {
		if id != "user-42" {
			return user.User{}, user.ErrNotFound
		}
		return user.User{ID: "user-42", Username: "alice", Email: "alice@x.com"}, nil
	}

	verifier := &staticVerifier{claims: &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-42"},
	}}

	r := authRouter(dir, nil, verifier)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer tok")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", w.Code, w.Body.String())
	}

	if !strings.Contains(w.Body.String(), `"username":"alice"`) {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestMeUnknownSubjectIsUnauthorized(t *testing.T) {
	verifier := &staticVerifier{claims: &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "deleted-user"},
	}}

	r := authRouter(notFoundDirectory(), nil, verifier)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer tok")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", w.Code)
	}
}

func TestMeRejectsBadToken(t *testing.T) {
	verifier := &staticVerifier{err: errors.New("bad token")}

	r := authRouter(notFoundDirectory(), nil, verifier)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer tok")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", w.Code)
	}
}

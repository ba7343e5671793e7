package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/njprem/password-reset-api/internal/domain"
	"github.com/njprem/password-reset-api/internal/repository/memory"
	"github.com/njprem/password-reset-api/internal/repository/ports"
	"github.com/njprem/password-reset-api/internal/service"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []domain.EmailMessage
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg domain.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func newTestServer(t *testing.T, mailer service.MailSender) (*echo.Echo, ports.UserRepository) {
	t.Helper()
	users := memory.NewUserRepo()
	svc := service.NewAuthService(users, mailer, service.AuthConfig{
		PasswordCost: bcrypt.MinCost,
		ResetTTL:     time.Hour,
		MailTimeout:  time.Second,
	}, nil)
	e := NewRouter([]string{"*"}, nil)
	RegisterAuth(e, svc, nil)
	return e, users
}

func doJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func expectMessage(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d (%s)", status, rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body) != 1 || body["message"] != message {
		t.Fatalf("expected only message %q, got %v", message, body)
	}
}

func TestPasswordResetScenario(t *testing.T) {
	e, users := newTestServer(t, &fakeMailer{})

	expectMessage(t, doJSON(e, "/register", `{"email":"alice@x.com","password":"p1"}`),
		http.StatusCreated, "User registered successfully!")
	expectMessage(t, doJSON(e, "/register", `{"email":"Alice@x.com","password":"p9"}`),
		http.StatusConflict, "User with this email already exists.")
	expectMessage(t, doJSON(e, "/login", `{"email":"alice@x.com","password":"p1"}`),
		http.StatusOK, "Login successful.")

	expectMessage(t, doJSON(e, "/forgot-password", `{"email":"alice@x.com"}`),
		http.StatusOK, "If a user with that email exists, a password reset link has been sent.")
	user, err := users.FindByEmail(context.Background(), "alice@x.com")
	if err != nil || user.ResetToken == nil {
		t.Fatalf("expected pending reset token, got %v", err)
	}
	token := *user.ResetToken

	expectMessage(t, doJSON(e, "/reset-password", `{"token":"`+token+`","newPassword":"p2"}`),
		http.StatusOK, "Your password has been successfully reset!")
	expectMessage(t, doJSON(e, "/login", `{"email":"alice@x.com","password":"p1"}`),
		http.StatusUnauthorized, "Invalid email or password.")
	expectMessage(t, doJSON(e, "/login", `{"email":"alice@x.com","password":"p2"}`),
		http.StatusOK, "Login successful.")
	expectMessage(t, doJSON(e, "/reset-password", `{"token":"`+token+`","newPassword":"p3"}`),
		http.StatusBadRequest, "Invalid or expired password reset token.")

	expectMessage(t, doJSON(e, "/api/change-password", `{"email":"alice@x.com","currentPassword":"p2","newPassword":"p4"}`),
		http.StatusOK, "Your password has been changed.")
	expectMessage(t, doJSON(e, "/api/login", `{"email":"alice@x.com","password":"p4"}`),
		http.StatusOK, "Login successful.")
	expectMessage(t, doJSON(e, "/change-password", `{"email":"alice@x.com","currentPassword":"p2","newPassword":"p5"}`),
		http.StatusUnauthorized, "Invalid email or password.")
}

func TestForgotPasswordResponseDoesNotRevealAccounts(t *testing.T) {
	mailer := &fakeMailer{}
	e, _ := newTestServer(t, mailer)
	doJSON(e, "/register", `{"email":"alice@x.com","password":"p1"}`)

	known := doJSON(e, "/forgot-password", `{"email":"alice@x.com"}`)
	unknown := doJSON(e, "/api/forgot-password", `{"email":"mallory@x.com"}`)

	if known.Code != unknown.Code {
		t.Fatalf("status differs: %d vs %d", known.Code, unknown.Code)
	}
	if known.Body.String() != unknown.Body.String() {
		t.Fatalf("body differs: %q vs %q", known.Body.String(), unknown.Body.String())
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To != "alice@x.com" {
		t.Fatalf("expected exactly one email to alice, got %+v", mailer.sent)
	}
	if strings.Contains(known.Body.String(), "token") {
		t.Fatal("response must not carry the token")
	}
}

func TestForgotPasswordMailFailures(t *testing.T) {
	t.Run("mailer not configured", func(t *testing.T) {
		e, _ := newTestServer(t, nil)
		doJSON(e, "/register", `{"email":"alice@x.com","password":"p1"}`)

		known := doJSON(e, "/forgot-password", `{"email":"alice@x.com"}`)
		unknown := doJSON(e, "/forgot-password", `{"email":"mallory@x.com"}`)
		expectMessage(t, known, http.StatusInternalServerError, "Email service is currently unavailable. Please try again later.")
		if known.Body.String() != unknown.Body.String() {
			t.Fatalf("body differs: %q vs %q", known.Body.String(), unknown.Body.String())
		}
	})

	t.Run("delivery fails", func(t *testing.T) {
		e, users := newTestServer(t, &fakeMailer{err: errors.New("smtp down")})
		doJSON(e, "/register", `{"email":"alice@x.com","password":"p1"}`)

		expectMessage(t, doJSON(e, "/forgot-password", `{"email":"alice@x.com"}`),
			http.StatusInternalServerError, "Email service is currently unavailable. Please try again later.")
		user, _ := users.FindByEmail(context.Background(), "alice@x.com")
		if user.HasPendingReset() {
			t.Fatal("expected token to be cleared after failed delivery")
		}
	})
}

func TestAuthValidation(t *testing.T) {
	e, _ := newTestServer(t, &fakeMailer{})

	cases := []struct {
		path string
		body string
		want string
	}{
		{path: "/register", body: `{"email":`, want: "Invalid request body."},
		{path: "/login", body: `not json`, want: "Invalid request body."},
		{path: "/register", body: `{"email":"nope","password":"p1"}`, want: "email is not a valid address"},
		{path: "/register", body: `{"email":"bob@x.com","password":""}`, want: "password cannot be empty"},
		{path: "/login", body: `{"email":"","password":"p1"}`, want: "email is required"},
		{path: "/forgot-password", body: `{"email":""}`, want: "email is required"},
		{path: "/reset-password", body: `{"token":"abc","newPassword":""}`, want: "password cannot be empty"},
		{path: "/reset-password", body: `{"token":"","newPassword":"p2"}`, want: "Invalid or expired password reset token."},
	}
	for _, tc := range cases {
		expectMessage(t, doJSON(e, tc.path, tc.body), http.StatusBadRequest, tc.want)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	e, _ := newTestServer(t, &fakeMailer{})
	doJSON(e, "/login", `{"email":"alice@x.com","password":"p1"}`)

	for _, path := range []string{"/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if rec.Header().Get(echo.HeaderXRequestID) == "" {
			t.Fatalf("%s: expected request id header", path)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), `password_reset_api_auth_operations_total{operation="login",outcome="unauthorized"}`) {
		t.Fatal("expected login outcome to be exported")
	}
}

func TestRegisterSwagger(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "swagger.yaml")
	if err := os.WriteFile(specPath, []byte("swagger: \"2.0\"\ninfo:\n  title: Password Reset API\n  version: \"1.0\"\npaths: {}\n"), 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}

	e := echo.New()
	RegisterSwagger(e, specPath, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("expected json document: %v", err)
	}
	if doc["swagger"] != "2.0" {
		t.Fatalf("unexpected document %v", doc)
	}

	missing := echo.New()
	RegisterSwagger(missing, filepath.Join(dir, "absent.yaml"), nil)
	rec = httptest.NewRecorder()
	missing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for missing spec, got %d", rec.Code)
	}
}

func TestSanitizeBodyRedactsSecrets(t *testing.T) {
	body := []byte(`{"email":"alice@x.com","password":"p1","newPassword":"p2","token":"abc","nested":{"resetToken":"def"}}`)
	got, ok := sanitizeBody(body, echo.MIMEApplicationJSON).(map[string]any)
	if !ok {
		t.Fatalf("expected map summary, got %T", got)
	}
	for _, key := range []string{"password", "newPassword", "token"} {
		if got[key] != redacted {
			t.Fatalf("expected %s to be redacted, got %v", key, got[key])
		}
	}
	if got["email"] != "alice@x.com" {
		t.Fatalf("expected email to be kept, got %v", got["email"])
	}
	nested, _ := got["nested"].(map[string]any)
	if nested["resetToken"] != redacted {
		t.Fatalf("expected nested token to be redacted, got %v", nested)
	}

	form := sanitizeBody([]byte("email=a%40x.com&password=p1"), echo.MIMEApplicationForm).(map[string]any)
	if form["password"] != redacted || form["email"] != "a@x.com" {
		t.Fatalf("unexpected form summary %v", form)
	}
	if sanitizeBody(nil, "") != nil {
		t.Fatal("expected nil summary for empty body")
	}
}

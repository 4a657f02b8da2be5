package web

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adedoyinyusuf/CSIMS-sub005/auth"
	"github.com/adedoyinyusuf/CSIMS-sub005/dashboard"
	"github.com/adedoyinyusuf/CSIMS-sub005/loan"
	"github.com/adedoyinyusuf/CSIMS-sub005/notification"
	"github.com/adedoyinyusuf/CSIMS-sub005/savings"
	"github.com/adedoyinyusuf/CSIMS-sub005/signoff"
)

const validSession = "valid-session"

type fakeAuth struct {
	registerErr error
	loginErr    error
	resetErr    error
	resets      []string
}

func (f *fakeAuth) VerifyToken(token string) (auth.Principal, error) {
	if token != validSession {
		return auth.Principal{}, auth.ErrInvalidToken
	}
	return auth.Principal{MemberID: "m1", Role: auth.RoleMember}, nil
}

func (f *fakeAuth) Register(_ context.Context, req auth.RegisterRequest) (*auth.Member, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &auth.Member{ID: "m1", FullName: req.FullName, Email: req.Email}, nil
}

func (f *fakeAuth) Login(context.Context, auth.LoginRequest) (auth.LoginResult, error) {
	if f.loginErr != nil {
		return auth.LoginResult{}, f.loginErr
	}
	return auth.LoginResult{Token: validSession, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAuth) RequestPasswordReset(_ context.Context, email string) error {
	f.resets = append(f.resets, email)
	return nil
}

func (f *fakeAuth) ResetPassword(context.Context, auth.ResetRequest) error {
	return f.resetErr
}

// memSignoff is an in-memory signoff.Repository so the real workflow runs.
type memSignoff struct {
	mu      sync.Mutex
	reqs    map[string]signoff.Request
	findErr error
	markErr error
}

func (m *memSignoff) Create(_ context.Context, p signoff.CreateParams) (signoff.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req := signoff.Request{ID: "r-" + p.Token, Token: p.Token, LoanID: p.LoanID, Channel: p.Channel, Status: signoff.StatusPending}
	m.reqs[p.Token] = req
	return req, nil
}

func (m *memSignoff) FindByToken(_ context.Context, token string) (signoff.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return signoff.Request{}, m.findErr
	}
	req, ok := m.reqs[token]
	if !ok {
		return signoff.Request{}, signoff.ErrNotFound
	}
	return req, nil
}

func (m *memSignoff) MarkSigned(_ context.Context, token string, name, email *string) (signoff.MarkResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return signoff.MarkResult{}, m.markErr
	}
	req, ok := m.reqs[token]
	if !ok {
		return signoff.MarkResult{}, signoff.ErrNotFound
	}
	if req.Signed() {
		return signoff.MarkResult{Request: req}, nil
	}
	if name != nil {
		req.GuarantorName = name
	}
	if email != nil {
		req.GuarantorEmail = email
	}
	now := time.Now()
	req.Status, req.SignedAt = signoff.StatusSigned, &now
	m.reqs[token] = req
	return signoff.MarkResult{Request: req, Transitioned: true}, nil
}

type fakeLoans struct {
	loans     []loan.Loan
	err       error
	requested []loan.GuarantorParams
}

func (f *fakeLoans) ListForMember(context.Context, string) ([]loan.Loan, error) {
	return f.loans, nil
}

func (f *fakeLoans) RequestGuarantor(_ context.Context, _, _ string, p loan.GuarantorParams) (signoff.Request, error) {
	if f.err != nil {
		return signoff.Request{}, f.err
	}
	f.requested = append(f.requested, p)
	return signoff.Request{ID: "r1"}, nil
}

type fakeNotifications struct {
	items   []notification.Notification
	markErr error
	read    []string
}

func (f *fakeNotifications) List(context.Context, string, int) ([]notification.Notification, error) {
	return f.items, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, _ string, id string) error {
	f.read = append(f.read, id)
	return f.markErr
}

type fakeSavings struct{}

func (fakeSavings) Detail(_ context.Context, memberID, accountID string, _ int) (savings.Detail, error) {
	if accountID != "a1" || memberID != "m1" {
		return savings.Detail{}, savings.ErrNotFound
	}
	return savings.Detail{
		Account: savings.Account{ID: "a1", AccountNo: "SV-001", Balance: decimal.RequireFromString("25000.5")},
	}, nil
}

type fakeDashboard struct{}

func (fakeDashboard) Summary(context.Context, string) (dashboard.Summary, error) {
	return dashboard.Summary{
		ActiveLoans:          1,
		OutstandingPrincipal: decimal.NewFromInt(150000),
		TotalSavings:         decimal.RequireFromString("1234.5"),
	}, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type harness struct {
	handler http.Handler
	auth    *fakeAuth
	signoff *memSignoff
	loans   *fakeLoans
	notes   *fakeNotifications
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, nil)
}

// newHarnessWith lets a test adjust the server options before routes are built.
func newHarnessWith(t *testing.T, configure func(*Options)) *harness {
	t.Helper()
	h := &harness{
		auth:    &fakeAuth{},
		signoff: &memSignoff{reqs: map[string]signoff.Request{}},
		loans:   &fakeLoans{},
		notes:   &fakeNotifications{},
	}
	logger := log.New(io.Discard, "", 0)
	opts := Options{CurrencySymbol: "₦", Logger: logger}
	if configure != nil {
		configure(&opts)
	}
	srv, err := NewServer(Deps{
		Auth:          h.auth,
		Signoff:       signoff.NewService(h.signoff).WithLogger(logger),
		Loans:         h.loans,
		Notifications: h.notes,
		Savings:       fakeSavings{},
		Dashboard:     fakeDashboard{},
		DB:            fakePinger{},
	}, opts)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	h.handler = srv.Routes()
	return h
}

func (h *harness) do(method, target string, form url.Values, session bool) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if session {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: validSession})
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeadersOnEveryResponse(t *testing.T) {
	h := newHarness(t)
	for _, target := range []string{"/login", "/healthz", "/missing"} {
		rec := h.do(http.MethodGet, target, nil, false)
		if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Fatalf("%s: nosniff missing, got %q", target, got)
		}
		if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
			t.Fatalf("%s: frame options missing, got %q", target, got)
		}
	}
}

func TestGatedPagesRedirectAnonymous(t *testing.T) {
	h := newHarness(t)
	for _, target := range []string{"/", "/loans", "/notifications", "/savings/a1"} {
		rec := h.do(http.MethodGet, target, nil, false)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
			t.Fatalf("%s: expected redirect to /login, got %d %q", target, rec.Code, rec.Header().Get("Location"))
		}
	}
}

func TestInvalidSessionCookieIsCleared(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "forged"})
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected session cookie to be cleared")
	}
}

func TestDashboardRendersSummary(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"₦150,000.00", "₦1,234.50", "Sign out"} {
		if !strings.Contains(body, want) {
			t.Fatalf("dashboard missing %q", want)
		}
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/login", url.Values{"email": {"ada@example.com"}, "password": {"password123"}}, false)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			session = c
		}
	}
	if session == nil || session.Value != validSession {
		t.Fatalf("expected session cookie, got %+v", session)
	}
	if !session.HttpOnly || session.SameSite != http.SameSiteLaxMode {
		t.Fatalf("session cookie must be HttpOnly and SameSite=Lax: %+v", session)
	}
}

func TestLoginFailureKeepsEmail(t *testing.T) {
	h := newHarness(t)
	h.auth.loginErr = auth.ErrInvalidCredentials
	rec := h.do(http.MethodPost, "/login", url.Values{"email": {"ada@example.com"}, "password": {"nope"}}, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Invalid email or password.") || !strings.Contains(body, `value="ada@example.com"`) {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestRegisterValidationMessages(t *testing.T) {
	h := newHarness(t)
	h.auth.registerErr = auth.ErrPasswordMismatch
	rec := h.do(http.MethodPost, "/register", url.Values{"full_name": {"Ada Obi"}, "email": {"ada@example.com"}}, false)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Passwords do not match.") {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}

	h.auth.registerErr = errors.New("connection reset")
	rec = h.do(http.MethodPost, "/register", url.Values{"full_name": {"Ada Obi"}}, false)
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "connection reset") {
		t.Fatalf("internal errors must not leak: %d %s", rec.Code, rec.Body.String())
	}
}

func TestForgotPasswordDoesNotRevealAccounts(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/forgot-password", url.Values{"email": {"nobody@example.com"}}, false)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "If that email is registered") {
		t.Fatalf("unexpected response %d", rec.Code)
	}
	if len(h.auth.resets) != 1 {
		t.Fatalf("expected one reset request, got %v", h.auth.resets)
	}
}

func TestResetPasswordPageIsPrivate(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/reset-password?token=abc", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Referrer-Policy") != "no-referrer" {
		t.Fatal("reset page must not leak its token through Referer")
	}

	h.auth.resetErr = auth.ErrResetTokenInvalid
	rec = h.do(http.MethodPost, "/reset-password", url.Values{"token": {"abc"}, "password": {"password123"}, "confirm_password": {"password123"}}, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRequestGuarantor(t *testing.T) {
	h := newHarness(t)
	form := url.Values{"channel": {"email"}, "name": {"Bola"}, "email": {"bola@example.com"}}
	rec := h.do(http.MethodPost, "/loans/l1/guarantor", form, true)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/loans?requested=1" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if len(h.loans.requested) != 1 || h.loans.requested[0].Name != "Bola" {
		t.Fatalf("unexpected requests %+v", h.loans.requested)
	}

	rec = h.do(http.MethodPost, "/loans/l1/guarantor", url.Values{"channel": {"pigeon"}}, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown channel, got %d", rec.Code)
	}

	h.loans.err = loan.ErrNotEligible
	rec = h.do(http.MethodPost, "/loans/l1/guarantor", form, true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	h.loans.err = loan.ErrNotFound
	rec = h.do(http.MethodPost, "/loans/l1/guarantor", form, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestNotificationsGroupedAndMarkRead(t *testing.T) {
	h := newHarness(t)
	h.notes.items = []notification.Notification{{ID: "n1", Title: "Loan approved", CreatedAt: time.Now()}}
	rec := h.do(http.MethodGet, "/notifications", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Today") || !strings.Contains(body, "/notifications/n1/read") {
		t.Fatalf("unexpected body: %s", body)
	}

	rec = h.do(http.MethodPost, "/notifications/n1/read", url.Values{}, true)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}

	h.notes.markErr = notification.ErrNotFound
	rec = h.do(http.MethodPost, "/notifications/other/read", url.Values{}, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSavingsDetail(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/savings/a1", nil, true)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "₦25,000.50") {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
	rec = h.do(http.MethodGet, "/savings/not-mine", nil, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/healthz", nil, false)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}

func TestSessionMutationsArePostOnly(t *testing.T) {
	h := newHarness(t)
	// with SameSite=Lax cookies, cross-site requests only carry the session on
	// top-level GETs, so no state change may hang off a GET
	for _, target := range []string{"/logout", "/notifications/n1/read", "/loans/l1/guarantor"} {
		rec := h.do(http.MethodGet, target, nil, true)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("GET %s: expected 405, got %d", target, rec.Code)
		}
	}
	if len(h.notes.read) != 0 {
		t.Fatalf("GET must not mark anything read, got %v", h.notes.read)
	}
}

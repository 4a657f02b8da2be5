package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/adedoyinyusuf/CSIMS-sub005/auth"
	"github.com/adedoyinyusuf/CSIMS-sub005/dashboard"
	"github.com/adedoyinyusuf/CSIMS-sub005/loan"
	"github.com/adedoyinyusuf/CSIMS-sub005/notification"
	"github.com/adedoyinyusuf/CSIMS-sub005/savings"
	"github.com/adedoyinyusuf/CSIMS-sub005/signoff"
)

// Authenticator is the member account surface used by the pages.
type Authenticator interface {
	TokenVerifier
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.Member, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req auth.ResetRequest) error
}

// Signoff is the guarantor confirmation workflow.
type Signoff interface {
	Load(ctx context.Context, token string) signoff.Result
	Submit(ctx context.Context, in signoff.SubmitInput) signoff.Result
}

type Loans interface {
	ListForMember(ctx context.Context, memberID string) ([]loan.Loan, error)
	RequestGuarantor(ctx context.Context, memberID, loanID string, params loan.GuarantorParams) (signoff.Request, error)
}

type Notifications interface {
	List(ctx context.Context, memberID string, limit int) ([]notification.Notification, error)
	MarkRead(ctx context.Context, memberID, id string) error
}

type Savings interface {
	Detail(ctx context.Context, memberID, accountID string, limit int) (savings.Detail, error)
}

type Dashboard interface {
	Summary(ctx context.Context, memberID string) (dashboard.Summary, error)
}

// Pinger reports database liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ Authenticator = (*auth.Service)(nil)
	_ Signoff       = (*signoff.Service)(nil)
	_ Loans         = (*loan.Service)(nil)
	_ Notifications = (*notification.Service)(nil)
	_ Savings       = (*savings.Service)(nil)
	_ Dashboard     = (*dashboard.Service)(nil)
)

// Deps are the services behind the pages.
type Deps struct {
	Auth          Authenticator
	Signoff       Signoff
	Loans         Loans
	Notifications Notifications
	Savings       Savings
	Dashboard     Dashboard
	DB            Pinger
}

type Options struct {
	CurrencySymbol string
	SecureCookies  bool
	Logger         *log.Logger
	Now            func() time.Time

	// AccessLog receives one line per request; defaults to Logger.
	AccessLog middleware.LoggerInterface
}

// Server holds the page handlers.
type Server struct {
	auth          Authenticator
	signoff       Signoff
	loans         Loans
	notifications Notifications
	savings       Savings
	dashboard     Dashboard
	db            Pinger

	opts      Options
	logger    *log.Logger
	accessLog middleware.LoggerInterface
	now       func() time.Time
	renderer  *renderer
}

func NewServer(deps Deps, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	accessLog := opts.AccessLog
	if accessLog == nil {
		accessLog = logger
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rd, err := newRenderer(NewFormatter(opts.CurrencySymbol), logger)
	if err != nil {
		return nil, err
	}
	return &Server{
		auth:          deps.Auth,
		signoff:       deps.Signoff,
		loans:         deps.Loans,
		notifications: deps.Notifications,
		savings:       deps.Savings,
		dashboard:     deps.Dashboard,
		db:            deps.DB,
		opts:          opts,
		logger:        logger,
		accessLog:     accessLog,
		now:           now,
		renderer:      rd,
	}, nil
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLogger())
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(s.loadSession)

	r.Get("/healthz", s.handleHealth)

	r.Get("/register", s.handleRegisterPage)
	r.Post("/register", s.handleRegister)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Get("/forgot-password", s.handleForgotPage)
	r.Post("/forgot-password", s.handleForgot)

	r.Group(func(r chi.Router) {
		r.Use(privatePage)
		r.Get("/reset-password", s.handleResetPage)
		r.Post("/reset-password", s.handleReset)
		r.Get("/guarantor", s.handleGuarantorPage)
		r.Post("/guarantor", s.handleGuarantorSubmit)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireMember)
		r.Get("/", s.handleDashboard)
		r.Get("/loans", s.handleLoans)
		r.Post("/loans/{id}/guarantor", s.handleRequestGuarantor)
		r.Get("/notifications", s.handleNotifications)
		r.Post("/notifications/{id}/read", s.handleMarkRead)
		r.Get("/savings/{id}", s.handleSavings)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderer.renderError(w, r, http.StatusNotFound, "The page you requested does not exist.")
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			s.logger.Printf("web: health ping: %v", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

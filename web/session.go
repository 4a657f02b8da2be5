package web

import (
	"context"
	"net/http"
	"time"

	"github.com/adedoyinyusuf/CSIMS-sub005/auth"
)

const sessionCookie = "portal_session"

// Session is the identity resolved for one request.
type Session struct {
	MemberID      string
	Role          auth.Role
	Authenticated bool
}

type sessionKey struct{}

// SessionFrom returns the request's session; the zero value is anonymous.
func SessionFrom(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey{}).(Session)
	return s
}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// TokenVerifier turns a session token into a principal.
type TokenVerifier interface {
	VerifyToken(token string) (auth.Principal, error)
}

// loadSession resolves the session cookie once per request. Invalid or
// expired cookies are cleared and the request continues anonymously.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess Session
		if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
			p, err := s.auth.VerifyToken(c.Value)
			if err != nil {
				s.clearSessionCookie(w)
			} else {
				sess = Session{MemberID: p.MemberID, Role: p.Role, Authenticated: true}
			}
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

func requireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFrom(r.Context()).Authenticated {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

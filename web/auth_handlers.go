package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/adedoyinyusuf/CSIMS-sub005/auth"
)

type registerForm struct {
	FullName string
	Email    string
	Phone    string
}

type loginForm struct {
	Email string
}

type resetForm struct {
	Token string
}

// authMessage maps account errors to text safe to show. ok is false for
// errors that must be logged instead.
func authMessage(err error) (status int, msg string, ok bool) {
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		return http.StatusBadRequest, "Please fill in your full name and email address.", true
	case errors.Is(err, auth.ErrInvalidEmail):
		return http.StatusBadRequest, "Please enter a valid email address.", true
	case errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest, "Password must be at least 8 characters.", true
	case errors.Is(err, auth.ErrPasswordMismatch):
		return http.StatusBadRequest, "Passwords do not match.", true
	case errors.Is(err, auth.ErrDuplicateEmail):
		return http.StatusConflict, "An account with this email already exists.", true
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password.", true
	case errors.Is(err, auth.ErrResetTokenInvalid):
		return http.StatusBadRequest, "This reset link is invalid or has expired. Please request a new one.", true
	}
	return http.StatusInternalServerError, "Something went wrong. Please try again later.", false
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if SessionFrom(r.Context()).Authenticated {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderer.render(w, r, http.StatusOK, "register", page{Title: "Create account", Data: registerForm{}})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderer.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	form := registerForm{
		FullName: r.PostFormValue("full_name"),
		Email:    r.PostFormValue("email"),
		Phone:    r.PostFormValue("phone"),
	}
	_, err := s.auth.Register(r.Context(), auth.RegisterRequest{
		FullName:        form.FullName,
		Email:           form.Email,
		Phone:           form.Phone,
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	})
	if err != nil {
		status, msg, ok := authMessage(err)
		if !ok {
			s.logger.Printf("web: register: %v", err)
		}
		s.renderer.render(w, r, status, "register", page{Title: "Create account", Error: msg, Data: form})
		return
	}
	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if SessionFrom(r.Context()).Authenticated {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	p := page{Title: "Sign in", Data: loginForm{}}
	switch {
	case r.URL.Query().Get("registered") != "":
		p.Notice = "Your account has been created. Please sign in."
	case r.URL.Query().Get("reset") != "":
		p.Notice = "Your password has been changed. Please sign in."
	}
	s.renderer.render(w, r, http.StatusOK, "login", p)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderer.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	form := loginForm{Email: r.PostFormValue("email")}
	res, err := s.auth.Login(r.Context(), auth.LoginRequest{
		Email:    form.Email,
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		status, msg, ok := authMessage(err)
		if !ok {
			s.logger.Printf("web: login: %v", err)
		}
		s.renderer.render(w, r, status, "login", page{Title: "Sign in", Error: msg, Data: form})
		return
	}
	s.setSessionCookie(w, res.Token, res.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleForgotPage(w http.ResponseWriter, r *http.Request) {
	s.renderer.render(w, r, http.StatusOK, "forgot_password", page{Title: "Forgot password", Data: loginForm{}})
}

func (s *Server) handleForgot(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderer.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	form := loginForm{Email: r.PostFormValue("email")}
	if err := s.auth.RequestPasswordReset(r.Context(), form.Email); err != nil {
		if errors.Is(err, auth.ErrMissingFields) {
			s.renderer.render(w, r, http.StatusBadRequest, "forgot_password", page{
				Title: "Forgot password", Error: "Please enter your email address.", Data: form,
			})
			return
		}
		// The reply below does not depend on the outcome.
		s.logger.Printf("web: request password reset: %v", err)
	}
	s.renderer.render(w, r, http.StatusOK, "forgot_password", page{
		Title:  "Forgot password",
		Notice: "If that email is registered, a reset link is on its way.",
		Data:   loginForm{},
	})
}

func (s *Server) handleResetPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		s.renderer.renderError(w, r, http.StatusBadRequest, "This reset link is invalid or has expired. Please request a new one.")
		return
	}
	s.renderer.render(w, r, http.StatusOK, "reset_password", page{Title: "Choose a new password", Private: true, Data: resetForm{Token: token}})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderer.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	form := resetForm{Token: r.PostFormValue("token")}
	err := s.auth.ResetPassword(r.Context(), auth.ResetRequest{
		Token:           form.Token,
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	})
	if err != nil {
		status, msg, ok := authMessage(err)
		if !ok {
			s.logger.Printf("web: reset password: %v", err)
		}
		s.renderer.render(w, r, status, "reset_password", page{Title: "Choose a new password", Private: true, Error: msg, Data: form})
		return
	}
	http.Redirect(w, r, "/login?"+url.Values{"reset": {"1"}}.Encode(), http.StatusSeeOther)
}

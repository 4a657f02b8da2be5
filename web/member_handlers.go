package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/adedoyinyusuf/CSIMS-sub005/loan"
	"github.com/adedoyinyusuf/CSIMS-sub005/notification"
	"github.com/adedoyinyusuf/CSIMS-sub005/savings"
	"github.com/adedoyinyusuf/CSIMS-sub005/signoff"
)

const unavailable = "This page is temporarily unavailable. Please try again later."

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	sum, err := s.dashboard.Summary(r.Context(), sess.MemberID)
	if err != nil {
		s.logger.Printf("web: dashboard %s: %v", sess.MemberID, err)
		s.renderer.renderError(w, r, http.StatusInternalServerError, unavailable)
		return
	}
	s.renderer.render(w, r, http.StatusOK, "dashboard", page{Title: "Dashboard", Data: sum})
}

type loansView struct {
	Loans []loan.Loan
}

func (s *Server) handleLoans(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	loans, err := s.loans.ListForMember(r.Context(), sess.MemberID)
	if err != nil {
		s.logger.Printf("web: list loans %s: %v", sess.MemberID, err)
		s.renderer.renderError(w, r, http.StatusInternalServerError, unavailable)
		return
	}
	p := page{Title: "My loans", Data: loansView{Loans: loans}}
	if r.URL.Query().Get("requested") != "" {
		p.Notice = "Your guarantor has been asked to confirm."
	}
	s.renderer.render(w, r, http.StatusOK, "loans", p)
}

func (s *Server) handleRequestGuarantor(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderer.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	sess := SessionFrom(r.Context())
	channel := signoff.Channel(strings.TrimSpace(r.PostFormValue("channel")))
	switch channel {
	case "", signoff.ChannelEmail, signoff.ChannelSMS:
	default:
		s.renderer.renderError(w, r, http.StatusBadRequest, "Choose email or SMS for the guarantor.")
		return
	}

	_, err := s.loans.RequestGuarantor(r.Context(), sess.MemberID, chi.URLParam(r, "id"), loan.GuarantorParams{
		Channel: channel,
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
	})
	switch {
	case err == nil:
		http.Redirect(w, r, "/loans?requested=1", http.StatusSeeOther)
	case errors.Is(err, loan.ErrNotFound):
		s.renderer.renderError(w, r, http.StatusNotFound, "Loan not found.")
	case errors.Is(err, loan.ErrNotEligible):
		s.renderer.renderError(w, r, http.StatusConflict, "Guarantors can only be added to pending or active loans.")
	default:
		s.logger.Printf("web: request guarantor %s: %v", sess.MemberID, err)
		s.renderer.renderError(w, r, http.StatusInternalServerError, unavailable)
	}
}

type notificationsView struct {
	Groups []notification.Group
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	items, err := s.notifications.List(r.Context(), sess.MemberID, 0)
	if err != nil {
		s.logger.Printf("web: list notifications %s: %v", sess.MemberID, err)
		s.renderer.renderError(w, r, http.StatusInternalServerError, unavailable)
		return
	}
	s.renderer.render(w, r, http.StatusOK, "notifications", page{
		Title: "Notifications",
		Data:  notificationsView{Groups: notification.GroupByDay(s.now(), items)},
	})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	err := s.notifications.MarkRead(r.Context(), sess.MemberID, chi.URLParam(r, "id"))
	switch {
	case err == nil:
		http.Redirect(w, r, "/notifications", http.StatusSeeOther)
	case errors.Is(err, notification.ErrNotFound):
		s.renderer.renderError(w, r, http.StatusNotFound, "Notification not found.")
	default:
		s.logger.Printf("web: mark notification read %s: %v", sess.MemberID, err)
		s.renderer.renderError(w, r, http.StatusInternalServerError, unavailable)
	}
}

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	detail, err := s.savings.Detail(r.Context(), sess.MemberID, chi.URLParam(r, "id"), limit)
	switch {
	case err == nil:
		s.renderer.render(w, r, http.StatusOK, "savings", page{Title: "Savings account", Data: detail})
	case errors.Is(err, savings.ErrNotFound):
		s.renderer.renderError(w, r, http.StatusNotFound, "Savings account not found.")
	default:
		s.logger.Printf("web: savings detail %s: %v", sess.MemberID, err)
		s.renderer.renderError(w, r, http.StatusInternalServerError, unavailable)
	}
}

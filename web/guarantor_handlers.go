package web

import (
	"net/http"

	"github.com/adedoyinyusuf/CSIMS-sub005/signoff"
)

type guarantorView struct {
	Result  signoff.Result
	Message string
}

func (s *Server) handleGuarantorPage(w http.ResponseWriter, r *http.Request) {
	res := s.signoff.Load(r.Context(), r.URL.Query().Get("token"))
	s.renderGuarantor(w, r, res)
}

func (s *Server) handleGuarantorSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderGuarantor(w, r, signoff.Result{State: signoff.StateError, Err: signoff.ErrorInvalidToken})
		return
	}
	res := s.signoff.Submit(r.Context(), signoff.SubmitInput{
		Token: r.PostFormValue("token"),
		Name:  r.PostFormValue("name"),
		Email: r.PostFormValue("email"),
		Agree: r.PostFormValue("agree") != "",
	})
	s.renderGuarantor(w, r, res)
}

func (s *Server) renderGuarantor(w http.ResponseWriter, r *http.Request, res signoff.Result) {
	s.renderer.render(w, r, guarantorStatus(res), "guarantor", page{
		Title:   "Guarantor confirmation",
		Private: true,
		Data:    guarantorView{Result: res, Message: guarantorMessage(res)},
	})
}

func guarantorStatus(res signoff.Result) int {
	if res.State != signoff.StateError {
		return http.StatusOK
	}
	switch res.Err {
	case signoff.ErrorInvalidToken, signoff.ErrorMustAgree:
		return http.StatusBadRequest
	case signoff.ErrorExpiredOrInvalidToken:
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

func guarantorMessage(res signoff.Result) string {
	switch res.State {
	case signoff.StateAwaitingSignature:
		return "Please confirm that you agree to stand as guarantor for this loan."
	case signoff.StateAlreadySigned:
		return "This guarantor request has already been signed. Thank you."
	case signoff.StateSigned:
		return "Thank you. Your confirmation has been recorded."
	}
	switch res.Err {
	case signoff.ErrorInvalidToken:
		return "This link is not valid."
	case signoff.ErrorExpiredOrInvalidToken:
		return "This link is invalid or has expired."
	case signoff.ErrorMustAgree:
		return "Please tick the box to confirm you agree."
	default:
		return "We could not record your confirmation right now. Please try again later."
	}
}

package signoff

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// Service runs the guarantor sign-off workflow. It keeps no state between calls;
// the status column in storage is the only source of truth.
type Service struct {
	repo     Repository
	newToken func() (string, error)
	logger   *log.Logger
}

// NewService creates a sign-off service over the given repository.
func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		newToken: NewToken,
		logger:   log.Default(),
	}
}

// WithTokenGenerator overrides token issuance, for tests.
func (s *Service) WithTokenGenerator(gen func() (string, error)) *Service {
	s.newToken = gen
	return s
}

// WithLogger sets the logger used for storage failures.
func (s *Service) WithLogger(l *log.Logger) *Service {
	s.logger = l
	return s
}

// SubmitInput is the posted confirmation form.
type SubmitInput struct {
	Token string
	Name  string
	Email string
	Agree bool
}

// IssueParams describes a new request for a guarantor.
type IssueParams struct {
	LoanID         string
	Channel        Channel
	GuarantorName  string
	GuarantorEmail string
}

// Issue creates a pending request with a fresh token.
func (s *Service) Issue(ctx context.Context, params IssueParams) (Request, error) {
	if params.LoanID == "" {
		return Request{}, fmt.Errorf("signoff: loan id required")
	}
	channel := params.Channel
	if channel == "" {
		channel = ChannelEmail
	}
	if !channel.valid() {
		return Request{}, fmt.Errorf("signoff: invalid channel %q", channel)
	}

	token, err := s.newToken()
	if err != nil {
		return Request{}, err
	}
	return s.repo.Create(ctx, CreateParams{
		Token:          token,
		LoanID:         params.LoanID,
		Channel:        channel,
		GuarantorName:  optional(params.GuarantorName),
		GuarantorEmail: optional(params.GuarantorEmail),
	})
}

// Load resolves a token into the state the page should show. It has no side effects.
func (s *Service) Load(ctx context.Context, token string) Result {
	req, kind := s.resolve(ctx, token)
	if kind != ErrorNone {
		return errorResult(kind, Form{})
	}
	if req.Signed() {
		return Result{State: StateAlreadySigned, Request: req}
	}
	return Result{
		State:   StateAwaitingSignature,
		Request: req,
		Form: Form{
			Token: req.Token,
			Name:  deref(req.GuarantorName),
			Email: deref(req.GuarantorEmail),
		},
	}
}

// Submit validates a confirmation and performs the pending -> signed transition.
// The token and state are re-resolved on every call; nothing from an earlier
// Load is trusted.
func (s *Service) Submit(ctx context.Context, in SubmitInput) Result {
	form := Form{
		Token: strings.TrimSpace(in.Token),
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
	}
	if !in.Agree {
		return errorResult(ErrorMustAgree, form)
	}

	req, kind := s.resolve(ctx, in.Token)
	if kind != ErrorNone {
		return errorResult(kind, Form{})
	}
	if req.Signed() {
		return Result{State: StateAlreadySigned, Request: req}
	}

	res, err := s.repo.MarkSigned(ctx, req.Token, optional(form.Name), optional(form.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return errorResult(ErrorExpiredOrInvalidToken, Form{})
		}
		s.logger.Printf("signoff: mark signed for loan %s: %v", req.LoanID, err)
		return errorResult(ErrorPersistenceFailure, form)
	}
	if !res.Transitioned {
		return Result{State: StateAlreadySigned, Request: res.Request}
	}
	return Result{State: StateSigned, Request: res.Request}
}

func (s *Service) resolve(ctx context.Context, token string) (Request, ErrorKind) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Request{}, ErrorInvalidToken
	}
	req, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Request{}, ErrorExpiredOrInvalidToken
		}
		s.logger.Printf("signoff: find by token: %v", err)
		return Request{}, ErrorPersistenceFailure
	}
	return req, ErrorNone
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

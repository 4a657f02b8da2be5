package loan

import (
	"context"
	"errors"

	"github.com/adedoyinyusuf/CSIMS-sub005/signoff"
)

// ErrNotEligible signals a loan whose status does not accept guarantors.
var ErrNotEligible = errors.New("loan: loan does not accept guarantors")

// Reader abstracts repository operations for the service.
type Reader interface {
	ListForMember(ctx context.Context, memberID string) ([]Loan, error)
	GetForMember(ctx context.Context, memberID, loanID string) (Loan, error)
}

// GuarantorIssuer creates sign-off requests.
type GuarantorIssuer interface {
	Issue(ctx context.Context, params signoff.IssueParams) (signoff.Request, error)
}

// Service exposes member-facing loan operations.
type Service struct {
	repo   Reader
	issuer GuarantorIssuer
}

// NewService builds a Service using the provided repository and issuer.
func NewService(repo Reader, issuer GuarantorIssuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

// ListForMember returns the member's loans.
func (s *Service) ListForMember(ctx context.Context, memberID string) ([]Loan, error) {
	return s.repo.ListForMember(ctx, memberID)
}

// Get returns one loan owned by the member.
func (s *Service) Get(ctx context.Context, memberID, loanID string) (Loan, error) {
	return s.repo.GetForMember(ctx, memberID, loanID)
}

// GuarantorParams names the guarantor to approach.
type GuarantorParams struct {
	Channel signoff.Channel
	Name    string
	Email   string
}

// RequestGuarantor issues a sign-off request for a pending or active loan the member owns.
func (s *Service) RequestGuarantor(ctx context.Context, memberID, loanID string, params GuarantorParams) (signoff.Request, error) {
	l, err := s.repo.GetForMember(ctx, memberID, loanID)
	if err != nil {
		return signoff.Request{}, err
	}
	if l.Status != StatusPending && l.Status != StatusActive {
		return signoff.Request{}, ErrNotEligible
	}
	return s.issuer.Issue(ctx, signoff.IssueParams{
		LoanID:         l.ID,
		Channel:        params.Channel,
		GuarantorName:  params.Name,
		GuarantorEmail: params.Email,
	})
}

package signoff

import "time"

// Status is the lifecycle state of a sign-off request. It only ever moves
// from StatusPending to StatusSigned.
type Status string

const (
	StatusPending Status = "pending"
	StatusSigned  Status = "signed"
)

// Channel records how the guarantor was approached. Informational only.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

func (c Channel) valid() bool {
	return c == ChannelEmail || c == ChannelSMS
}

// Request mirrors the signoff_requests table.
type Request struct {
	ID             string
	Token          string
	LoanID         string
	Channel        Channel
	Status         Status
	GuarantorName  *string
	GuarantorEmail *string
	SignedAt       *time.Time
	CreatedAt      time.Time
}

// Signed reports whether the request reached its terminal state.
func (r Request) Signed() bool {
	return r.Status == StatusSigned
}

// CreateParams carries the fields of a freshly issued request.
type CreateParams struct {
	Token          string
	LoanID         string
	Channel        Channel
	GuarantorName  *string
	GuarantorEmail *string
}

// MarkResult reports the row after a mark-signed call. Transitioned is false
// when the row was already signed and nothing was written.
type MarkResult struct {
	Request      Request
	Transitioned bool
}

const (
	// OutboxTopicRequested is published when a new request is issued.
	OutboxTopicRequested = "signoff.requested"
	// OutboxTopicSigned is published once, on the pending -> signed transition.
	OutboxTopicSigned = "signoff.signed"
)

package signoff

// State is what the sign-off page should show.
type State int

const (
	// StateAwaitingSignature renders the confirmation form.
	StateAwaitingSignature State = iota + 1
	// StateAlreadySigned is terminal; no form.
	StateAlreadySigned
	// StateSigned is the outcome of the submission that performed the transition.
	StateSigned
	// StateError carries one of the ErrorKind values.
	StateError
)

// ErrorKind enumerates the user-facing failures of the workflow.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorInvalidToken
	ErrorExpiredOrInvalidToken
	ErrorMustAgree
	ErrorPersistenceFailure
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorInvalidToken:
		return "invalid_token"
	case ErrorExpiredOrInvalidToken:
		return "expired_or_invalid_token"
	case ErrorMustAgree:
		return "must_agree"
	case ErrorPersistenceFailure:
		return "persistence_failure"
	default:
		return "unknown"
	}
}

// Form holds the values shown in the confirmation form inputs.
type Form struct {
	Token string
	Name  string
	Email string
}

// Result is the outcome of Load or Submit. It is the only input to rendering.
type Result struct {
	State   State
	Err     ErrorKind
	Request Request
	Form    Form
}

// ShowForm reports whether the confirmation form should be rendered.
func (r Result) ShowForm() bool {
	return r.State == StateAwaitingSignature || (r.State == StateError && r.Err == ErrorMustAgree)
}

func errorResult(kind ErrorKind, form Form) Result {
	return Result{State: StateError, Err: kind, Form: form}
}

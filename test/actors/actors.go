package actors

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/adedoyinyusuf/CSIMS-sub005/outbox"
	"github.com/adedoyinyusuf/CSIMS-sub005/signoff"
)

// Tokens is the set of issued tokens shared by the actors, with the ones a
// signer has seen reach the signed state.
type Tokens struct {
	mu     sync.Mutex
	all    []string
	signed map[string]bool
}

func NewTokens() *Tokens {
	return &Tokens{signed: make(map[string]bool)}
}

func (t *Tokens) Add(token string) {
	t.mu.Lock()
	t.all = append(t.all, token)
	t.mu.Unlock()
}

// Pick returns a random issued token, biased to recent ones so signers collide.
func (t *Tokens) Pick() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.all) == 0 {
		return "", false
	}
	window := len(t.all)
	if window > 4 {
		window = 4
	}
	return t.all[len(t.all)-1-rand.Intn(window)], true
}

func (t *Tokens) MarkSigned(token string) {
	t.mu.Lock()
	t.signed[token] = true
	t.mu.Unlock()
}

func (t *Tokens) Signed(token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.signed[token]
}

func (t *Tokens) Count() (issued, signed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.all), len(t.signed)
}

func stopped(ctx context.Context, stop <-chan struct{}) (bool, error) {
	select {
	case <-ctx.Done():
		return true, ctx.Err()
	case <-stop:
		return true, nil
	default:
		return false, nil
	}
}

// Issuer keeps creating fresh requests for the loan.
func Issuer(ctx context.Context, svc *signoff.Service, loanID string, tokens *Tokens, stop <-chan struct{}) error {
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		req, err := svc.Issue(ctx, signoff.IssueParams{
			LoanID:         loanID,
			GuarantorName:  fmt.Sprintf("Guarantor %d", rand.Intn(1000)),
			GuarantorEmail: "guarantor@example.com",
		})
		if err == nil {
			tokens.Add(req.Token)
		}
		time.Sleep(time.Duration(150+rand.Intn(150)) * time.Millisecond)
	}
}

// Signer races other signers on the same tokens. Blank names are mixed in
// to exercise the keep-stored-value rule.
func Signer(ctx context.Context, svc *signoff.Service, tokens *Tokens, stop <-chan struct{}) error {
	names := []string{"", "  ", "Ada Obi", "Bola Ade"}
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		token, ok := tokens.Pick()
		if !ok {
			time.Sleep(20 * time.Millisecond)
			continue
		}
		res := svc.Submit(ctx, signoff.SubmitInput{
			Token: token,
			Name:  names[rand.Intn(len(names))],
			Email: names[rand.Intn(2)],
			Agree: true,
		})
		switch res.State {
		case signoff.StateSigned, signoff.StateAlreadySigned:
			tokens.MarkSigned(token)
		case signoff.StateError:
			if res.Err != signoff.ErrorPersistenceFailure {
				return fmt.Errorf("signer: token %s: unexpected %s", token, res.Err)
			}
		default:
			return fmt.Errorf("signer: token %s: unexpected state %d", token, res.State)
		}
		time.Sleep(time.Duration(5+rand.Intn(20)) * time.Millisecond)
	}
}

// Loader checks that a token observed as signed never reads back as pending.
func Loader(ctx context.Context, svc *signoff.Service, tokens *Tokens, stop <-chan struct{}) error {
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		token, ok := tokens.Pick()
		if !ok {
			time.Sleep(20 * time.Millisecond)
			continue
		}
		wasSigned := tokens.Signed(token)
		res := svc.Load(ctx, token)
		if res.State == signoff.StateError && res.Err != signoff.ErrorPersistenceFailure {
			return fmt.Errorf("loader: token %s: unexpected %s", token, res.Err)
		}
		if wasSigned && res.State == signoff.StateAwaitingSignature {
			return fmt.Errorf("loader: token %s went back to pending", token)
		}
		time.Sleep(time.Duration(10+rand.Intn(30)) * time.Millisecond)
	}
}

// Dispatcher drains the outbox alongside the signers.
func Dispatcher(ctx context.Context, d *outbox.Dispatcher, stop <-chan struct{}) error {
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		_, _ = d.DispatchOnce(ctx)
		time.Sleep(100 * time.Millisecond)
	}
}

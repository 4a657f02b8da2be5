package notification

import (
	"context"
	"time"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Store abstracts repository operations for the service.
type Store interface {
	List(ctx context.Context, memberID string, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, memberID string) (int, error)
	MarkRead(ctx context.Context, memberID, id string) error
	CreateForLoanOwner(ctx context.Context, loanID, title, body, category string) (Notification, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns up to limit notifications, newest first.
func (s *Service) List(ctx context.Context, memberID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return s.store.List(ctx, memberID, limit)
}

func (s *Service) UnreadCount(ctx context.Context, memberID string) (int, error) {
	return s.store.UnreadCount(ctx, memberID)
}

func (s *Service) MarkRead(ctx context.Context, memberID, id string) error {
	return s.store.MarkRead(ctx, memberID, id)
}

// GroupByDay splits newest-first items into Today, Yesterday and dated groups,
// keeping their order. Days are taken in now's location.
func GroupByDay(now time.Time, items []Notification) []Group {
	loc := now.Location()
	today := dayStart(now)
	yesterday := today.AddDate(0, 0, -1)

	groups := make([]Group, 0, 4)
	for _, n := range items {
		day := dayStart(n.CreatedAt.In(loc))
		var label string
		switch {
		case day.Equal(today):
			label = "Today"
		case day.Equal(yesterday):
			label = "Yesterday"
		default:
			label = day.Format("Jan 2, 2006")
		}
		if len(groups) == 0 || groups[len(groups)-1].Label != label {
			groups = append(groups, Group{Label: label})
		}
		last := &groups[len(groups)-1]
		last.Items = append(last.Items, n)
	}
	return groups
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

package notification

import "time"

// Notification mirrors the notifications table.
type Notification struct {
	ID        string
	MemberID  string
	Title     string
	Body      string
	Category  string
	ReadAt    *time.Time
	CreatedAt time.Time
}

// Unread reports whether the member has not opened the notification yet.
func (n Notification) Unread() bool {
	return n.ReadAt == nil
}

// Group is a run of notifications that share a day label.
type Group struct {
	Label string
	Items []Notification
}

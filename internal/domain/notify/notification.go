package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"automarket/internal/domain/user"
)

var ErrNotFound = errors.New("notify: notification not found")

type NotificationID string

// Notification is the in-app copy of a message sent to a user. The email
// itself goes out through the notifier adapter; this row backs the bell icon.
type Notification struct {
	ID        NotificationID
	UserID    user.ID
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}

type Repository interface {
	Save(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID user.ID) ([]*Notification, error)
	MarkRead(ctx context.Context, id NotificationID, userID user.ID) error
	CountUnread(ctx context.Context, userID user.ID) (int, error)
}

type CreateParams struct {
	ID      NotificationID
	UserID  user.ID
	Title   string
	Message string
	Now     time.Time
}

func New(params CreateParams) (*Notification, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("notify: id is required")
	}
	if strings.TrimSpace(string(params.UserID)) == "" {
		return nil, errors.New("notify: user id is required")
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, errors.New("notify: title is required")
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Notification{
		ID:        params.ID,
		UserID:    params.UserID,
		Title:     strings.TrimSpace(params.Title),
		Message:   strings.TrimSpace(params.Message),
		CreatedAt: now.UTC(),
	}, nil
}

package me

import (
	"context"
	"errors"
	"strings"

	"automarket/internal/app/commands"
	"automarket/internal/app/dto"
	handlersupport "automarket/internal/app/handlers/support"
	"automarket/internal/app/queries"
	"automarket/internal/app/uow"
	domainnotify "automarket/internal/domain/notify"
	domainuser "automarket/internal/domain/user"
)

const (
	listNotificationsKey    = "me.notifications"
	markNotificationReadKey = "me.notifications.mark_read"
)

type ListNotificationsQuery struct {
	UserID string
}

func (q ListNotificationsQuery) Key() string { return listNotificationsKey }

type ListNotificationsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListNotificationsHandler) Handle(ctx context.Context, q ListNotificationsQuery) (dto.NotificationFeed, error) {
	userID := strings.TrimSpace(q.UserID)
	if userID == "" {
		return dto.NotificationFeed{}, errors.New("user id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.NotificationFeed{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Notifications().ListByUser(execCtx, domainuser.ID(userID))
	if err != nil {
		return dto.NotificationFeed{}, err
	}
	unread, err := unit.Notifications().CountUnread(execCtx, domainuser.ID(userID))
	if err != nil {
		return dto.NotificationFeed{}, err
	}
	return dto.MapNotifications(items, unread), nil
}

type MarkNotificationReadCommand struct {
	UserID         string
	NotificationID string
}

func (c MarkNotificationReadCommand) Key() string { return markNotificationReadKey }

type MarkNotificationReadResult struct {
	NotificationID string `json:"notification_id"`
	Read           bool   `json:"read"`
}

type MarkNotificationReadHandler struct{}

func (h *MarkNotificationReadHandler) Handle(ctx context.Context, cmd MarkNotificationReadCommand) (*MarkNotificationReadResult, error) {
	if strings.TrimSpace(cmd.UserID) == "" {
		return nil, errors.New("user id is required")
	}
	if strings.TrimSpace(cmd.NotificationID) == "" {
		return nil, errors.New("notification id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	err := unit.Notifications().MarkRead(ctx, domainnotify.NotificationID(cmd.NotificationID), domainuser.ID(cmd.UserID))
	if err != nil {
		return nil, err
	}
	return &MarkNotificationReadResult{NotificationID: cmd.NotificationID, Read: true}, nil
}

var (
	_ queries.Handler[ListNotificationsQuery, dto.NotificationFeed]             = (*ListNotificationsHandler)(nil)
	_ commands.Handler[MarkNotificationReadCommand, *MarkNotificationReadResult] = (*MarkNotificationReadHandler)(nil)
)

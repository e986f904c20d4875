package admin

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"automarket/internal/app/commands"
	"automarket/internal/app/dto"
	"automarket/internal/app/queries"
	domainauth "automarket/internal/domain/auth"
	domainuser "automarket/internal/domain/user"
)

const (
	listUsersKey   = "admin.users.list"
	blockUserKey   = "admin.users.block"
	unblockUserKey = "admin.users.unblock"
)

type ListUsersQuery struct {
	Query  string
	Limit  int
	Offset int
}

func (q ListUsersQuery) Key() string { return listUsersKey }

type UserPage struct {
	Items []dto.UserProfile `json:"items"`
	Total int               `json:"total"`
}

type ListUsersHandler struct {
	Users domainuser.Repository
}

func (h *ListUsersHandler) Handle(ctx context.Context, q ListUsersQuery) (UserPage, error) {
	items, total, err := h.Users.List(ctx, domainuser.ListParams{
		Query:  q.Query,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		return UserPage{}, err
	}
	profiles := make([]dto.UserProfile, 0, len(items))
	for _, u := range items {
		profiles = append(profiles, dto.MapUserProfile(u))
	}
	return UserPage{Items: profiles, Total: total}, nil
}

type BlockUserCommand struct {
	AdminID string
	UserID  string
}

func (c BlockUserCommand) Key() string { return blockUserKey }

type UnblockUserCommand struct {
	AdminID string
	UserID  string
}

func (c UnblockUserCommand) Key() string { return unblockUserKey }

type UserModerationResult struct {
	UserID  string `json:"user_id"`
	Blocked bool   `json:"blocked"`
}

type BlockUserHandler struct {
	Users    domainuser.Repository
	Sessions domainauth.SessionStore
	Logger   *slog.Logger
}

// Handle blocks the account and revokes its live sessions so the block takes
// effect immediately.
func (h *BlockUserHandler) Handle(ctx context.Context, cmd BlockUserCommand) (*UserModerationResult, error) {
	account, err := loadModeratedUser(ctx, h.Users, cmd.AdminID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if cmd.AdminID == cmd.UserID {
		return nil, errors.New("admin cannot block own account")
	}

	account.Block(time.Now())
	if err := h.Users.Save(ctx, account); err != nil {
		return nil, err
	}
	if h.Sessions != nil {
		if err := h.Sessions.DeleteByUser(ctx, account.ID); err != nil {
			return nil, err
		}
	}

	if h.Logger != nil {
		h.Logger.Info("user blocked", "user_id", account.ID, "admin_id", cmd.AdminID)
	}
	return &UserModerationResult{UserID: string(account.ID), Blocked: true}, nil
}

type UnblockUserHandler struct {
	Users  domainuser.Repository
	Logger *slog.Logger
}

func (h *UnblockUserHandler) Handle(ctx context.Context, cmd UnblockUserCommand) (*UserModerationResult, error) {
	account, err := loadModeratedUser(ctx, h.Users, cmd.AdminID, cmd.UserID)
	if err != nil {
		return nil, err
	}

	account.Unblock(time.Now())
	if err := h.Users.Save(ctx, account); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("user unblocked", "user_id", account.ID, "admin_id", cmd.AdminID)
	}
	return &UserModerationResult{UserID: string(account.ID), Blocked: false}, nil
}

func loadModeratedUser(ctx context.Context, repo domainuser.Repository, adminID, userID string) (*domainuser.User, error) {
	if strings.TrimSpace(adminID) == "" {
		return nil, errors.New("admin id is required")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user id is required")
	}
	return repo.ByID(ctx, domainuser.ID(userID))
}

var (
	_ queries.Handler[ListUsersQuery, UserPage]                   = (*ListUsersHandler)(nil)
	_ commands.Handler[BlockUserCommand, *UserModerationResult]   = (*BlockUserHandler)(nil)
	_ commands.Handler[UnblockUserCommand, *UserModerationResult] = (*UnblockUserHandler)(nil)
)

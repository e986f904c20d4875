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
	domainuser "automarket/internal/domain/user"
)

const (
	listSellerRequestsKey   = "admin.seller_requests.list"
	approveSellerRequestKey = "admin.seller_requests.approve"
	refuseSellerRequestKey  = "admin.seller_requests.refuse"
)

type ListSellerRequestsQuery struct{}

func (q ListSellerRequestsQuery) Key() string { return listSellerRequestsKey }

type ListSellerRequestsHandler struct {
	Requests domainuser.SellerRequestRepository
}

func (h *ListSellerRequestsHandler) Handle(ctx context.Context, _ ListSellerRequestsQuery) (dto.SellerRequestList, error) {
	items, err := h.Requests.ListPending(ctx)
	if err != nil {
		return dto.SellerRequestList{}, err
	}
	return dto.MapSellerRequests(items), nil
}

type ApproveSellerRequestCommand struct {
	AdminID   string
	RequestID string
}

func (c ApproveSellerRequestCommand) Key() string { return approveSellerRequestKey }

type RefuseSellerRequestCommand struct {
	AdminID   string
	RequestID string
}

func (c RefuseSellerRequestCommand) Key() string { return refuseSellerRequestKey }

type SellerRequestDecisionResult struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

type ApproveSellerRequestHandler struct {
	Users    domainuser.Repository
	Requests domainuser.SellerRequestRepository
	Logger   *slog.Logger
}

// Handle grants the seller role and records the decision. Approval is the only
// path to the seller role besides seeding.
func (h *ApproveSellerRequestHandler) Handle(ctx context.Context, cmd ApproveSellerRequestCommand) (*SellerRequestDecisionResult, error) {
	req, err := loadPendingRequest(ctx, h.Requests, cmd.AdminID, cmd.RequestID)
	if err != nil {
		return nil, err
	}

	account, err := h.Users.ByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := req.Approve(domainuser.ID(cmd.AdminID), now); err != nil {
		return nil, err
	}
	if err := account.EnsureRole(domainuser.RoleSeller, now); err != nil {
		return nil, err
	}
	if err := h.Users.Save(ctx, account); err != nil {
		return nil, err
	}
	if err := h.Requests.Save(ctx, req); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("seller request approved", "request_id", req.ID, "user_id", req.UserID, "admin_id", cmd.AdminID)
	}
	return &SellerRequestDecisionResult{RequestID: req.ID, Status: string(req.Status)}, nil
}

type RefuseSellerRequestHandler struct {
	Requests domainuser.SellerRequestRepository
	Logger   *slog.Logger
}

func (h *RefuseSellerRequestHandler) Handle(ctx context.Context, cmd RefuseSellerRequestCommand) (*SellerRequestDecisionResult, error) {
	req, err := loadPendingRequest(ctx, h.Requests, cmd.AdminID, cmd.RequestID)
	if err != nil {
		return nil, err
	}

	if err := req.Refuse(domainuser.ID(cmd.AdminID), time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := h.Requests.Save(ctx, req); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("seller request refused", "request_id", req.ID, "user_id", req.UserID, "admin_id", cmd.AdminID)
	}
	return &SellerRequestDecisionResult{RequestID: req.ID, Status: string(req.Status)}, nil
}

func loadPendingRequest(ctx context.Context, repo domainuser.SellerRequestRepository, adminID, requestID string) (*domainuser.SellerRequest, error) {
	if strings.TrimSpace(adminID) == "" {
		return nil, errors.New("admin id is required")
	}
	if strings.TrimSpace(requestID) == "" {
		return nil, errors.New("request id is required")
	}
	return repo.ByID(ctx, requestID)
}

var (
	_ queries.Handler[ListSellerRequestsQuery, dto.SellerRequestList]             = (*ListSellerRequestsHandler)(nil)
	_ commands.Handler[ApproveSellerRequestCommand, *SellerRequestDecisionResult] = (*ApproveSellerRequestHandler)(nil)
	_ commands.Handler[RefuseSellerRequestCommand, *SellerRequestDecisionResult]  = (*RefuseSellerRequestHandler)(nil)
)

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"carf-backend/internal/cache"
	"carf-backend/internal/model"
	"carf-backend/internal/repository"
	ws "carf-backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

// CustomerPayload carries the editable business fields of a request form.
// Workflow columns (status, chain, stamps) are never bound from input.
type CustomerPayload struct {
	RequestFor   string `json:"requestfor" binding:"required,oneof=ACTIVATION DEACTIVATION EDIT"`
	CustomerKind string `json:"type" binding:"required,oneof=PERSONAL CORPORATION"`
	CustType     string `json:"custtype"`

	CustomerName      string `json:"customername" binding:"required"`
	TradeName         string `json:"tradename"`
	TIN               string `json:"tin"`
	BusinessCenter    string `json:"businesscenter" binding:"required"`
	Company           string `json:"company" binding:"required"`
	SalesmanID        string `json:"salesman"`
	SalesmanName      string `json:"salesmanname"`
	ContactPerson     string `json:"contactperson"`
	ContactNumber     string `json:"contactnumber"`
	EmailAddress      string `json:"emailaddress" binding:"omitempty,email"`
	BillingAddress    string `json:"billingaddress"`
	DeliveryAddress   string `json:"deliveryaddress"`
	BusinessAddress   string `json:"businessaddress"`
	SECRegistrationNo string `json:"secregistrationno"`
	DTIRegistrationNo string `json:"dtiregistrationno"`

	CreditTerm  string          `json:"creditterm"`
	CreditLimit decimal.Decimal `json:"creditlimit"`
	WithVAT     bool            `json:"withvat"`
	PriceGroup  string          `json:"pricegroup"`

	TruckCap4W  bool `json:"truckcap4w"`
	TruckCap6W  bool `json:"truckcap6w"`
	TruckCap10W bool `json:"truckcap10w"`

	TargetVolumeLPG   decimal.Decimal `json:"targetvolumelpg"`
	TargetVolumeFuel  decimal.Decimal `json:"targetvolumefuel"`
	TargetVolumeLubes decimal.Decimal `json:"targetvolumelubes"`
}

func (p CustomerPayload) apply(req *model.CustomerRequest) {
	req.RequestFor = p.RequestFor
	req.CustomerKind = p.CustomerKind
	req.CustType = p.CustType
	req.CustomerName = p.CustomerName
	req.TradeName = p.TradeName
	req.TIN = p.TIN
	req.BusinessCenter = p.BusinessCenter
	req.Company = p.Company
	req.SalesmanID = p.SalesmanID
	req.SalesmanName = p.SalesmanName
	req.ContactPerson = p.ContactPerson
	req.ContactNumber = p.ContactNumber
	req.EmailAddress = p.EmailAddress
	req.BillingAddress = p.BillingAddress
	req.DeliveryAddress = p.DeliveryAddress
	req.BusinessAddress = p.BusinessAddress
	req.SECRegistrationNo = p.SECRegistrationNo
	req.DTIRegistrationNo = p.DTIRegistrationNo
	req.CreditTerm = p.CreditTerm
	req.CreditLimit = p.CreditLimit
	req.WithVAT = p.WithVAT
	req.PriceGroup = p.PriceGroup
	req.TruckCap4W = p.TruckCap4W
	req.TruckCap6W = p.TruckCap6W
	req.TruckCap10W = p.TruckCap10W
	req.TargetVolumeLPG = p.TargetVolumeLPG
	req.TargetVolumeFuel = p.TargetVolumeFuel
	req.TargetVolumeLubes = p.TargetVolumeLubes
}

// ReturnRequestDTO carries the mandatory return-to-maker reason.
type ReturnRequestDTO struct {
	Remarks string `json:"remarks" binding:"required"`
}

// DashboardStats summarizes request counts for the dashboard.
type DashboardStats struct {
	ByStatus         map[string]int64 `json:"by_status"`
	ByBusinessCenter map[string]int64 `json:"by_business_center"`
}

// --- Errors ---

var (
	ErrNotMaker        = errors.New("only the maker may modify this request")
	ErrNotNextApprover = errors.New("user is not the current next approver")
	ErrNotAuthorized   = errors.New("user may not act on this request")
	ErrNoMatrix        = errors.New("no approval matrix configured for business center and company")
)

// --- Interface ---

type CustomerService interface {
	CreateDraft(ctx context.Context, makerID string, payload CustomerPayload) (*model.CustomerRequest, error)
	UpdateDraft(ctx context.Context, id, userID string, payload CustomerPayload) (*model.CustomerRequest, error)
	Submit(ctx context.Context, id, userID string) (*model.CustomerRequest, error)
	Approve(ctx context.Context, id, userID string) (*model.CustomerRequest, error)
	Cancel(ctx context.Context, id, userID string) (*model.CustomerRequest, error)
	Return(ctx context.Context, id, userID, remarks string) (*model.CustomerRequest, error)
	Get(ctx context.Context, id string) (*model.CustomerRequest, error)
	GetByGencode(ctx context.Context, gencode string) (*model.CustomerRequest, error)
	List(ctx context.Context, view, businessCenter, userID string, page, limit int) ([]model.CustomerRequest, int64, error)
	Stats(ctx context.Context) (*DashboardStats, error)
}

type customerService struct {
	repo       repository.CustomerRepository
	matrixRepo repository.MatrixRepository
	userRepo   repository.UserRepository
	auditRepo  repository.AuditRepository
	txm        repository.TransactionManager
	hub        *ws.Hub
	cache      *cache.Cache
}

// NewCustomerService wires the workflow service. hub and cache may be nil.
func NewCustomerService(
	repo repository.CustomerRepository,
	matrixRepo repository.MatrixRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txm repository.TransactionManager,
	hub *ws.Hub,
	listCache *cache.Cache,
) CustomerService {
	return &customerService{
		repo:       repo,
		matrixRepo: matrixRepo,
		userRepo:   userRepo,
		auditRepo:  auditRepo,
		txm:        txm,
		hub:        hub,
		cache:      listCache,
	}
}

// --- Implementation ---

const gencodePrefixFormat = "CARF-20060102-"

func (s *customerService) generateGencode(ctx context.Context) (string, error) {
	prefix := time.Now().Format(gencodePrefixFormat)
	seq, err := s.repo.NextGencodeSeq(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to generate gencode: %w", err)
	}
	return fmt.Sprintf("%s%05d", prefix, seq), nil
}

func (s *customerService) audit(ctx context.Context, userID *uuid.UUID, action string, req *model.CustomerRequest, extra map[string]interface{}) error {
	payload := map[string]interface{}{
		"gencode": req.Gencode,
		"status":  string(req.ApproveStatus),
	}
	for k, v := range extra {
		payload[k] = v
	}
	details, _ := json.Marshal(payload)
	return s.auditRepo.Log(ctx, &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   req.Gencode,
		EntityName: req.CustomerName,
		Details:    string(details),
	})
}

func (s *customerService) actorName(ctx context.Context, userID string) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	return user.FullName
}

func (s *customerService) afterWrite(ctx context.Context, req *model.CustomerRequest, actor string) {
	s.cache.InvalidateCustomers(ctx)
	s.hub.NotifyStatus(req.Gencode, req.ApproveStatus, actor)
}

func (s *customerService) CreateDraft(ctx context.Context, makerID string, payload CustomerPayload) (*model.CustomerRequest, error) {
	uid, err := uuid.Parse(makerID)
	if err != nil {
		return nil, fmt.Errorf("invalid maker id: %w", err)
	}

	maker, err := s.userRepo.GetByID(ctx, makerID)
	if err != nil {
		return nil, fmt.Errorf("maker not found: %w", err)
	}

	var req *model.CustomerRequest
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		gencode, genErr := s.generateGencode(txCtx)
		if genErr != nil {
			return genErr
		}

		req = &model.CustomerRequest{
			Gencode:       gencode,
			ApproveStatus: model.StatusDraft,
			MakerID:       &uid,
			MakerName:     maker.FullName,
		}
		payload.apply(req)

		if createErr := s.repo.Create(txCtx, req); createErr != nil {
			return fmt.Errorf("failed to create request: %w", createErr)
		}
		return s.audit(txCtx, &uid, model.ActionCreateDraft, req, nil)
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, req, maker.FullName)
	return req, nil
}

func (s *customerService) UpdateDraft(ctx context.Context, id, userID string, payload CustomerPayload) (*model.CustomerRequest, error) {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	var req *model.CustomerRequest
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		req, findErr = s.repo.FindByID(txCtx, reqID)
		if findErr != nil {
			return fmt.Errorf("request not found: %w", findErr)
		}

		if req.ApproveStatus != model.StatusDraft && req.ApproveStatus != model.StatusReturnToMaker {
			return fmt.Errorf("request %s is %s: %w", req.Gencode, req.ApproveStatus, model.ErrInvalidTransition)
		}
		if req.MakerID == nil || *req.MakerID != uid {
			return ErrNotMaker
		}

		payload.apply(req)
		if updateErr := s.repo.Update(txCtx, req); updateErr != nil {
			return fmt.Errorf("failed to update request: %w", updateErr)
		}
		return s.audit(txCtx, &uid, model.ActionUpdateDraft, req, nil)
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, req, s.actorName(ctx, userID))
	return req, nil
}

// Submit moves a draft or returned request to PENDING, routing it to the
// approval chain configured for its business center and company. Each
// submission recomputes the chain and clears earlier approval stamps.
func (s *customerService) Submit(ctx context.Context, id, userID string) (*model.CustomerRequest, error) {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	var req *model.CustomerRequest
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		req, findErr = s.repo.FindByID(txCtx, reqID)
		if findErr != nil {
			return fmt.Errorf("request not found: %w", findErr)
		}

		next, trErr := model.Transition(req.ApproveStatus, model.StatusPending)
		if trErr != nil {
			return fmt.Errorf("cannot submit request %s from %q: %w", req.Gencode, req.ApproveStatus, trErr)
		}
		if req.MakerID == nil || *req.MakerID != uid {
			return ErrNotMaker
		}

		matrix, mErr := s.matrixRepo.Lookup(txCtx, req.BusinessCenter, req.Company)
		if mErr != nil || len(matrix.Approvers) == 0 {
			return fmt.Errorf("%w: %s / %s", ErrNoMatrix, req.BusinessCenter, req.Company)
		}

		now := time.Now()
		if req.DateCreated == nil {
			req.DateCreated = &now
		}
		req.ApproveStatus = next
		req.NextApprovers = append(model.ApproverChain{}, matrix.Approvers...)
		clearStamps(req)

		if updateErr := s.repo.Update(txCtx, req); updateErr != nil {
			return fmt.Errorf("failed to update request: %w", updateErr)
		}
		head, _ := req.NextApprovers.Head()
		return s.audit(txCtx, &uid, model.ActionSubmitRequest, req, map[string]interface{}{
			"next_approver": head.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, req, s.actorName(ctx, userID))
	return req, nil
}

// Approve records the current next approver's decision. Intermediate
// approvers stamp the first free chain slot and pass the row on; the last
// approver stamps the final slot and the request becomes APPROVED.
func (s *customerService) Approve(ctx context.Context, id, userID string) (*model.CustomerRequest, error) {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	var req *model.CustomerRequest
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		req, findErr = s.repo.FindByID(txCtx, reqID)
		if findErr != nil {
			return fmt.Errorf("request not found: %w", findErr)
		}

		if req.ApproveStatus != model.StatusPending {
			return fmt.Errorf("request %s is %s: %w", req.Gencode, req.ApproveStatus, model.ErrInvalidTransition)
		}
		head, ok := req.NextApprovers.Head()
		if !ok || head.UserID != uid {
			return ErrNotNextApprover
		}

		now := time.Now()
		if len(req.NextApprovers) == 1 {
			// Last in the chain: final stamp and terminal transition.
			next, trErr := model.Transition(req.ApproveStatus, model.StatusApproved)
			if trErr != nil {
				return trErr
			}
			req.FinalApproverID = &head.UserID
			req.FinalApproverName = head.Name
			req.FinalApproveDate = &now
			req.ApproveStatus = next
			req.NextApprovers = nil
		} else {
			stampIntermediate(req, head, now)
			req.NextApprovers = append(model.ApproverChain{}, req.NextApprovers[1:]...)
		}

		if updateErr := s.repo.Update(txCtx, req); updateErr != nil {
			return fmt.Errorf("failed to update request: %w", updateErr)
		}
		return s.audit(txCtx, &uid, model.ActionApproveRequest, req, map[string]interface{}{
			"approver": head.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, req, s.actorName(ctx, userID))
	return req, nil
}

// Cancel is terminal. Allowed for the maker, anyone still in the chain, or an admin.
func (s *customerService) Cancel(ctx context.Context, id, userID string) (*model.CustomerRequest, error) {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	var req *model.CustomerRequest
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		req, findErr = s.repo.FindByID(txCtx, reqID)
		if findErr != nil {
			return fmt.Errorf("request not found: %w", findErr)
		}

		next, trErr := model.Transition(req.ApproveStatus, model.StatusCancelled)
		if trErr != nil {
			return fmt.Errorf("cannot cancel request %s from %q: %w", req.Gencode, req.ApproveStatus, trErr)
		}

		isMaker := req.MakerID != nil && *req.MakerID == uid
		if !isMaker && !req.NextApprovers.Contains(uid) && user.Role != model.RoleAdmin {
			return ErrNotAuthorized
		}

		req.ApproveStatus = next
		req.NextApprovers = nil

		if updateErr := s.repo.Update(txCtx, req); updateErr != nil {
			return fmt.Errorf("failed to update request: %w", updateErr)
		}
		return s.audit(txCtx, &uid, model.ActionCancelRequest, req, nil)
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, req, user.FullName)
	return req, nil
}

// Return sends a pending request back to its maker with a mandatory reason,
// rewinding the chain so a resubmission starts the cycle over.
func (s *customerService) Return(ctx context.Context, id, userID, remarks string) (*model.CustomerRequest, error) {
	if remarks == "" {
		return nil, errors.New("remarks are required when returning to maker")
	}
	reqID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	var req *model.CustomerRequest
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		req, findErr = s.repo.FindByID(txCtx, reqID)
		if findErr != nil {
			return fmt.Errorf("request not found: %w", findErr)
		}

		next, trErr := model.Transition(req.ApproveStatus, model.StatusReturnToMaker)
		if trErr != nil {
			return fmt.Errorf("cannot return request %s from %q: %w", req.Gencode, req.ApproveStatus, trErr)
		}
		head, ok := req.NextApprovers.Head()
		if !ok || head.UserID != uid {
			return ErrNotNextApprover
		}

		req.ApproveStatus = next
		req.Remarks = remarks
		req.NextApprovers = nil
		clearStamps(req)

		if updateErr := s.repo.Update(txCtx, req); updateErr != nil {
			return fmt.Errorf("failed to update request: %w", updateErr)
		}
		return s.audit(txCtx, &uid, model.ActionReturnRequest, req, map[string]interface{}{
			"remarks": remarks,
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, req, s.actorName(ctx, userID))
	return req, nil
}

func (s *customerService) Get(ctx context.Context, id string) (*model.CustomerRequest, error) {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}
	return s.repo.FindByID(ctx, reqID)
}

func (s *customerService) GetByGencode(ctx context.Context, gencode string) (*model.CustomerRequest, error) {
	return s.repo.FindByGencode(ctx, gencode)
}

// viewStatus maps list-view names to their status predicate.
var viewStatus = map[string]model.Status{
	"draft":     model.StatusDraft,
	"pending":   model.StatusPending,
	"approved":  model.StatusApproved,
	"cancelled": model.StatusCancelled,
	"returned":  model.StatusReturnToMaker,
}

// List serves the status-filtered list screens plus the for-approval view.
// Results are cached briefly; every workflow write invalidates the cache.
func (s *customerService) List(ctx context.Context, view, businessCenter, userID string, page, limit int) ([]model.CustomerRequest, int64, error) {
	type cached struct {
		Rows  []model.CustomerRequest `json:"rows"`
		Total int64                   `json:"total"`
	}

	cacheKey := fmt.Sprintf("%s:%s:%s:%d:%d", view, businessCenter, userID, page, limit)
	if data, ok := s.cache.GetCustomerList(ctx, cacheKey); ok {
		var hit cached
		if err := json.Unmarshal(data, &hit); err == nil {
			return hit.Rows, hit.Total, nil
		}
	}

	var (
		rows  []model.CustomerRequest
		total int64
		err   error
	)
	switch view {
	case "forapproval":
		uid, parseErr := uuid.Parse(userID)
		if parseErr != nil {
			return nil, 0, fmt.Errorf("invalid user id: %w", parseErr)
		}
		rows, total, err = s.repo.ListForApprover(ctx, uid, page, limit)
	case "all", "":
		rows, total, err = s.repo.List(ctx, repository.CustomerFilter{
			BusinessCenter: businessCenter, Page: page, Limit: limit,
		})
	default:
		status, ok := viewStatus[view]
		if !ok {
			return nil, 0, fmt.Errorf("unknown list view %q", view)
		}
		rows, total, err = s.repo.List(ctx, repository.CustomerFilter{
			Status: &status, BusinessCenter: businessCenter, Page: page, Limit: limit,
		})
	}
	if err != nil {
		return nil, 0, err
	}

	if data, marshalErr := json.Marshal(cached{Rows: rows, Total: total}); marshalErr == nil {
		s.cache.SetCustomerList(ctx, cacheKey, data)
	}
	return rows, total, nil
}

func (s *customerService) Stats(ctx context.Context) (*DashboardStats, error) {
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	byBC, err := s.repo.CountByBusinessCenter(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count by business center: %w", err)
	}

	stats := &DashboardStats{
		ByStatus:         make(map[string]int64, len(byStatus)),
		ByBusinessCenter: byBC,
	}
	for status, n := range byStatus {
		name := string(status)
		if name == "" {
			name = "DRAFT"
		}
		stats.ByStatus[name] = n
	}
	return stats, nil
}

// --- Helpers ---

func clearStamps(req *model.CustomerRequest) {
	req.FirstApproverID, req.FirstApproverName, req.InitialApproveDate = nil, "", nil
	req.SecondApproverID, req.SecondApproverName, req.SecondApproveDate = nil, "", nil
	req.ThirdApproverID, req.ThirdApproverName, req.ThirdApproveDate = nil, "", nil
	req.FinalApproverID, req.FinalApproverName, req.FinalApproveDate = nil, "", nil
}

// stampIntermediate fills the first free non-final slot.
func stampIntermediate(req *model.CustomerRequest, entry model.ChainEntry, at time.Time) {
	switch {
	case req.FirstApproverID == nil:
		req.FirstApproverID = &entry.UserID
		req.FirstApproverName = entry.Name
		req.InitialApproveDate = &at
	case req.SecondApproverID == nil:
		req.SecondApproverID = &entry.UserID
		req.SecondApproverName = entry.Name
		req.SecondApproveDate = &at
	default:
		req.ThirdApproverID = &entry.UserID
		req.ThirdApproverName = entry.Name
		req.ThirdApproveDate = &at
	}
}

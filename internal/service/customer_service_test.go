package service

import (
	"context"
	"strings"
	"testing"

	"carf-backend/internal/model"
	"carf-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- in-memory stubs ---

type stubTxManager struct{}

func (stubTxManager) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type stubCustomerRepo struct {
	rows map[uuid.UUID]*model.CustomerRequest
	seq  int
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{rows: make(map[uuid.UUID]*model.CustomerRequest)}
}

func (r *stubCustomerRepo) Create(_ context.Context, req *model.CustomerRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	clone := *req
	r.rows[req.ID] = &clone
	return nil
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CustomerRequest, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *row
	return &clone, nil
}

func (r *stubCustomerRepo) FindByGencode(_ context.Context, gencode string) (*model.CustomerRequest, error) {
	for _, row := range r.rows {
		if row.Gencode == gencode {
			clone := *row
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCustomerRepo) List(_ context.Context, filter repository.CustomerFilter) ([]model.CustomerRequest, int64, error) {
	var out []model.CustomerRequest
	for _, row := range r.rows {
		if filter.Status != nil && row.ApproveStatus != *filter.Status {
			continue
		}
		if filter.BusinessCenter != "" && row.BusinessCenter != filter.BusinessCenter {
			continue
		}
		out = append(out, *row)
	}
	return out, int64(len(out)), nil
}

func (r *stubCustomerRepo) ListForApprover(_ context.Context, approverID uuid.UUID, _, _ int) ([]model.CustomerRequest, int64, error) {
	var out []model.CustomerRequest
	for _, row := range r.rows {
		if row.ApproveStatus != model.StatusPending {
			continue
		}
		if head, ok := row.NextApprovers.Head(); ok && head.UserID == approverID {
			out = append(out, *row)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubCustomerRepo) Update(_ context.Context, req *model.CustomerRequest) error {
	if _, ok := r.rows[req.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *req
	r.rows[req.ID] = &clone
	return nil
}

func (r *stubCustomerRepo) CountByStatus(_ context.Context) (map[model.Status]int64, error) {
	out := make(map[model.Status]int64)
	for _, row := range r.rows {
		out[row.ApproveStatus]++
	}
	return out, nil
}

func (r *stubCustomerRepo) CountByBusinessCenter(_ context.Context) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, row := range r.rows {
		out[row.BusinessCenter]++
	}
	return out, nil
}

func (r *stubCustomerRepo) NextGencodeSeq(_ context.Context, _ string) (int, error) {
	r.seq++
	return r.seq, nil
}

type stubMatrixRepo struct {
	matrices map[string]*model.ApprovalMatrix
}

func matrixKey(bc, company string) string { return bc + "|" + company }

func (r *stubMatrixRepo) Create(_ context.Context, m *model.ApprovalMatrix) error {
	r.matrices[matrixKey(m.BusinessCenter, m.Company)] = m
	return nil
}
func (r *stubMatrixRepo) FindByID(_ context.Context, _ uuid.UUID) (*model.ApprovalMatrix, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubMatrixRepo) Lookup(_ context.Context, bc, company string) (*model.ApprovalMatrix, error) {
	m, ok := r.matrices[matrixKey(bc, company)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}
func (r *stubMatrixRepo) List(_ context.Context, _, _ int) ([]model.ApprovalMatrix, int64, error) {
	return nil, 0, nil
}
func (r *stubMatrixRepo) Update(_ context.Context, _ *model.ApprovalMatrix) error { return nil }
func (r *stubMatrixRepo) Delete(_ context.Context, _ uuid.UUID) error             { return nil }

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *stubUserRepo) Create(_ context.Context, _ *model.User) error { return nil }
func (r *stubUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	user, ok := r.users[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}
func (r *stubUserRepo) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubUserRepo) GetByUsername(_ context.Context, _ string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubUserRepo) List(_ context.Context, _, _ int) ([]model.User, int64, error) {
	return nil, 0, nil
}
func (r *stubUserRepo) Update(_ context.Context, _ *model.User) error { return nil }
func (r *stubUserRepo) Delete(_ context.Context, _ string) error      { return nil }

type stubAuditRepo struct {
	entries []model.AuditLog
}

func (r *stubAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}
func (r *stubAuditRepo) List(_ context.Context, _, _ int) ([]model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}
func (r *stubAuditRepo) ListByEntity(_ context.Context, entityID string, _, _ int) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, e := range r.entries {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

// --- fixture ---

type workflowFixture struct {
	svc       CustomerService
	repo      *stubCustomerRepo
	audit     *stubAuditRepo
	maker     *model.User
	approver1 *model.User
	approver2 *model.User
	admin     *model.User
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()

	maker := &model.User{ID: uuid.New(), Username: "maker1", FullName: "Maria Maker", Role: model.RoleMaker}
	approver1 := &model.User{ID: uuid.New(), Username: "appr1", FullName: "Alice Approver", Role: model.RoleApprover}
	approver2 := &model.User{ID: uuid.New(), Username: "appr2", FullName: "Bob Approver", Role: model.RoleApprover}
	admin := &model.User{ID: uuid.New(), Username: "root", FullName: "Ada Admin", Role: model.RoleAdmin}

	userRepo := &stubUserRepo{users: map[uuid.UUID]*model.User{
		maker.ID:     maker,
		approver1.ID: approver1,
		approver2.ID: approver2,
		admin.ID:     admin,
	}}

	matrixRepo := &stubMatrixRepo{matrices: map[string]*model.ApprovalMatrix{}}
	require.NoError(t, matrixRepo.Create(context.Background(), &model.ApprovalMatrix{
		ID:             uuid.New(),
		BusinessCenter: "BC-NORTH",
		Company:        "ACME",
		Approvers: model.ApproverChain{
			{UserID: approver1.ID, Name: approver1.FullName},
			{UserID: approver2.ID, Name: approver2.FullName},
		},
	}))

	repo := newStubCustomerRepo()
	audit := &stubAuditRepo{}
	svc := NewCustomerService(repo, matrixRepo, userRepo, audit, stubTxManager{}, nil, nil)

	return &workflowFixture{
		svc:       svc,
		repo:      repo,
		audit:     audit,
		maker:     maker,
		approver1: approver1,
		approver2: approver2,
		admin:     admin,
	}
}

func (f *workflowFixture) payload() CustomerPayload {
	return CustomerPayload{
		RequestFor:     model.RequestForActivation,
		CustomerKind:   model.CustomerTypeCorporation,
		CustomerName:   "Acme Trading Corp",
		BusinessCenter: "BC-NORTH",
		Company:        "ACME",
		EmailAddress:   "ops@acme.example",
	}
}

func (f *workflowFixture) draft(t *testing.T) *model.CustomerRequest {
	t.Helper()
	req, err := f.svc.CreateDraft(context.Background(), f.maker.ID.String(), f.payload())
	require.NoError(t, err)
	return req
}

// --- tests ---

func TestCreateDraftAssignsGencode(t *testing.T) {
	t.Parallel()
	f := newWorkflowFixture(t)

	req := f.draft(t)

	assert.Equal(t, model.StatusDraft, req.ApproveStatus)
	assert.True(t, strings.HasPrefix(req.Gencode, "CARF-"), "gencode %q", req.Gencode)
	assert.True(t, strings.HasSuffix(req.Gencode, "-00001"), "gencode %q", req.Gencode)
	require.NotNil(t, req.MakerID)
	assert.Equal(t, f.maker.ID, *req.MakerID)
	assert.Equal(t, "Maria Maker", req.MakerName)

	second := f.draft(t)
	assert.NotEqual(t, req.Gencode, second.Gencode)
}

func TestSubmitRoutesToMatrixChain(t *testing.T) {
	t.Parallel()
	f := newWorkflowFixture(t)
	req := f.draft(t)

	submitted, err := f.svc.Submit(context.Background(), req.ID.String(), f.maker.ID.String())
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, submitted.ApproveStatus)
	require.Len(t, submitted.NextApprovers, 2)
	head, ok := submitted.NextApprovers.Head()
	require.True(t, ok)
	assert.Equal(t, f.approver1.ID, head.UserID)
	assert.NotNil(t, submitted.DateCreated)
}

func TestSubmitRejectsNonMaker(t *testing.T) {
	t.Parallel()
	f := newWorkflowFixture(t)
	req := f.draft(t)

	_, err := f.svc.Submit(context.Background(), req.ID.String(), f.approver1.ID.String())
	assert.ErrorIs(t, err, ErrNotMaker)
}

func TestSubmitFailsWithoutMatrix(t *testing.T) {
	t.Parallel()
	f := newWorkflowFixture(t)

	payload := f.payload()
	payload.BusinessCenter = "BC-UNMAPPED"
	req, err := f.svc.CreateDraft(context.Background(), f.maker.ID.String(), payload)
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), req.ID.String(), f.maker.ID.String())
	assert.ErrorIs(t, err, ErrNoMatrix)
}

func TestFullApprovalChain(t *testing.T) {
	t.Parallel()
	f := newWorkflowFixture(t)
	req := f.draft(t)

	_, err := f.svc.Submit(context.Background(), req.ID.String(), f.maker.ID.String())
	require.NoError(t, err)

	// Second approver cannot jump the queue.
	_, err = f.svc.Approve(context.Background(), req.ID.String(), f.approver2.ID.String())
	assert.ErrorIs(t, err, ErrNotNextApprover)

	// First approver stamps the first slot and stays PENDING.
	mid, err := f.svc.Approve(context.Background(), req.ID.String(), f.approver1.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, mid.ApproveStatus)
	require.NotNil(t, mid.FirstApproverID)
	assert.Equal(t, f.approver1.ID, *mid.FirstApproverID)
	assert.Equal(t, "Alice Approver", mid.FirstApproverName)
	assert.NotNil(t, mid.InitialApproveDate)
	require.Len(t, mid.NextApprovers, 1)

	// Last approver finalizes.
	final, err := f.svc.Approve(context.Background(), req.ID.String(), f.approver2.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, final.ApproveStatus)
	require.NotNil(t, final.FinalApproverID)
	assert.Equal(t, f.approver2.ID, *final.FinalApproverID)
	assert.NotNil(t, final.FinalApproveDate)
	assert.Empty(t, final.NextApprovers)

	// Terminal: no further actions.
	_, err = f.svc.Cancel(context.Background(), req.ID.String(), f.maker.ID.String())
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	_, err = f.svc.Approve(context.Background(), req.ID.String(), f.approver2.ID.String())
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestReturnToMakerAndResubmit(t *testing.T) {
	t.Parallel()
	f := newWorkflowFixture(t)
	req := f.draft(t)

	_, err := f.svc.Submit(context.Background(), req.ID.String(), f.maker.ID.String())
	require.NoError(t, err)

	// Return requires remarks.
	_, err = f.svc.Return(context.Background(), req.ID.String(), f.approver1.ID.String(), "")
	assert.Error(t, err)

	returned, err := f.svc.Return(context.Background(), req.ID.String(), f.approver1.ID.String(), "TIN missing")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReturnToMaker, returned.ApproveStatus)
	assert.Equal(t, "TIN missing", returned.Remarks)
	assert.Empty(t, returned.NextApprovers)

	// Maker edits and resubmits; the chain starts over from the first level.
	payload := f.payload()
	payload.TIN = "123-456-789"
	_, err = f.svc.UpdateDraft(context.Background(), req.ID.String(), f.maker.ID.String(), payload)
	require.NoError(t, err)

	resubmitted, err := f.svc.Submit(context.Background(), req.ID.String(), f.maker.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, resubmitted.ApproveStatus)
	require.Len(t, resubmitted.NextApprovers, 2)
	head, _ := resubmitted.NextApprovers.Head()
	assert.Equal(t, f.approver1.ID, head.UserID)
	assert.Nil(t, resubmitted.FirstApproverID, "stamps must clear on resubmission")

	// Gencode survives the round trip unchanged.
	assert.Equal(t, req.Gencode, resubmitted.Gencode)
}

func TestCancelAuthorization(t *testing.T) {
	t.Parallel()
	f := newWorkflowFixture(t)

	outsider := &model.User{ID: uuid.New(), Username: "other", FullName: "Oscar Other", Role: model.RoleMaker}
	f.repoUsers(t)[outsider.ID] = outsider

	req := f.draft(t)
	_, err := f.svc.Submit(context.Background(), req.ID.String(), f.maker.ID.String())
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), req.ID.String(), outsider.ID.String())
	assert.ErrorIs(t, err, ErrNotAuthorized)

	cancelled, err := f.svc.Cancel(context.Background(), req.ID.String(), f.admin.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.ApproveStatus)
	assert.Empty(t, cancelled.NextApprovers)
}

// repoUsers reaches into the stub user repo for test setup.
func (f *workflowFixture) repoUsers(t *testing.T) map[uuid.UUID]*model.User {
	t.Helper()
	svc, ok := f.svc.(*customerService)
	require.True(t, ok)
	repo, ok := svc.userRepo.(*stubUserRepo)
	require.True(t, ok)
	return repo.users
}

func TestUpdateDraftRejectedWhilePending(t *testing.T) {
	t.Parallel()
	f := newWorkflowFixture(t)
	req := f.draft(t)

	_, err := f.svc.Submit(context.Background(), req.ID.String(), f.maker.ID.String())
	require.NoError(t, err)

	_, err = f.svc.UpdateDraft(context.Background(), req.ID.String(), f.maker.ID.String(), f.payload())
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestWorkflowWritesAuditTrail(t *testing.T) {
	t.Parallel()
	f := newWorkflowFixture(t)
	req := f.draft(t)

	_, err := f.svc.Submit(context.Background(), req.ID.String(), f.maker.ID.String())
	require.NoError(t, err)
	_, err = f.svc.Approve(context.Background(), req.ID.String(), f.approver1.ID.String())
	require.NoError(t, err)

	actions := make([]string, 0, len(f.audit.entries))
	for _, e := range f.audit.entries {
		assert.Equal(t, req.Gencode, e.EntityID)
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{
		model.ActionCreateDraft,
		model.ActionSubmitRequest,
		model.ActionApproveRequest,
	}, actions)
}

func TestListViews(t *testing.T) {
	t.Parallel()
	f := newWorkflowFixture(t)

	draft := f.draft(t)
	submitted := f.draft(t)
	_, err := f.svc.Submit(context.Background(), submitted.ID.String(), f.maker.ID.String())
	require.NoError(t, err)

	pending, total, err := f.svc.List(context.Background(), "pending", "", "", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, pending, 1)
	assert.Equal(t, submitted.Gencode, pending[0].Gencode)

	forApproval, total, err := f.svc.List(context.Background(), "forapproval", "", f.approver1.ID.String(), 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, forApproval, 1)

	_, total, err = f.svc.List(context.Background(), "draft", "", "", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, _, err = f.svc.List(context.Background(), "bogus", "", "", 1, 20)
	assert.Error(t, err)

	_ = draft
}

func TestStats(t *testing.T) {
	t.Parallel()
	f := newWorkflowFixture(t)

	f.draft(t)
	submitted := f.draft(t)
	_, err := f.svc.Submit(context.Background(), submitted.ID.String(), f.maker.ID.String())
	require.NoError(t, err)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.ByStatus["DRAFT"])
	assert.EqualValues(t, 1, stats.ByStatus[string(model.StatusPending)])
	assert.EqualValues(t, 2, stats.ByBusinessCenter["BC-NORTH"])
}

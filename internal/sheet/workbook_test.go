package sheet

import (
	"context"
	"testing"

	"carf-backend/internal/model"
	"carf-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestWorkbook() *Workbook {
	return NewWorkbook(afero.NewMemMapFs(), "sheets")
}

func TestAppendRowNumbersRows(t *testing.T) {
	t.Parallel()
	wb := newTestWorkbook()

	n1, err := wb.AppendRow(TabCustomerData, map[string]string{"gencode": "A", "customername": "First"})
	require.NoError(t, err)
	n2, err := wb.AppendRow(TabCustomerData, map[string]string{"gencode": "B", "customername": "Second"})
	require.NoError(t, err)

	assert.Equal(t, 1, n1)
	assert.Equal(t, 2, n2)

	rows, err := wb.ReadAll(TabCustomerData)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0][NumberColumn])
	assert.Equal(t, "A", rows[0]["gencode"])
	assert.Equal(t, "2", rows[1][NumberColumn])
}

func TestAppendRowGrowsHeader(t *testing.T) {
	t.Parallel()
	wb := newTestWorkbook()

	_, err := wb.AppendRow(TabBOSData, map[string]string{"gencode": "A"})
	require.NoError(t, err)
	_, err = wb.AppendRow(TabBOSData, map[string]string{"gencode": "B", "remarks": "late column"})
	require.NoError(t, err)

	rows, err := wb.ReadAll(TabBOSData)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Older rows gain the new column as an empty cell.
	assert.Equal(t, "", rows[0]["remarks"])
	assert.Equal(t, "late column", rows[1]["remarks"])
}

func TestUpdateRowByKey(t *testing.T) {
	t.Parallel()
	wb := newTestWorkbook()

	_, err := wb.AppendRow(TabCustomerData, map[string]string{"gencode": "A", "approvestatus": ""})
	require.NoError(t, err)
	_, err = wb.AppendRow(TabCustomerData, map[string]string{"gencode": "B", "approvestatus": ""})
	require.NoError(t, err)

	err = wb.UpdateRow(TabCustomerData, "gencode", "B", map[string]string{"approvestatus": "PENDING"})
	require.NoError(t, err)

	rows, err := wb.ReadAll(TabCustomerData)
	require.NoError(t, err)
	assert.Equal(t, "", rows[0]["approvestatus"])
	assert.Equal(t, "PENDING", rows[1]["approvestatus"])
	// Row numbers survive updates.
	assert.Equal(t, "2", rows[1][NumberColumn])

	err = wb.UpdateRow(TabCustomerData, "gencode", "Z", map[string]string{"approvestatus": "PENDING"})
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestReadAllMissingTab(t *testing.T) {
	t.Parallel()
	wb := newTestWorkbook()

	rows, err := wb.ReadAll(TabExecEmail)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

// --- customer store on top of the workbook ---

func newTestCustomerStore() repository.CustomerRepository {
	return NewCustomerStore(newTestWorkbook())
}

func sampleRequest(gencode string, status model.Status) *model.CustomerRequest {
	return &model.CustomerRequest{
		ID:             uuid.New(),
		Gencode:        gencode,
		ApproveStatus:  status,
		RequestFor:     model.RequestForActivation,
		CustomerKind:   model.CustomerTypePersonal,
		CustomerName:   "Juan dela Cruz",
		BusinessCenter: "BC-SOUTH",
		Company:        "ACME",
	}
}

func TestCustomerStoreRoundTrip(t *testing.T) {
	t.Parallel()
	store := newTestCustomerStore()
	ctx := context.Background()

	req := sampleRequest("CARF-20250101-00001", model.StatusDraft)
	require.NoError(t, store.Create(ctx, req))

	byID, err := store.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.Gencode, byID.Gencode)
	assert.Equal(t, req.CustomerName, byID.CustomerName)

	byGencode, err := store.FindByGencode(ctx, req.Gencode)
	require.NoError(t, err)
	assert.Equal(t, req.ID, byGencode.ID)

	_, err = store.FindByGencode(ctx, "CARF-NOPE")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCustomerStoreUpdatePersistsWorkflowState(t *testing.T) {
	t.Parallel()
	store := newTestCustomerStore()
	ctx := context.Background()

	req := sampleRequest("CARF-20250101-00001", model.StatusDraft)
	require.NoError(t, store.Create(ctx, req))

	approver := uuid.New()
	req.ApproveStatus = model.StatusPending
	req.NextApprovers = model.ApproverChain{{UserID: approver, Name: "Alice Approver"}}
	require.NoError(t, store.Update(ctx, req))

	got, err := store.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.ApproveStatus)
	require.Len(t, got.NextApprovers, 1)
	assert.Equal(t, approver, got.NextApprovers[0].UserID)

	rows, total, err := store.ListForApprover(ctx, approver, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
}

func TestCustomerStoreListFilters(t *testing.T) {
	t.Parallel()
	store := newTestCustomerStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sampleRequest("CARF-20250101-00001", model.StatusDraft)))
	require.NoError(t, store.Create(ctx, sampleRequest("CARF-20250101-00002", model.StatusPending)))
	require.NoError(t, store.Create(ctx, sampleRequest("CARF-20250101-00003", model.StatusPending)))

	pending := model.StatusPending
	rows, total, err := store.List(ctx, repository.CustomerFilter{Status: &pending, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, rows, 2)

	// The draft status (empty string) filters explicitly via the pointer.
	draft := model.StatusDraft
	rows, total, err = store.List(ctx, repository.CustomerFilter{Status: &draft, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, rows, 1)

	counts, err := store.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[model.StatusDraft])
	assert.EqualValues(t, 2, counts[model.StatusPending])
}

func TestCustomerStoreGencodeSequence(t *testing.T) {
	t.Parallel()
	store := newTestCustomerStore()
	ctx := context.Background()

	const prefix = "CARF-20250101-"

	seq, err := store.NextGencodeSeq(ctx, prefix)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	require.NoError(t, store.Create(ctx, sampleRequest(prefix+"00007", model.StatusDraft)))
	require.NoError(t, store.Create(ctx, sampleRequest("CARF-20241231-00099", model.StatusDraft)))

	seq, err = store.NextGencodeSeq(ctx, prefix)
	require.NoError(t, err)
	assert.Equal(t, 8, seq, "sequence continues after the highest row with the prefix")
}

package sheet

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"carf-backend/internal/model"
	"carf-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// customerStore implements repository.CustomerRepository on the customerdata
// workbook tab. Key columns are kept flat for eyeballing the sheet; the full
// row travels in a payload column as JSON. Filtering happens after a full tab
// read, which is how the spreadsheet backend always worked — acceptable only
// because row counts are small.
type customerStore struct {
	wb *Workbook
}

// NewCustomerStore returns the workbook-backed CustomerRepository used when
// CUSTOMER_SOURCE=sheet.
func NewCustomerStore(wb *Workbook) repository.CustomerRepository {
	return &customerStore{wb: wb}
}

const payloadColumn = "payload"

func encodeRow(req *model.CustomerRequest) (map[string]string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode customer row: %w", err)
	}
	return map[string]string{
		"id":             req.ID.String(),
		"gencode":        req.Gencode,
		"approvestatus":  string(req.ApproveStatus),
		"businesscenter": req.BusinessCenter,
		"makername":      req.MakerName,
		payloadColumn:    string(payload),
	}, nil
}

func decodeRow(row map[string]string) (*model.CustomerRequest, error) {
	var req model.CustomerRequest
	if err := json.Unmarshal([]byte(row[payloadColumn]), &req); err != nil {
		return nil, fmt.Errorf("failed to decode customer row %s: %w", row["gencode"], err)
	}
	return &req, nil
}

func (s *customerStore) Create(ctx context.Context, req *model.CustomerRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	values, err := encodeRow(req)
	if err != nil {
		return err
	}
	_, err = s.wb.AppendRow(TabCustomerData, values)
	return err
}

func (s *customerStore) readAll() ([]model.CustomerRequest, error) {
	rows, err := s.wb.ReadAll(TabCustomerData)
	if err != nil {
		return nil, err
	}
	out := make([]model.CustomerRequest, 0, len(rows))
	for _, row := range rows {
		req, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, nil
}

func (s *customerStore) FindByID(ctx context.Context, id uuid.UUID) (*model.CustomerRequest, error) {
	rows, err := s.readAll()
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].ID == id {
			return &rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *customerStore) FindByGencode(ctx context.Context, gencode string) (*model.CustomerRequest, error) {
	rows, err := s.readAll()
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Gencode == gencode {
			return &rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func paginate(rows []model.CustomerRequest, page, limit int) []model.CustomerRequest {
	if limit <= 0 {
		return rows
	}
	start := (page - 1) * limit
	if start >= len(rows) {
		return nil
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func (s *customerStore) List(ctx context.Context, filter repository.CustomerFilter) ([]model.CustomerRequest, int64, error) {
	rows, err := s.readAll()
	if err != nil {
		return nil, 0, err
	}

	matched := make([]model.CustomerRequest, 0, len(rows))
	for _, row := range rows {
		if filter.Status != nil && row.ApproveStatus != *filter.Status {
			continue
		}
		if filter.BusinessCenter != "" && row.BusinessCenter != filter.BusinessCenter {
			continue
		}
		matched = append(matched, row)
	}

	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

func (s *customerStore) ListForApprover(ctx context.Context, approverID uuid.UUID, page, limit int) ([]model.CustomerRequest, int64, error) {
	rows, err := s.readAll()
	if err != nil {
		return nil, 0, err
	}

	matched := make([]model.CustomerRequest, 0, len(rows))
	for _, row := range rows {
		if row.ApproveStatus != model.StatusPending {
			continue
		}
		if head, ok := row.NextApprovers.Head(); ok && head.UserID == approverID {
			matched = append(matched, row)
		}
	}

	return paginate(matched, page, limit), int64(len(matched)), nil
}

func (s *customerStore) Update(ctx context.Context, req *model.CustomerRequest) error {
	values, err := encodeRow(req)
	if err != nil {
		return err
	}
	if err := s.wb.UpdateRow(TabCustomerData, "gencode", req.Gencode, values); err != nil {
		if err == ErrRowNotFound {
			return gorm.ErrRecordNotFound
		}
		return err
	}
	return nil
}

func (s *customerStore) CountByStatus(ctx context.Context) (map[model.Status]int64, error) {
	rows, err := s.readAll()
	if err != nil {
		return nil, err
	}
	counts := make(map[model.Status]int64)
	for _, row := range rows {
		counts[row.ApproveStatus]++
	}
	return counts, nil
}

func (s *customerStore) CountByBusinessCenter(ctx context.Context) (map[string]int64, error) {
	rows, err := s.readAll()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for _, row := range rows {
		counts[row.BusinessCenter]++
	}
	return counts, nil
}

// NextGencodeSeq returns the next per-day sequence for gencode generation by
// scanning existing rows with the given prefix. The workbook mutex makes the
// scan-and-append window small but not transactional; the sheet backend
// inherits the original spreadsheet's best-effort uniqueness.
func (s *customerStore) NextGencodeSeq(ctx context.Context, prefix string) (int, error) {
	rows, err := s.wb.ReadAll(TabCustomerData)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, row := range rows {
		code := row["gencode"]
		if len(code) > len(prefix) && code[:len(prefix)] == prefix {
			if n, err := strconv.Atoi(code[len(prefix):]); err == nil && n > max {
				max = n
			}
		}
	}
	return max + 1, nil
}

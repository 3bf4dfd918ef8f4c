// Package sheet persists spreadsheet-style tabs as CSV files: a header row,
// an auto-incremented "#" column, and append/update-by-key row access. It
// backs the form-submission endpoints and, when CUSTOMER_SOURCE=sheet, the
// customer-request store itself.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"sync"

	"github.com/spf13/afero"
)

// Tab names written by the submission endpoints.
const (
	TabCustomerData = "customerdata"
	TabBOSData      = "bosdata"
	TabEmailData    = "emaildata"
	TabExecEmail    = "execemaildata"
)

// NumberColumn is the auto-incremented row counter column.
const NumberColumn = "#"

// ErrRowNotFound is returned by UpdateRow when no row matches the key.
var ErrRowNotFound = errors.New("sheet row not found")

// Workbook is a directory of CSV tabs. All access goes through one mutex;
// tabs are small and rewritten whole, matching how the spreadsheet backend
// behaved.
type Workbook struct {
	mu  sync.Mutex
	fs  afero.Fs
	dir string
}

// NewWorkbook opens (or lazily creates) a workbook rooted at dir.
func NewWorkbook(fs afero.Fs, dir string) *Workbook {
	return &Workbook{fs: fs, dir: dir}
}

func (w *Workbook) tabPath(tab string) string {
	return path.Join(w.dir, tab+".csv")
}

// load reads a tab into header + rows. A missing tab is an empty tab.
func (w *Workbook) load(tab string) ([]string, [][]string, error) {
	f, err := w.fs.Open(w.tabPath(tab))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{NumberColumn}, nil, nil
		}
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse tab %s: %w", tab, err)
	}
	if len(records) == 0 {
		return []string{NumberColumn}, nil, nil
	}
	return records[0], records[1:], nil
}

func (w *Workbook) save(tab string, header []string, rows [][]string) error {
	if err := w.fs.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := w.fs.Create(w.tabPath(tab))
	if err != nil {
		return err
	}

	cw := csv.NewWriter(f)
	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	records = append(records, rows...)
	err = cw.WriteAll(records)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// mergeHeader extends header with any new keys from values, keeping existing
// column order stable. Returns the (possibly extended) header.
func mergeHeader(header []string, values map[string]string) []string {
	seen := make(map[string]bool, len(header))
	for _, col := range header {
		seen[col] = true
	}
	// Deterministic order for new columns
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !seen[k] {
			header = append(header, k)
			seen[k] = true
		}
	}
	return header
}

func rowToMap(header, row []string) map[string]string {
	m := make(map[string]string, len(header))
	for i, col := range header {
		if i < len(row) {
			m[col] = row[i]
		} else {
			m[col] = ""
		}
	}
	return m
}

func mapToRow(header []string, m map[string]string) []string {
	row := make([]string, len(header))
	for i, col := range header {
		row[i] = m[col]
	}
	return row
}

// AppendRow appends values as a new row, assigning the next "#" value.
// Returns the assigned number.
func (w *Workbook) AppendRow(tab string, values map[string]string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	header, rows, err := w.load(tab)
	if err != nil {
		return 0, err
	}

	next := 0
	for _, row := range rows {
		m := rowToMap(header, row)
		if n, err := strconv.Atoi(m[NumberColumn]); err == nil && n > next {
			next = n
		}
	}
	next++

	header = mergeHeader(header, values)
	entry := make(map[string]string, len(values)+1)
	for k, v := range values {
		entry[k] = v
	}
	entry[NumberColumn] = strconv.Itoa(next)

	// Re-pad existing rows against the merged header
	normalized := make([][]string, 0, len(rows)+1)
	for _, row := range rows {
		normalized = append(normalized, mapToRow(header, rowToMap(header, row)))
	}
	normalized = append(normalized, mapToRow(header, entry))

	if err := w.save(tab, header, normalized); err != nil {
		return 0, err
	}
	return next, nil
}

// UpdateRow overwrites the columns in values on the first row whose keyColumn
// equals keyValue. Columns absent from values are left untouched.
func (w *Workbook) UpdateRow(tab, keyColumn, keyValue string, values map[string]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	header, rows, err := w.load(tab)
	if err != nil {
		return err
	}

	header = mergeHeader(header, values)
	found := false
	normalized := make([][]string, 0, len(rows))
	for _, row := range rows {
		m := rowToMap(header, row)
		if !found && m[keyColumn] == keyValue {
			for k, v := range values {
				m[k] = v
			}
			found = true
		}
		normalized = append(normalized, mapToRow(header, m))
	}
	if !found {
		return ErrRowNotFound
	}

	return w.save(tab, header, normalized)
}

// ReadAll returns every row of a tab as column->value maps, in file order.
func (w *Workbook) ReadAll(tab string) ([]map[string]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	header, rows, err := w.load(tab)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToMap(header, row))
	}
	return out, nil
}

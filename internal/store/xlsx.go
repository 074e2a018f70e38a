package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/amishk599/jobscout/internal/model"
)

// SheetName is the worksheet holding one row per job.
const SheetName = "Jobs"

var columnWidths = map[string]float64{
	"A": 40, "B": 50, "C": 36, "D": 22, "E": 20, "F": 18, "G": 10,
	"H": 14, "I": 22, "J": 22, "K": 10, "L": 32, "M": 10,
}

// XLSXStore keeps jobs in a spreadsheet the user reviews by hand. The
// workbook is reopened on every call so edits made between runs are seen.
type XLSXStore struct {
	mu   sync.Mutex
	path string
}

// NewXLSXStore creates the workbook at path with a header row if it does not
// exist yet.
func NewXLSXStore(path string) (*XLSXStore, error) {
	s := &XLSXStore{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.create(); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("checking workbook: %w", err)
	}
	return s, nil
}

func (s *XLSXStore) create() error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for col, width := range columnWidths {
		_ = f.SetColWidth(SheetName, col, col, width)
	}
	_ = f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func (s *XLSXStore) open() (*excelize.File, [][]string, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening workbook: %w", err)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("reading %s sheet: %w", SheetName, err)
	}
	return f, rows, nil
}

// ExistingKeys returns the Key column, skipping the header.
func (s *XLSXStore) ExistingKeys(ctx context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, rows, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	keys := make(map[string]struct{}, len(rows))
	for i, r := range rows {
		if i == 0 || len(r) <= colKey || r[colKey] == "" {
			continue
		}
		keys[r[colKey]] = struct{}{}
	}
	return keys, ctx.Err()
}

// Append writes jobs below the last row and saves the workbook once. Keys
// already present are skipped.
func (s *XLSXStore) Append(ctx context.Context, jobs []model.AnnotatedJob) error {
	if len(jobs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, rows, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	existing := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if len(r) > colKey {
			existing[r[colKey]] = struct{}{}
		}
	}

	next := len(rows) + 1
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := existing[j.Key]; ok {
			continue
		}
		existing[j.Key] = struct{}{}

		cell, _ := excelize.CoordinatesToCellName(1, next)
		values := row(j)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", next, err)
		}
		next++
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

// MarkReviewed sets the Reviewed cell of matching rows.
func (s *XLSXStore) MarkReviewed(ctx context.Context, keys []string) (int, error) {
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, rows, err := s.open()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	marked := 0
	for i, r := range rows {
		if i == 0 || len(r) <= colKey {
			continue
		}
		if _, ok := want[r[colKey]]; !ok {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(colReviewed+1, i+1)
		if err := f.SetCellValue(SheetName, cell, true); err != nil {
			return 0, fmt.Errorf("marking row %d: %w", i+1, err)
		}
		marked++
	}
	if marked == 0 {
		return 0, ctx.Err()
	}
	if err := f.Save(); err != nil {
		return 0, fmt.Errorf("saving workbook: %w", err)
	}
	return marked, nil
}

// PruneReviewed removes rows whose Reviewed cell is ticked.
func (s *XLSXStore) PruneReviewed(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, rows, err := s.open()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	removed := 0
	// bottom-up so row numbers stay valid
	for i := len(rows) - 1; i >= 1; i-- {
		r := rows[i]
		if len(r) <= colReviewed || !truthy(r[colReviewed]) {
			continue
		}
		if err := f.RemoveRow(SheetName, i+1); err != nil {
			return removed, fmt.Errorf("removing row %d: %w", i+1, err)
		}
		removed++
	}
	if removed == 0 {
		return 0, ctx.Err()
	}
	if err := f.Save(); err != nil {
		return 0, fmt.Errorf("saving workbook: %w", err)
	}
	return removed, nil
}

// Close is a no-op; the workbook is not held open between calls.
func (s *XLSXStore) Close() error { return nil }

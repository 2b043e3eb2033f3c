package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/inflightpayment/internal/types"
	"github.com/ginjaninja78/inflightpayment/pkg/utils"
)

// Workbook sheet names.
const (
	SheetPurchases = "Invalid purchases"
	SheetCustomers = "Invalid customers"
)

// WriteWorkbook writes every rejected row of both sources to an xlsx file
// named after WorkbookFormat, one sheet per source. Each sheet starts with the
// customer id and the violation, followed by the source columns.
//
// Nothing is written when neither source has a rejected row; the returned
// path is then empty.
func (r *Reporter) WriteWorkbook(purchases, customers *types.Buckets[types.Rejected]) (string, error) {
	purchases, customers = orEmpty(purchases), orEmpty(customers)
	if purchases.Len() == 0 && customers.Len() == 0 {
		r.logger.Debug("no rejected rows; workbook skipped")
		return "", nil
	}

	if err := r.EnsureDir(); err != nil {
		return "", err
	}

	// A new workbook starts with a single "Sheet1"; it becomes the purchases
	// sheet and the customers sheet is added after it.
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	// Bold header row, shared by both sheets.
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetPurchases); err != nil {
		return "", fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeSheet(f, SheetPurchases, purchases, header); err != nil {
		return "", err
	}

	if _, err := f.NewSheet(SheetCustomers); err != nil {
		return "", fmt.Errorf("failed to add sheet: %w", err)
	}
	if err := writeSheet(f, SheetCustomers, customers, header); err != nil {
		return "", err
	}

	// Timestamp and uuid keep the workbooks of successive runs apart.
	path := r.Path(utils.GenerateOutputFileName(WorkbookFormat, ".xlsx", nil))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	r.logger.Info("Rejected rows exported to %s", path)
	return path, nil
}

func writeSheet(f *excelize.File, sheet string, rows *types.Buckets[types.Rejected], headerStyle int) error {
	// Rows of one source may come from files with different headers; the
	// sheet uses the union of their columns.
	columns := sheetColumns(rows)

	header := make([]interface{}, 0, len(columns)+2)
	header = append(header, "customer_id", "reason")
	for _, col := range columns {
		header = append(header, col)
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", sheet, err)
	}

	// Data rows follow the header, grouped by customer id in first-seen
	// order. A column missing from a short row is left blank.
	n := 2
	for _, id := range rows.Keys() {
		list, _ := rows.Get(id)
		for _, rej := range list {
			values := make([]interface{}, 0, len(header))
			values = append(values, string(id), rej.Reason)
			for _, col := range columns {
				values = append(values, rej.Row.Row[col])
			}
			if err := setRow(f, sheet, n, values); err != nil {
				return err
			}
			n++
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

// sheetColumns returns the union of source columns in first-seen order.
func sheetColumns(rows *types.Buckets[types.Rejected]) []string {
	var columns []string
	seen := make(map[string]bool)
	for _, id := range rows.Keys() {
		list, _ := rows.Get(id)
		for _, rej := range list {
			for _, col := range rej.Row.Columns {
				if !seen[col] {
					seen[col] = true
					columns = append(columns, col)
				}
			}
		}
	}
	return columns
}

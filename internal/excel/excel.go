// Package excel reads product names from and writes enriched catalogs to
// .xlsx workbooks.
package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/minhle/prodcat/internal/models"
)

// ReadNames extracts product names from the first column of the first sheet.
// Blank cells are skipped; a header row is not assumed, callers filter names
// they already have.
func ReadNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if models.ValidName(row[0]) {
			names = append(names, row[0])
		}
	}
	return names, nil
}

// Write exports products to an .xlsx workbook with a header row, one product
// per row: name, description, status.
func Write(path string, products []models.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	headers := []string{"Tên sản phẩm", "Mô tả", "Trạng thái"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, p := range products {
		row := i + 2
		values := []any{p.Name, p.Description, string(p.Status)}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	// Wide columns so descriptions stay readable when opened directly.
	if err := f.SetColWidth(sheet, "A", "A", 35); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 80); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "C", "C", 15); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

package loader

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel flattens an xlsx workbook into text, one sheet header line
// followed by numbered rows. Formulas are rendered next to their values.
func extractExcel(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		b.WriteString(sheetHeaderLine(sheet, rows[0]))
		b.WriteByte('\n')
		for i := 1; i < len(rows); i++ {
			rowIdx := i + 1 // sheet rows are 1-based
			b.WriteString(excelRowLine(f, sheet, rowIdx, rows[0], rows[i]))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

func sheetHeaderLine(sheet string, header []string) string {
	var b strings.Builder
	b.WriteString("Sheet: ")
	b.WriteString(sheet)
	b.WriteString("\nHeader: ")
	for i, h := range header {
		if i > 0 {
			b.WriteString("\t")
		}
		b.WriteString(h)
	}
	return b.String()
}

func excelRowLine(f *excelize.File, sheet string, rowIdx int, header, row []string) string {
	maxCols := len(header)
	if len(row) > maxCols {
		maxCols = len(row)
	}
	var b strings.Builder
	b.WriteString("Row ")
	b.WriteString(strconv.Itoa(rowIdx))
	b.WriteString(": ")
	for col := 1; col <= maxCols; col++ {
		if col > 1 {
			b.WriteString("\t")
		}
		cellRef, _ := excelize.CoordinatesToCellName(col, rowIdx)
		val := ""
		if col-1 < len(row) {
			val = row[col-1]
		}
		formula, _ := f.GetCellFormula(sheet, cellRef)
		switch {
		case formula != "" && val != "":
			b.WriteString(val)
			b.WriteString(" (f=")
			b.WriteString(formula)
			b.WriteString(")")
		case formula != "":
			b.WriteString("f=")
			b.WriteString(formula)
		default:
			b.WriteString(val)
		}
	}
	return b.String()
}

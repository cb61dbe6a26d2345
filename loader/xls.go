package loader

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"
)

// extractXLS flattens a legacy xls workbook into text in the same shape as
// the xlsx extractor.
func extractXLS(data []byte) (string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xls: %w", err)
	}
	var b strings.Builder
	for i := 0; i < wb.GetNumberSheets(); i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}
		rows := sheet.GetRows()
		if len(rows) == 0 {
			continue
		}
		header := xlsRowValues(rows[0].GetCols())
		b.WriteString(sheetHeaderLine(sheet.GetName(), header))
		b.WriteByte('\n')
		for r := 1; r < len(rows); r++ {
			rowIdx := r + 1 // 1-based
			b.WriteString(xlsRowLine(rowIdx, header, xlsRowValues(rows[r].GetCols())))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

func xlsRowValues(cols []structure.CellData) []string {
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		val := col.GetString()
		if val == "" {
			if num := col.GetFloat64(); num != 0 {
				val = strconv.FormatFloat(num, 'f', -1, 64)
			} else if in := col.GetInt64(); in != 0 {
				val = strconv.FormatInt(in, 10)
			}
		}
		out = append(out, val)
	}
	return out
}

func xlsRowLine(rowIdx int, header, row []string) string {
	maxCols := len(header)
	if len(row) > maxCols {
		maxCols = len(row)
	}
	var b strings.Builder
	b.WriteString("Row ")
	b.WriteString(strconv.Itoa(rowIdx))
	b.WriteString(": ")
	for col := 0; col < maxCols; col++ {
		if col > 0 {
			b.WriteString("\t")
		}
		if col < len(row) {
			b.WriteString(row[col])
		}
	}
	return b.String()
}

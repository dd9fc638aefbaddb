package usage

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"leadertalk-backend/internal/billing"
)

// ExportXLSX renders the usage history as a spreadsheet: one summary sheet
// with a row per billing cycle, and one entries sheet with the per-day points.
func ExportXLSX(cycles []billing.CycleSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(sheet, "Cycles"); err != nil {
		return nil, err
	}

	header := []interface{}{"cycle", "start", "end", "total_words", "entries", "percent_used"}
	if err := f.SetSheetRow("Cycles", "A1", &header); err != nil {
		return nil, err
	}
	row := 2
	for _, cs := range cycles {
		excelRow := []interface{}{
			cs.Cycle.Number,
			cs.Cycle.Start.Format("2006-01-02"),
			cs.Cycle.End.Format("2006-01-02"),
			cs.TotalWords,
			cs.EntryCount,
			fmt.Sprintf("%.1f", cs.PercentUsed),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow("Cycles", cell, &excelRow); err != nil {
			return nil, err
		}
		row++
	}

	if _, err := f.NewSheet("Daily"); err != nil {
		return nil, err
	}
	dailyHeader := []interface{}{"cycle", "day", "words", "recordings"}
	if err := f.SetSheetRow("Daily", "A1", &dailyHeader); err != nil {
		return nil, err
	}
	row = 2
	for _, cs := range cycles {
		for _, d := range cs.Days {
			excelRow := []interface{}{
				cs.Cycle.Number,
				d.Day.Format("2006-01-02"),
				d.WordCount,
				d.EntryCount,
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow("Daily", cell, &excelRow); err != nil {
				return nil, err
			}
			row++
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

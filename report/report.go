// Package report saves measurements as a spreadsheet.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"gitlab.com/slon/wgetter/harness"
)

const sheet = "Sheet1"

// WriteXLSX writes one row per measurement below a header row.
func WriteXLSX(path string, measurements []harness.Measurement) error {
	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{"Strategy", "Elapsed ms", "Result", "Error"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, m := range measurements {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		row := []interface{}{m.Name, m.Elapsed.Milliseconds(), m.Result}
		if m.Err != nil {
			row = append(row, m.Err.Error())
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s: %w", m.Name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

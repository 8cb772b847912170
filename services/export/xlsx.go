package export

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/kelna-terese/EvalX/core/report"
)

type XLSX struct{}

var _ report.Renderer = XLSX{} // interface compliance check

func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSX) Extension() string { return ".xlsx" }

// Render writes sheet as a single-sheet workbook with a bold header row.
func (XLSX) Render(w io.Writer, sheet report.Sheet) error {
	f := excelize.NewFile()
	//goland:noinspection GoUnhandledErrorResult
	defer f.Close()

	name := "Sheet1"
	if sheet.Name != "" && sheet.Name != name {
		if err := f.SetSheetName(name, sheet.Name); err != nil {
			return errors.Wrap(err, "naming sheet")
		}
		name = sheet.Name
	}

	headers := sheet.Headers
	if err := f.SetSheetRow(name, "A1", &headers); err != nil {
		return errors.Wrap(err, "writing header row")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	if err = f.SetRowStyle(name, 1, 1, bold); err != nil {
		return errors.Wrap(err, "styling header row")
	}

	for i := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := sheet.Rows[i]
		if err = f.SetSheetRow(name, cell, &row); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}
	}
	return errors.Wrap(f.Write(w), "writing workbook")
}

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/kelna-terese/EvalX/core/report"
)

type CSV struct{}

var _ report.Renderer = CSV{} // interface compliance check

func (CSV) ContentType() string { return "text/csv" }

func (CSV) Extension() string { return ".csv" }

// Render writes the header row followed by every row of sheet.
func (CSV) Render(w io.Writer, sheet report.Sheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sheet.Headers); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	record := make([]string, 0, len(sheet.Headers))
	for _, row := range sheet.Rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, formatValue(v))
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "writing csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

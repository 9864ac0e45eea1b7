package format

import (
	"bufio"
	"io"
	"strings"

	"github.com/starford/ansuz/internal/filter"
)

// ValueSeparator joins the values of a multi-valued cell.
const ValueSeparator = ", "

// Line renders one row: cells joined by sep.
func Line(row filter.Row, sep string) string {
	cells := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		cells[i] = strings.Join(c, ValueSeparator)
	}
	return strings.Join(cells, sep)
}

// Write renders rows one per line.
func Write(w io.Writer, rows []filter.Row, sep string) error {
	bw := bufio.NewWriter(w)
	for _, r := range rows {
		if _, err := bw.WriteString(Line(r, sep)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

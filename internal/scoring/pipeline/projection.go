package pipeline

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"leadscore_backend/platform/apperr"
)

// MsgNoResults is returned when an export has nothing to write.
const MsgNoResults = "No results found"

// CSVHeader is the first line of every export.
const CSVHeader = "name,role,company,intent,score,reasoning"

// Projection is the read side over stored results.
type Projection struct {
	reader ResultReader
}

// NewProjection creates a projection over reader.
func NewProjection(reader ResultReader) *Projection {
	return &Projection{reader: reader}
}

// List returns results ordered by final score descending, then creation time and id.
func (p *Projection) List(ctx context.Context, filter ResultFilter) ([]ResultRow, error) {
	return p.reader.ListResults(ctx, filter)
}

// ExportCSV writes the results as CSV. Text fields are always quoted with
// embedded quotes doubled; the score is written bare. Rows are separated by
// a single newline with none after the last row. An empty result set writes
// nothing and returns a not-found error.
func (p *Projection) ExportCSV(ctx context.Context, filter ResultFilter, w io.Writer) error {
	rows, err := p.reader.ListResults(ctx, filter)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return apperr.NotFound(MsgNoResults)
	}
	return WriteCSV(w, rows)
}

// WriteCSV renders rows in the export format.
func WriteCSV(w io.Writer, rows []ResultRow) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(CSVHeader)
	for _, row := range rows {
		bw.WriteByte('\n')
		writeQuoted(bw, row.Name)
		bw.WriteByte(',')
		writeQuoted(bw, row.Role)
		bw.WriteByte(',')
		writeQuoted(bw, row.Company)
		bw.WriteByte(',')
		writeQuoted(bw, string(row.Intent))
		bw.WriteByte(',')
		bw.WriteString(strconv.Itoa(row.Score))
		bw.WriteByte(',')
		writeQuoted(bw, row.Reasoning)
	}
	return bw.Flush()
}

func writeQuoted(bw *bufio.Writer, value string) {
	bw.WriteByte('"')
	bw.WriteString(strings.ReplaceAll(value, `"`, `""`))
	bw.WriteByte('"')
}

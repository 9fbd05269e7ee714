package survey

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/mbolis/opinio/model"
)

// TimestampLayout renders submission times, always in UTC.
const TimestampLayout = "2006-01-02 15:04:05Z07:00"

const (
	submissionHeader = "Submission Date"
	xlsxSheet        = "Responses"
)

// Table flattens s and its responses: a header row, then one row per
// response in the given order. Each row has the submission time followed by
// one cell per question of s; unanswered questions give empty cells.
func Table(s model.Survey, responses []model.Response) [][]string {
	rows := make([][]string, 0, len(responses)+1)

	header := make([]string, 0, len(s.Questions)+1)
	header = append(header, submissionHeader)
	for _, q := range s.Questions {
		header = append(header, q.Text)
	}
	rows = append(rows, header)

	for _, r := range responses {
		row := make([]string, 0, len(s.Questions)+1)
		row = append(row, r.SubmittedAt.UTC().Format(TimestampLayout))
		for _, q := range s.Questions {
			row = append(row, r.Answers[q.ID].String())
		}
		rows = append(rows, row)
	}
	return rows
}

// EncodeCSV writes the export table with every cell double quoted and inner
// quotes doubled.
func EncodeCSV(w io.Writer, s model.Survey, responses []model.Response) error {
	bw := bufio.NewWriter(w)
	for _, row := range Table(s, responses) {
		for i, cell := range row {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteByte('"')
			bw.WriteString(strings.ReplaceAll(cell, `"`, `""`))
			bw.WriteByte('"')
		}
		bw.WriteByte('\n')
	}
	return errors.Wrap(bw.Flush(), "write csv")
}

// EncodeXLSX writes the same table as a single-sheet workbook.
func EncodeXLSX(w io.Writer, s model.Survey, responses []model.Response) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return errors.Wrap(err, "name sheet")
	}
	for i, row := range Table(s, responses) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "cell name")
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return errors.Wrapf(err, "write row %d", i+1)
		}
	}

	_, err := f.WriteTo(w)
	return errors.Wrap(err, "write xlsx")
}

// ExportFilename is the download name for an export of s.
func ExportFilename(s model.Survey, ext string) string {
	title := strings.Join(strings.Fields(s.Title), "_")
	title = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '"' {
			return '_'
		}
		return r
	}, title)
	if title == "" {
		title = "survey"
	}
	return title + "_Results." + ext
}

// Package export writes final lead records to spreadsheet files.
package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SheetName is the worksheet holding final records.
const SheetName = "FinalData"

var baseColumns = []string{
	"LinkedIn URL",
	"First Name",
	"Last Name",
	"Full Name",
	"Title",
	"Headline",
	"Company",
	"Industry",
	"Company Site",
	"Location",
	"Email",
	"Email Source",
	"Job Title",
	"Job URL",
}

// Columns returns the header row: contact fields, the flattened sequence and
// one column per questionnaire question.
func Columns() []string {
	cols := append([]string(nil), baseColumns...)
	for i := 1; i <= model.SequenceLength; i++ {
		cols = append(cols, model.SubjectKey(i))
	}
	for i := 1; i <= model.SequenceLength; i++ {
		cols = append(cols, model.BodyKey(i))
	}
	for _, q := range model.Questions {
		cols = append(cols, q.Label)
	}
	return cols
}

// Row flattens r in Columns order.
func Row(r model.FinalRecord) []string {
	row := []string{
		r.ProfileURL,
		r.FirstName,
		r.LastName,
		r.FullName,
		r.Title,
		r.Headline,
		r.Company,
		r.Industry,
		r.CompanySite,
		r.FullAddress,
		r.Email,
		string(r.EmailSource),
		r.JobTitle,
		r.JobURL,
	}
	row = append(row, r.EmailData.Subjects[:]...)
	row = append(row, r.EmailData.Bodies[:]...)
	for i := range model.Questions {
		answer := model.MissingAnswer
		if i < len(r.Answers) && r.Answers[i] != "" {
			answer = r.Answers[i]
		}
		row = append(row, answer)
	}
	return row
}

// Workbook builds an xlsx file with a header row and one row per record.
func Workbook(records []model.FinalRecord) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add sheet")
	}
	addRow(sheet, Columns())
	for _, r := range records {
		addRow(sheet, Row(r))
	}
	return f, nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// WriteXLSX saves records to path.
func WriteXLSX(path string, records []model.FinalRecord) error {
	f, err := Workbook(records)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

// Write streams the workbook to w.
func Write(w io.Writer, records []model.FinalRecord) error {
	f, err := Workbook(records)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "xlsx: write")
}

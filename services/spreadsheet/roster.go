// Package spreadsheet reads and writes class rosters as XLSX and CSV files.
package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/gradebook"
)

const rosterSheet = "Roster"

var (
	// RosterHeader is the first row of every exported roster.
	RosterHeader = []string{"Student Name", "Email", "Overall Grade", "Status", "UID", "Roll Number"}

	// ImportHeader documents the columns read by ReadStudents. Skills are comma separated.
	ImportHeader = []string{"Name", "Email", "Parent Phone", "Skills"}

	ErrNoSheet = errors.New("workbook does not contain any sheet")
)

// RosterRecord renders one student as a roster row.
func RosterRecord(s gradebook.StudentView) []string {
	return []string{s.Name, s.Email, FormatGrade(s.OverallGrade), string(s.Status), s.UID, s.RollNumber}
}

// ExportFilename names a roster export of cls made at now, e.g. `overall_grades_6th_Tata_20240301.csv`.
func ExportFilename(cls gradebook.Class, ext string, now time.Time) string {
	return fmt.Sprintf("overall_grades_%s_%s_%s.%s", cls.GradeLevel, cls.Section, now.Format("20060102"), ext)
}

// FormatGrade renders g the way it is persisted; an absent grade is empty.
func FormatGrade(g *gradebook.Grade) string {
	if g == nil || g.IsNull() {
		return ""
	}
	if v, ok := g.Float(); ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	b, _ := g.MarshalJSON()
	return strings.Trim(string(b), `"`)
}

func WriteCSV(w io.Writer, view gradebook.ClassView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RosterHeader); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, s := range view.Students {
		if err := cw.Write(RosterRecord(s)); err != nil {
			return errors.Wrapf(err, "writing student %s", s.ID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

func WriteXLSX(w io.Writer, view gradebook.ClassView) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = errors.Wrap(cErr, "closing workbook")
		}
	}()

	// a new workbook has exactly one sheet
	if err = f.SetSheetName(f.GetSheetName(0), rosterSheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	if err = setRow(f, 1, RosterHeader); err != nil {
		return err
	}
	for i, s := range view.Students {
		if err = setRow(f, i+2, RosterRecord(s)); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return errors.Wrap(err, "writing workbook")
}

func setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, "computing cell name")
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return errors.Wrapf(f.SetSheetRow(rosterSheet, cell, &vals), "writing row %d", row)
}

// ReadStudents reads the first sheet of an XLSX workbook: a header row followed by one student per row,
// in ImportHeader order. Blank rows are skipped; incomplete rows are kept so that the import reports them.
func ReadStudents(r io.Reader) (rows []gradebook.NewStudent, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = errors.Wrap(cErr, "closing workbook")
		}
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheet
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %q", sheet)
	}

	rows = make([]gradebook.NewStudent, 0, len(records))
	for i, rec := range records {
		if i == 0 || isBlank(rec) {
			continue
		}
		rows = append(rows, gradebook.NewStudent{
			Name:        cell(rec, 0),
			Email:       cell(rec, 1),
			ParentPhone: cell(rec, 2),
			Skills:      splitSkills(cell(rec, 3)),
		})
	}
	return rows, nil
}

func cell(rec []string, i int) string {
	if i < len(rec) {
		return core.CleanString(rec[i])
	}
	return ""
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func splitSkills(s string) []string {
	skills := []string{}
	for _, sk := range strings.Split(s, ",") {
		if sk = core.CleanString(sk); sk != "" {
			skills = append(skills, sk)
		}
	}
	return skills
}

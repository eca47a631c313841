package main

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/term"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/gradebook"
	"github.com/trezcool/gradebook/tests"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	cli := newCommandLine(filepath.Join(t.TempDir(), "data.json"), &testutil.Logger{})
	var out bytes.Buffer
	cli.out = &out
	return cli, &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest, before func(tt cliTest)) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if before != nil {
				before(tt)
			}
			err := cli.run(args)
			switch {
			case err == nil:
				if tt.wantErr != nil || tt.wantErrStr != "" {
					t.Errorf("cli.run() error = nil, wantErr %v %s", tt.wantErr, tt.wantErrStr)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
				}
			default:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "import: no args", args: []string{"import"}, wantErr: errHelp},
		{name: "import: no file", args: []string{"import", "-class", "c1"}, wantErr: errHelp},
		{name: "export: no args", args: []string{"export"}, wantErr: errHelp},
		{name: "export: no out", args: []string{"export", "-class", "c1"}, wantErr: errHelp},
	}
	runCLITests(t, cli, tests, nil)
}

func Test_commandLine_reset(t *testing.T) {
	cli, _ := setup(t)
	ctx := context.Background()

	type extra struct {
		terminal bool
		answer   string
	}
	tests := []cliTest{
		{name: "not a terminal", args: []string{"reset"}, wantErr: errNotConfirm},
		{name: "declined", args: []string{"reset"}, extra: extra{terminal: true, answer: "n\n"}, wantErr: errAborted},
		{name: "no answer", args: []string{"reset"}, extra: extra{terminal: true}, wantErr: errAborted},
		{name: "confirmed", args: []string{"reset"}, extra: extra{terminal: true, answer: "Yes\n"}},
		{name: "-yes", args: []string{"reset", "-yes"}},
	}
	defer func() { isTerminalFunc = term.IsTerminal }()

	runCLITests(t, cli, tests, func(tt cliTest) {
		ex, _ := tt.extra.(extra)
		isTerminalFunc = func(fd int) bool { return ex.terminal }
		cli.in = strings.NewReader(ex.answer)

		// start from a document that differs from the default one
		require.NoError(t, cli.store.Save(ctx, gradebook.Document{}))
	})

	doc := cli.store.Load(ctx)
	assert.Len(t, doc.Students, len(gradebook.GradeLevels)*len(gradebook.Sections)*5)
}

func Test_commandLine_repair(t *testing.T) {
	cli, out := setup(t)

	require.NoError(t, cli.run([]string{"admin", "repair"}))
	assert.Contains(t, out.String(), "was missing: replaced by the default document.")

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "repair"}))
	assert.Contains(t, out.String(), "is healthy.")

	content := `{"classes": [], "students": {"id": "s1"}, "alerts": [], "assignments": [], "grades": {}}`
	require.NoError(t, ioutil.WriteFile(cli.store.Path(), []byte(content), 0644))
	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "repair"}))
	assert.Contains(t, out.String(), "was repaired:\n  - students: not a list\n")

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "repair"}))
	assert.Contains(t, out.String(), "is healthy.")
}

func writeWorkbook(t *testing.T, path string, rows [][]string) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		require.NoError(t, f.SetSheetRow(sheet, cell, &vals))
	}
	require.NoError(t, f.SaveAs(path))
}

func Test_commandLine_import(t *testing.T) {
	cli, out := setup(t)
	dir := t.TempDir()

	wb := filepath.Join(dir, "students.xlsx")
	writeWorkbook(t, wb, [][]string{
		{"Name", "Email", "Parent Phone", "Skills"},
		{"Dee", "dee@school.edu", "", "Robotics"},
		{"Dup", "student1@school.edu"},
		{"Eve", "eve@school.edu"},
	})
	missing := filepath.Join(dir, "missing.xlsx")

	tests := []cliTest{
		{name: "unknown class", args: []string{"import", "-class", "c999", "-file", wb}, wantErr: core.ErrNotFound},
		{name: "missing file", args: []string{"import", "-class", "c1", "-file", missing}, wantErrStr: "open " + missing + ": no such file or directory"},
		{name: "imported", args: []string{"import", "-class", "c1", "-file", wb}},
	}
	runCLITests(t, cli, tests, func(cliTest) { out.Reset() })

	assert.Equal(t, "2 student(s) added, 1 row(s) skipped.\n  row 2 (student1@school.edu): email \"student1@school.edu\" already exists\n", out.String())

	view, err := cli.svc.Class(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, view.Students, 7)
	assert.Equal(t, 7, view.Class.StudentCount)
}

func Test_commandLine_export(t *testing.T) {
	cli, _ := setup(t)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "roster.csv")
	xlsxPath := filepath.Join(dir, "roster.xlsx")

	tests := []cliTest{
		{name: "unknown class", args: []string{"export", "-class", "c999", "-out", csvPath}, wantErr: core.ErrNotFound},
		{
			name: "unknown format", args: []string{"export", "-class", "c1", "-out", filepath.Join(dir, "roster.pdf")},
			wantErrStr: `unsupported export format ".pdf" (want .csv or .xlsx)`,
		},
		{name: "csv", args: []string{"export", "-class", "c1", "-out", csvPath}},
		{name: "xlsx", args: []string{"export", "-class", "c1", "-out", xlsxPath}},
	}
	runCLITests(t, cli, tests, nil)

	data, err := ioutil.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Student Name,Email,Overall Grade,Status,UID,Roll Number", lines[0])
	assert.Equal(t, "Student 1,student1@school.edu,71,Good,UID1001,ROLL001", lines[1])

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Len(t, rows, 6)
}

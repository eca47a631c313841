package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/gradebook"
	"github.com/trezcool/gradebook/services/spreadsheet"
	"github.com/trezcool/gradebook/storage/jsonstore"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp       = errors.New("help provided")
	errAborted    = errors.New("aborted")
	errNotConfirm = errors.New("stdin is not a terminal: pass -yes to confirm")
)

type commandLine struct {
	store  *jsonstore.Store
	svc    gradebook.Service
	in     io.Reader
	out    io.Writer
	events []jsonstore.RecoveryEvent
}

func newCommandLine(path string, logger core.Logger) *commandLine {
	cli := &commandLine{in: os.Stdin, out: os.Stdout}
	cli.store = jsonstore.New(jsonstore.Options{
		Path:       path,
		Logger:     logger,
		OnRecovery: func(ev jsonstore.RecoveryEvent) { cli.events = append(cli.events, ev) },
	})
	cli.svc = gradebook.NewService(cli.store, logger)
	return cli
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  reset [-yes]                   - replace all data with the default document")
	fmt.Fprintln(cli.out, "  repair                         - load the document, repairing or replacing it if needed")
	fmt.Fprintln(cli.out, "  import -class ID -file F.xlsx  - add the students listed in a workbook to a class")
	fmt.Fprintln(cli.out, "  export -class ID -out F.csv    - write the roster of a class (.csv or .xlsx)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	resetCmd := flag.NewFlagSet("reset", flag.ExitOnError)
	resetYes := resetCmd.Bool("yes", false, "Do not ask for confirmation.")

	repairCmd := flag.NewFlagSet("repair", flag.ExitOnError)

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importClass := importCmd.String("class", "", "The id of the class receiving the students.")
	importFile := importCmd.String("file", "", "The XLSX workbook to read. Columns: "+strings.Join(spreadsheet.ImportHeader, ", ")+".")

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportClass := exportCmd.String("class", "", "The id of the class to export.")
	exportOut := exportCmd.String("out", "", "The file to write; its extension (.csv or .xlsx) selects the format.")

	ctx := context.Background()

	switch args[1] {
	case "reset":
		if err := resetCmd.Parse(args[2:]); err != nil {
			return err
		}
		if !*resetYes {
			if err := cli.confirm("Replace all data with the default document?"); err != nil {
				return err
			}
		}
		if err := cli.svc.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "Data has been reset to default values.")
		return nil

	case "repair":
		if err := repairCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.repair(ctx)

	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importClass == "" || *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importStudents(ctx, *importClass, *importFile)

	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportClass == "" || *exportOut == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.export(ctx, *exportClass, *exportOut)

	default:
		cli.printUsage()
		return errHelp
	}
}

// confirm asks a yes/no question on the terminal; anything but yes aborts.
func (cli *commandLine) confirm(question string) error {
	if !isTerminalFunc(int(os.Stdin.Fd())) {
		return errNotConfirm
	}
	fmt.Fprint(cli.out, question+" [y/N]: ")
	answer, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	}
	return errAborted
}

func (cli *commandLine) repair(ctx context.Context) error {
	cli.events = nil
	doc := cli.store.Load(ctx)

	if len(cli.events) == 0 {
		fmt.Fprintf(cli.out, "%s is healthy.\n", cli.store.Path())
	}
	for _, ev := range cli.events {
		if ev.Fallback() {
			fmt.Fprintf(cli.out, "%s was %s: replaced by the default document.\n", ev.Path, ev.Reason)
			continue
		}
		fmt.Fprintf(cli.out, "%s was repaired:\n", ev.Path)
		for _, r := range ev.Repairs {
			fmt.Fprintf(cli.out, "  - %s\n", r)
		}
	}
	fmt.Fprintf(cli.out, "%d classes, %d students, %d assignments.\n", len(doc.Classes), len(doc.Students), len(doc.Assignments))
	return nil
}

func (cli *commandLine) importStudents(ctx context.Context, classID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := spreadsheet.ReadStudents(f)
	if err != nil {
		return err
	}
	res, err := cli.svc.ImportStudents(ctx, classID, rows)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "%d student(s) added, %d row(s) skipped.\n", len(res.Added), len(res.Failed))
	for _, fail := range res.Failed {
		fmt.Fprintf(cli.out, "  row %d (%s): %s\n", fail.Row, fail.Email, fail.Reason)
	}
	return nil
}

func (cli *commandLine) export(ctx context.Context, classID, path string) error {
	view, err := cli.svc.Class(ctx, classID)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		err = spreadsheet.WriteXLSX(&buf, view)
	case ".csv", "":
		err = spreadsheet.WriteCSV(&buf, view)
	default:
		return fmt.Errorf("unsupported export format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	if err = ioutil.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d student(s) written to %s.\n", len(view.Students), path)
	return nil
}

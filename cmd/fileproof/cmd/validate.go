package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"fileproof/internal/tui/validateui"
	"fileproof/internal/validate"
)

var (
	flagDelimiter  string
	flagDuplicates bool
	flagMaxErrors  int
	flagReportPath string
	flagErrorsCSV  string
	flagJSON       bool
	flagNoProgress bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a delimited text or JSON file",
	Long: `Validate checks a data file and prints the validation report.

Files named *.json are parsed as JSON documents; everything else is
treated as delimited text with delimiter auto-detection. A first
interrupt cancels the run and keeps partial results; a second one
aborts immediately.

Exit codes: 0 passed, 1 failed, 130 cancelled.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&flagDelimiter, "delimiter", "d", "", "pin the field separator (single character, or 'tab')")
	validateCmd.Flags().BoolVar(&flagDuplicates, "duplicates", false, "detect duplicate rows")
	validateCmd.Flags().IntVar(&flagMaxErrors, "max-errors", validate.DefaultMaxErrors, "cap on recorded errors and warnings")
	validateCmd.Flags().StringVar(&flagReportPath, "report", "", "also write the text report to this file")
	validateCmd.Flags().StringVar(&flagErrorsCSV, "errors-csv", "", "also export errors as CSV to this file")
	validateCmd.Flags().BoolVar(&flagJSON, "json", false, "print the report as JSON instead of text")
	validateCmd.Flags().BoolVar(&flagNoProgress, "no-progress", false, "disable the interactive progress display")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]

	var delim byte
	if flagDelimiter != "" {
		d, err := parseDelimiterFlag(flagDelimiter)
		if err != nil {
			return err
		}
		delim = d
	}

	cancel := &validate.Flag{}

	var report *validate.Report
	if flagNoProgress || flagJSON {
		report = runPlain(path, delim, cancel)
	} else {
		report = runWithTUI(path, delim, cancel)
	}

	if err := writeOutputs(report); err != nil {
		return err
	}

	switch {
	case report.Cancelled:
		os.Exit(130)
	case !report.Passed:
		os.Exit(1)
	}
	return nil
}

// runFile dispatches to the right validator for the file name.
func runFile(path string, delim byte, cancel *validate.Flag, progress validate.ProgressFunc) *validate.Report {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return validate.JSON(path, validate.JSONOptions{
			MaxErrors: flagMaxErrors,
			Cancel:    cancel,
			Progress:  progress,
		})
	}
	return validate.Delimited(path, validate.DelimitedOptions{
		Delimiter:       delim,
		MaxErrors:       flagMaxErrors,
		CheckDuplicates: flagDuplicates,
		Cancel:          cancel,
		Progress:        progress,
	})
}

// runPlain validates without the progress display. The first interrupt
// raises the cancellation flag, the second aborts the process.
func runPlain(path string, delim byte, cancel *validate.Flag) *validate.Report {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel.Raise()
		<-sigCh
		os.Exit(130)
	}()

	return runFile(path, delim, cancel, nil)
}

// runWithTUI validates alongside a bubbletea progress display.
func runWithTUI(path string, delim byte, cancel *validate.Flag) *validate.Report {
	p := tea.NewProgram(validateui.New(filepath.Base(path), cancel.Raise))

	var report *validate.Report
	done := make(chan struct{})
	go func() {
		defer close(done)
		report = runFile(path, delim, cancel, func(percent float64, rows, errs int) {
			p.Send(validateui.ProgressMsg{Percent: percent, Rows: rows, Errors: errs})
		})
		p.Send(validateui.DoneMsg{})
	}()

	// A TUI failure (no TTY, for instance) must not lose the run.
	if _, err := p.Run(); err != nil {
		printError("progress display", err)
	}
	<-done

	return report
}

// writeOutputs prints the report and writes the optional artifacts.
func writeOutputs(report *validate.Report) error {
	if flagJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		fmt.Println(string(data))
	} else {
		fmt.Print(report.Render())
	}

	if flagReportPath != "" {
		if err := os.WriteFile(flagReportPath, []byte(report.Render()), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if flagErrorsCSV != "" {
		f, err := os.Create(flagErrorsCSV)
		if err != nil {
			return fmt.Errorf("write errors csv: %w", err)
		}
		if err := report.WriteErrorsCSV(f); err != nil {
			f.Close()
			return fmt.Errorf("write errors csv: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("write errors csv: %w", err)
		}
	}

	return nil
}

// parseDelimiterFlag maps the --delimiter value to a single byte.
func parseDelimiterFlag(v string) (byte, error) {
	switch v {
	case "\\t", "tab":
		return '\t', nil
	}
	if len(v) != 1 || v[0] > 0x7f {
		return 0, fmt.Errorf("delimiter must be a single ASCII character, got %q", v)
	}
	return v[0], nil
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/catalogsync/internal/resource"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool         `json:"valid"`
	Files []FileResult `json:"files"`
}

// FileResult holds the findings of one draft file.
type FileResult struct {
	File   string `json:"file"`
	Drafts int    `json:"drafts"`
	Findings
	LoadError *CLIError `json:"load_error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <kind> <drafts-file>...",
		Short: "Check draft files without contacting the backend",
		Long: `Check draft files against the draft schema and for semantic problems:
blank or duplicate keys, duplicate field and attribute names, self references,
UUID-shaped reference keys and reference cycles.

Cycles are reported as warnings; everything else fails validation.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Findings are already reported
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], args[1:], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, kind string, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if err := checkKind(kind); err != nil {
		return loadFailure(formatter, err)
	}

	res := ValidationResult{Valid: true}
	for _, path := range paths {
		formatter.VerboseLog("Validating %s file: %s", kind, path)
		fr := checkFile(kind, path)
		if fr.LoadError != nil || len(fr.Errors) > 0 {
			res.Valid = false
		}
		res.Files = append(res.Files, fr)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(res); err != nil {
			return err
		}
	} else {
		outputValidationText(formatter, res)
	}

	if !res.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

// checkFile loads one draft file of kind.
func checkFile(kind, path string) FileResult {
	fr := FileResult{File: path}
	var err error
	switch kind {
	case resource.KindType:
		fr.Drafts, fr.Findings, err = check[resource.TypeDraft](kind, path)
	case resource.KindProductType:
		fr.Drafts, fr.Findings, err = check[resource.ProductTypeDraft](kind, path)
	case resource.KindCategory:
		fr.Drafts, fr.Findings, err = check[resource.CategoryDraft](kind, path)
	case resource.KindProduct:
		fr.Drafts, fr.Findings, err = check[resource.ProductDraft](kind, path)
	default:
		err = checkKind(kind)
	}
	if err != nil {
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			loadErr = &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
		}
		fr.LoadError = &CLIError{Code: loadErr.Code, Message: loadErr.Error()}
	}
	return fr
}

func check[D any](kind, path string) (int, Findings, error) {
	doc, findings, err := LoadDrafts[D](kind, path)
	return len(doc.Drafts), findings, err
}

func outputValidationText(f *OutputFormatter, res ValidationResult) {
	for _, fr := range res.Files {
		switch {
		case fr.LoadError != nil:
			fmt.Fprintf(f.Writer, "✗ %s\n  %s\n", fr.File, fr.LoadError.Message)
		case len(fr.Errors) > 0:
			fmt.Fprintf(f.Writer, "✗ %s: %d problem(s) in %d drafts\n", fr.File, len(fr.Errors), fr.Drafts)
			for _, e := range fr.Errors {
				fmt.Fprintf(f.Writer, "  %s\n", e.Error())
			}
		default:
			fmt.Fprintf(f.Writer, "✓ %s: %d drafts valid\n", fr.File, fr.Drafts)
		}
		for _, c := range fr.Cycles {
			f.Warn("%s: %s", fr.File, c.Message)
		}
	}
}

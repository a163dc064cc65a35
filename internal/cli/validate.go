package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/arcflow/internal/strategy"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []strategy.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <strategy.cue>",
		Short: "Validate a strategy without compiling it",
		Long: `Check a CUE strategy file for declaration and structure errors.

All problems are reported, not only the first. Groups are not matched
against a model, so empty groups are only detected by run.

Exit codes:
  0 - Strategy is valid
  1 - Validation errors found
  2 - Command error (file not found, CUE syntax error)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	d, err := loadStrategyFile(path)
	if err != nil {
		return formatter.fail(loadErrorCode(err), "loading strategy", err)
	}

	errs := strategy.Validate(d)
	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	if formatter.Format == "json" {
		return formatter.JSON(CLIResponse{Status: "ok", Data: ValidationResult{Valid: true}})
	}
	fmt.Fprintf(formatter.Writer, "✓ %s is valid\n", path)
	return nil
}

// outputValidationErrors prints every error and returns ExitFailure.
func outputValidationErrors(formatter *OutputFormatter, errs []strategy.ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
			Data: ValidationResult{Valid: false, Errors: errs},
		}
		if err := formatter.JSON(response); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "%s\n", err.Field)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}
	return failure
}

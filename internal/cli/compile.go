package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/arcflow/internal/compiler"
	"github.com/roach88/arcflow/internal/strategy"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// DescriptionResult is the rendered form of a validated strategy.
type DescriptionResult struct {
	File      string        `json:"file"`
	Groups    []GroupResult `json:"groups"`
	Structure string        `json:"structure,omitempty"`
}

// GroupResult is one group declaration.
type GroupResult struct {
	Name  string `json:"name"`
	Where string `json:"where"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <strategy.cue>",
		Short: "Compile a CUE strategy and print its structure",
		Long: `Decode and validate a CUE strategy file, then print its group
declarations and the flattened structure tree.

Example:
  arcflow compile ./strategies/by_priority.cue
  arcflow compile ./strategies/by_priority.cue -o out.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	d, err := loadStrategyFile(path)
	if err != nil {
		return formatter.fail(loadErrorCode(err), "loading strategy", err)
	}
	formatter.VerboseLog("Decoded %d group(s) from %s", len(d.Groups), path)

	if errs := strategy.Validate(d); len(errs) > 0 {
		_ = outputValidationErrors(formatter, errs)
		// Invalid strategies are command-level errors for compile (exit code 2)
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	result, err := describe(path, d)
	if err != nil {
		return formatter.fail(ErrCodeGeneric, "flattening structure", err)
	}

	if opts.Output != "" {
		if err := writeDescription(result, opts.Output); err != nil {
			return formatter.fail(ErrCodeWriteFailed, "writing output file", err)
		}
	}

	if formatter.Format == "json" {
		return formatter.JSON(CLIResponse{Status: "ok", Data: result})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %s: %d group(s)\n\n", path, len(result.Groups))
	fmt.Fprintln(w, "Groups:")
	for _, g := range result.Groups {
		fmt.Fprintf(w, "  %s: %s\n", g.Name, g.Where)
	}
	fmt.Fprintln(w)
	if result.Structure == "" {
		fmt.Fprintln(w, "Structure: none (default engine)")
	} else {
		fmt.Fprintf(w, "Structure:\n  %s\n", result.Structure)
	}
	if opts.Output != "" {
		fmt.Fprintf(w, "\nWrote description to %s\n", opts.Output)
	}
	return nil
}

// loadStrategyFile reports a missing file as os.ErrNotExist.
func loadStrategyFile(path string) (*strategy.Description, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return compiler.LoadFile(path)
}

// loadErrorCode maps a strategy or scenario load error to its CLI code.
func loadErrorCode(err error) string {
	if errors.Is(err, os.ErrNotExist) {
		return ErrCodeNotFound
	}
	return ErrCodeDecode
}

func describe(path string, d *strategy.Description) (*DescriptionResult, error) {
	result := &DescriptionResult{File: path, Groups: make([]GroupResult, len(d.Groups))}
	for i, g := range d.Groups {
		result.Groups[i] = GroupResult{Name: g.Name, Where: g.Where.String()}
	}
	if d.Structure != nil {
		tree, err := strategy.Flatten(d.Structure)
		if err != nil {
			return nil, err
		}
		result.Structure = tree.String()
	}
	return result, nil
}

func writeDescription(result *DescriptionResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling description: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

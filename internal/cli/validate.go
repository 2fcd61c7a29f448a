package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"github.com/spf13/cobra"
)

//go:embed schema.cue
var schemaCUE string

// ValidationIssue is one schema violation in a batch file.
type ValidationIssue struct {
	Position string `json:"position,omitempty"`
	Message  string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <batch-file>",
		Short: "Validate a batch file without loading it",
		Long: `Validate a YAML batch description against the batch schema.

Checks the table/record/options structure and reference syntax without
touching any database. Record values themselves are not schema-checked;
the target tables' schemas are the store's business.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, batchPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(batchPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "read batch file", err)
	}

	issues, err := validateBatchData(batchPath, data)
	if err != nil {
		return WrapExitError(ExitCommandError, "validate batch file", err)
	}

	// The CUE schema catches shape errors; the loader catches what the
	// schema leaves open (mode spellings, ref/lookup forms, empty ids).
	if len(issues) == 0 {
		if _, err := ParseBatch(data); err != nil {
			issues = append(issues, ValidationIssue{Message: err.Error()})
		}
	}

	result := ValidationResult{Valid: len(issues) == 0, Issues: issues}
	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		if result.Valid {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", batchPath)
		} else {
			for _, issue := range result.Issues {
				if issue.Position != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", issue.Position, issue.Message)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), issue.Message)
				}
			}
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation issue(s)", len(result.Issues)))
	}
	return nil
}

// validateBatchData checks the YAML document against the embedded CUE schema.
func validateBatchData(filename string, data []byte) ([]ValidationIssue, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	batchDef := schema.LookupPath(cue.ParsePath("#Batch"))
	if err := batchDef.Err(); err != nil {
		return nil, fmt.Errorf("schema is missing #Batch: %w", err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return []ValidationIssue{{Message: fmt.Sprintf("parse YAML: %v", err)}}, nil
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return []ValidationIssue{{Message: err.Error()}}, nil
	}

	unified := batchDef.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var issues []ValidationIssue
		for _, e := range cueerrors.Errors(err) {
			issue := ValidationIssue{Message: e.Error()}
			if pos := e.Position(); pos.IsValid() {
				issue.Position = fmt.Sprintf("%s:%d:%d", pos.Filename(), pos.Line(), pos.Column())
			}
			issues = append(issues, issue)
		}
		return issues, nil
	}
	return nil, nil
}

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/kitops-ml/kitfile/internal/manifest"
	"github.com/spf13/cobra"
)

var errInvalid = errors.New("Kitfile is invalid")

var validateJSON bool

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print the validation report as JSON")
	rootCmd.AddCommand(validateCmd)
}

// validateReport is the --json form of a validation run.
type validateReport struct {
	File       string                     `json:"file"`
	Valid      bool                       `json:"valid"`
	Issues     []manifest.ValidationIssue `json:"issues,omitempty"`
	Error      string                     `json:"error,omitempty"`
	Advisories []manifest.Advisory        `json:"advisories,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a Kitfile against the schema and the filesystem",
	Long: `Validate checks the Kitfile structure against the JSON schema, then loads it
to confirm that every declared path exists. Advisories (non-semver versions,
duplicate paths, a missing model framework) are reported but do not fail.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileArg(args)
		report, err := validate()
		if validateJSON {
			out, mErr := json.MarshalIndent(report, "", "  ")
			if mErr != nil {
				return fmt.Errorf("marshaling validation report: %w", mErr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		}

		printReport(cmd.OutOrStdout(), report)
		return err
	},
}

func validate() (*validateReport, error) {
	path := kitfilePath()
	report := &validateReport{File: path}

	result, err := manifest.ValidateFile(path)
	if err != nil {
		report.Error = err.Error()
		return report, err
	}
	report.Issues = result.Issues
	if !result.Valid {
		return report, fmt.Errorf("%w: %d issue(s) in %s", errInvalid, len(result.Issues), path)
	}

	k, _, err := loadKitfile()
	if err != nil {
		report.Error = err.Error()
		return report, err
	}
	report.Valid = true
	report.Advisories = manifest.Lint(k)
	logger.Debug("validated Kitfile", "path", path, "advisories", len(report.Advisories))
	return report, nil
}

func printReport(w io.Writer, r *validateReport) {
	for _, issue := range r.Issues {
		if issue.Path != "" {
			fmt.Fprintf(w, "  ✗ %s: %s\n", issue.Path, issue.Message)
		} else {
			fmt.Fprintf(w, "  ✗ %s\n", issue.Message)
		}
	}
	if r.Error != "" {
		fmt.Fprintf(w, "  ✗ %s\n", r.Error)
	}
	for _, a := range r.Advisories {
		fmt.Fprintf(w, "  ! %s\n", a)
	}
	if r.Valid {
		fmt.Fprintf(w, "✓ %s is valid\n", r.File)
	}
}

package cli

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/kitops-ml/kitfile/internal/config"
	"github.com/kitops-ml/kitfile/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	initName        string
	initVersion     string
	initDescription string
	initAuthors     []string
	initForce       bool
)

func init() {
	initCmd.Flags().StringVar(&initName, "name", "", "Package name (default: directory name)")
	initCmd.Flags().StringVar(&initVersion, "version", "", "Package version (default: 0.1.0)")
	initCmd.Flags().StringVar(&initDescription, "description", "", "Package description")
	initCmd.Flags().StringSliceVar(&initAuthors, "author", nil, "Package author (repeatable; default from config)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing Kitfile")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Generate a Kitfile for an existing project",
	Long: `Init scans a project directory and writes a Kitfile declaring what it finds:
weight files become the model (the largest is the main path, the rest are
parts), tabular and record files become datasets, README/LICENSE/Markdown and
a docs/ directory become docs, and source files become code.

Hidden files and paths listed in .kitignore are skipped.

Example:
  kitfile init ./sentiment --author "Ada Lovelace"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if flagDir != "" {
			dir = flagDir
		}
		if len(args) == 1 {
			dir = args[0]
		}

		if initVersion != "" {
			if _, err := semver.NewVersion(initVersion); err != nil {
				return fmt.Errorf("--version %q is not a semantic version: %w", initVersion, err)
			}
		}

		authors := initAuthors
		if len(authors) == 0 {
			if a := config.Get(config.KeyAuthor); a != "" {
				authors = []string{a}
			}
		}

		result, err := scaffold.Generate(dir, scaffold.Options{
			Name:        initName,
			Version:     initVersion,
			Description: initDescription,
			Authors:     authors,
			Force:       initForce,
			Logger:      logger,
		})
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Created %s\n", result.Path)
		for _, cat := range []scaffold.Category{scaffold.CategoryModel, scaffold.CategoryDatasets, scaffold.CategoryDocs, scaffold.CategoryCode} {
			if n := len(result.Files[cat]); n > 0 {
				fmt.Fprintf(w, "  %-9s %d path(s)\n", cat, n)
			}
		}
		if len(result.Warnings) > 0 {
			fmt.Fprintln(w, "\nWarnings:")
			for _, warn := range result.Warnings {
				fmt.Fprintf(w, "  ! %s\n", warn)
			}
		}
		return nil
	},
}

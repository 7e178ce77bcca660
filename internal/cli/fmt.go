package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/kitops-ml/kitfile/internal/config"
	"github.com/spf13/cobra"
)

var (
	fmtStdout bool
	fmtAll    bool
	fmtCheck  bool
)

func init() {
	fmtCmd.Flags().BoolVar(&fmtStdout, "stdout", false, "Print the formatted Kitfile instead of rewriting it")
	fmtCmd.Flags().BoolVar(&fmtAll, "all", false, "Write every field, including empty ones")
	fmtCmd.Flags().BoolVar(&fmtCheck, "check", false, "Fail if the Kitfile is not already formatted")
	rootCmd.AddCommand(fmtCmd)
}

var fmtCmd = &cobra.Command{
	Use:   "fmt [file]",
	Short: "Rewrite a Kitfile in canonical form",
	Long: `Fmt loads and validates the Kitfile, then writes it back with keys in
declared order, two-space indentation, and model parameters normalized.

Empty fields are omitted unless --all is given or suppress_empty is false.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileArg(args)
		k, path, err := loadKitfile()
		if err != nil {
			return err
		}

		suppress := config.GetBool(config.KeySuppressEmpty) && !fmtAll
		out, err := k.Serialize(suppress)
		if err != nil {
			return err
		}
		current, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		formatted := bytes.Equal(current, out)

		w := cmd.OutOrStdout()
		switch {
		case fmtCheck:
			if !formatted {
				return fmt.Errorf("%s is not formatted; run '%s fmt'", path, cmd.Root().Name())
			}
			fmt.Fprintf(w, "✓ %s is formatted\n", path)
		case fmtStdout:
			_, err = w.Write(out)
			return err
		case formatted:
			fmt.Fprintf(w, "%s already formatted\n", path)
		default:
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("checking %s: %w", path, err)
			}
			if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			logger.Debug("formatted Kitfile", "path", path, "bytes", len(out))
			fmt.Fprintf(w, "Formatted %s\n", path)
		}
		return nil
	},
}

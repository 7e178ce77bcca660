package cli

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var showJSON bool

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the Kitfile as JSON")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Print a validated Kitfile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileArg(args)
		k, _, err := loadKitfile()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if !showJSON {
			return k.Print(w)
		}

		raw, err := k.MarshalJSON()
		if err != nil {
			return fmt.Errorf("marshaling Kitfile: %w", err)
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return fmt.Errorf("indenting Kitfile JSON: %w", err)
		}
		fmt.Fprintln(w, buf.String())
		return nil
	},
}

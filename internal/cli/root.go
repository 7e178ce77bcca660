package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kitops-ml/kitfile/internal/branding"
	"github.com/kitops-ml/kitfile/internal/config"
	"github.com/kitops-ml/kitfile/internal/manifest"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

// Persistent flags shared by every command.
var (
	flagFile    string
	flagDir     string
	flagVerbose bool
)

var logger = slog.Default()

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", "", "Kitfile to operate on (default from config, usually ./Kitfile)")
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "C", "", "Directory that Kitfile paths are relative to (default: the Kitfile's directory)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` validates, formats, and scaffolds Kitfiles: the YAML manifests
that describe an AI/ML project package (metadata, code, datasets, docs, and model).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()

		level := config.LogLevel()
		if flagVerbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// fileArg lets commands take the Kitfile as an optional positional argument
// in place of --file.
func fileArg(args []string) {
	if len(args) == 1 {
		flagFile = args[0]
	}
}

// kitfilePath returns the Kitfile selected by --file and --dir.
func kitfilePath() string {
	file := flagFile
	if file == "" {
		file = config.Get(config.KeyKitfile)
	}
	if file == "" {
		file = manifest.DefaultFileName
	}
	if flagDir != "" && !filepath.IsAbs(file) {
		file = filepath.Join(flagDir, file)
	}
	return file
}

// workDir returns the directory Kitfile entry paths are resolved against.
func workDir(path string) string {
	if flagDir != "" {
		return flagDir
	}
	return filepath.Dir(path)
}

func loadKitfile() (*manifest.Kitfile, string, error) {
	path := kitfilePath()
	k, err := manifest.Load(path, manifest.WithWorkDir(workDir(path)), manifest.WithLogger(logger))
	if err != nil {
		return nil, path, err
	}
	return k, path, nil
}

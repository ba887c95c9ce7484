package cmd

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"tinysh/core"
	"tinysh/core/config"
	"tinysh/core/env"
	"tinysh/core/logger"
)

var cfgPath string

// loadConfig returns the defaults when no config file exists; a config
// file that exists but doesn't parse or validate is a startup error.
func loadConfig() (*config.Configuration, error) {
	cfg, err := config.Load(afero.NewOsFs(), cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

// rootCmd runs the interpreter; there are no subcommands.
var rootCmd = &cobra.Command{
	Use:   "tinysh",
	Short: "Tiny interactive command interpreter",
	Long: `An interactive command interpreter: shell-style word expansion,
export/unset/cd/exit builtins, and synchronous launching of anything else
as a child process.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var session *logger.SessionLogger
		if cfg.SessionLog != "" {
			fd, err := os.OpenFile(cfg.SessionLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
			if err != nil {
				return err
			}
			defer fd.Close()
			session = logger.NewJsonLinesLogRecorder(fd).NewSession()
		}

		store := env.NewMapEnvFromEnvList(os.Environ())
		sh, err := core.NewShell(cfg, store, os.Stdin, os.Stdout, os.Stderr, session)
		if err != nil {
			return err
		}
		defer sh.Close()

		return sh.Run()
	},
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigDir(), "config path")
}

func defaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tinysh")
	}
	return "."
}

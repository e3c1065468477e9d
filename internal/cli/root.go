// Package cli implements pallyctl, the operator command line for the PallyOps API.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/client"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultConfigName = ".pallyctl"

type app struct {
	v       *viper.Viper
	cfgFile string
	logger  *zap.Logger
}

// NewRootCmd builds the command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "pallyctl",
		Short: "Operate PallyOps batches from the terminal",
		Long: `pallyctl talks to a PallyOps API server to start and end role
operations, inspect batch progress and export daily summaries.

Configuration is read from $HOME/.pallyctl.yaml (or --config), then
PALLYCTL_* environment variables, then flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.pallyctl.yaml)")
	pf.String("server", "http://localhost:8000", "PallyOps API base URL")
	pf.String("token", "", "access token (set by 'pallyctl login')")
	pf.Duration("timeout", 30*time.Second, "request timeout")
	for _, name := range []string{"server", "token", "timeout"} {
		_ = a.v.BindPFlag(name, pf.Lookup(name))
	}

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.startCmd(),
		a.endCmd(),
		a.endDriverCmd(),
		a.checkCmd(),
		a.batchesCmd(),
		a.rolesCmd(),
		a.initCmd(),
		a.summaryCmd(),
		a.exportCmd(),
	)
	return root
}

// Execute runs pallyctl with os.Args.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) initConfig(cmd *cobra.Command) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to resolve home directory: %w", err)
		}
		a.v.AddConfigPath(home)
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(defaultConfigName)
	}
	a.v.SetEnvPrefix("PALLYCTL")
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// configPath is where login persists the token.
func (a *app) configPath() (string, error) {
	if a.cfgFile != "" {
		return a.cfgFile, nil
	}
	if used := a.v.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			return used, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, defaultConfigName+".yaml"), nil
}

func (a *app) client() *client.Client {
	opts := client.DefaultOptions()
	if d := a.v.GetDuration("timeout"); d > 0 {
		opts.Timeout = d
	}
	return client.New(a.v.GetString("server"), a.v.GetString("token"), opts, a.logger)
}

func (a *app) requireToken() error {
	if a.v.GetString("token") == "" {
		return errors.New("not logged in: run 'pallyctl login' or pass --token")
	}
	return nil
}

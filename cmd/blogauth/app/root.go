// Package app holds the blogauth command tree.
package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/goliatone/go-blogauth/config"
)

type options struct {
	v          *viper.Viper
	configPath string
}

// NewRootCmd builds the command tree. Every subcommand reads the same
// viper instance so flags, file and environment resolve the same way.
func NewRootCmd() *cobra.Command {
	opts := &options{v: config.New()}

	rootCmd := &cobra.Command{
		Use:           "blogauth",
		Short:         "Blog service with session backed authentication",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging and query logging")
	rootCmd.PersistentFlags().String("dsn", "", "SQLite DSN, overrides database.dsn")

	if err := opts.v.BindPFlag("database.debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		panic(fmt.Sprintf("bind debug flag: %v", err))
	}
	if err := opts.v.BindPFlag("database.dsn", rootCmd.PersistentFlags().Lookup("dsn")); err != nil {
		panic(fmt.Sprintf("bind dsn flag: %v", err))
	}

	rootCmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newUsersCmd(opts),
		newBlogsCmd(opts),
	)
	return rootCmd
}

// load reads the config and installs the process wide zap logger
func (o *options) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadWith(o.v, o.configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := newZapLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}

func newZapLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Log.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	level := cfg.Log.Level
	if cfg.Database.Debug {
		level = "debug"
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		zc.Level = lvl
	}
	return zc.Build()
}

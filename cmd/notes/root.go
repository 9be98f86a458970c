package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"notes-sync/internal/config"
	"notes-sync/internal/logger"
)

// options общие флаги команд
type options struct {
	configFile string
	local      bool
	verbose    bool

	cfg    *config.Config
	log    *slog.Logger
	logOut io.Closer
}

// closeLog закрывает файл лога, если он был открыт
func (o *options) closeLog() error {
	if o.logOut == nil {
		return nil
	}
	err := o.logOut.Close()
	o.logOut = nil
	return err
}

// newRootCmd собирает дерево команд
func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "notes",
		Short: "Offline-tolerant notes with optional sync to a remote service",
		Long: `notes keeps a local copy of your notes and a queue of pending changes.
When a remote service is configured, changes are sent there and the queue
is replayed as soon as the service is reachable again.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(opts.configFile)
			if err != nil {
				return err
			}
			if opts.verbose {
				cfg.Logger.Level = "debug"
			}
			opts.cfg = cfg
			opts.log, opts.logOut = logger.New(cfg.Logger)
			slog.SetDefault(opts.log)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.closeLog()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "config.yml", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&opts.local, "local", false, "Use the local repository even if a remote is configured")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(
		newListCmd(opts),
		newShowCmd(opts),
		newCreateCmd(opts),
		newUpdateCmd(opts),
		newDeleteCmd(opts),
		newSyncCmd(opts),
		newPendingCmd(opts),
		newStatusCmd(opts),
		newHealthCmd(opts),
	)
	return rootCmd
}

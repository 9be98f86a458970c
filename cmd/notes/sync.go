package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"notes-sync/internal/health"
	"notes-sync/internal/repository"
)

func newSyncCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay pending changes against the remote service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				if a.remote == nil || opts.local {
					fmt.Fprintln(cmd.OutOrStdout(), "Remote is not configured, nothing to sync.")
					return nil
				}

				before := len(a.store.PeekOperations(cmd.Context()))
				if err := a.remote.SyncPending(cmd.Context()); err != nil {
					left := len(a.store.PeekOperations(cmd.Context()))
					return fmt.Errorf("sync failed, %d of %d operations still pending: %w", left, before, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Synced %d operations.\n", before)
				return nil
			})
		},
	}
}

func newPendingCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Show queued operations not yet confirmed by the remote service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				ops := a.local.Pending(cmd.Context())
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), ops)
				}
				for _, op := range ops {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n",
						time.UnixMilli(op.TS).Format(time.RFC3339), op.Type, string(op.Payload))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

// status краткая сводка состояния
type status struct {
	Kind    repository.Kind `json:"repositoryKind"`
	Remote  string          `json:"remote,omitempty"`
	Driver  string          `json:"storageDriver"`
	Notes   int             `json:"notes"`
	Pending int             `json:"pending"`
	SavedAt int64           `json:"savedAt"`
	Durable bool            `json:"durable"`
}

func newStatusCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show storage and sync status without contacting the remote service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				ctx := cmd.Context()
				st := status{
					Kind:    repository.KindLocal,
					Driver:  opts.cfg.Storage.Driver,
					Notes:   len(a.store.LoadNotes(ctx)),
					Pending: len(a.store.PeekOperations(ctx)),
					SavedAt: a.store.Meta(ctx).UpdatedAt,
					Durable: opts.cfg.Sync.Durable,
				}
				if a.remote != nil && !opts.local {
					st.Kind = repository.KindRemote
					st.Remote = a.client.BaseURL()
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), st)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "repository: %s\n", st.Kind)
				if st.Remote != "" {
					fmt.Fprintf(out, "remote:     %s\n", st.Remote)
				}
				fmt.Fprintf(out, "storage:    %s\n", st.Driver)
				fmt.Fprintf(out, "notes:      %d\n", st.Notes)
				fmt.Fprintf(out, "pending:    %d\n", st.Pending)
				if st.SavedAt > 0 {
					fmt.Fprintf(out, "saved at:   %s\n", time.UnixMilli(st.SavedAt).Format(time.RFC3339))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the remote service health endpoint once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				var res health.Result
				if a.client == nil {
					res = health.Check(cmd.Context(), nil, "")
				} else {
					res = health.Check(cmd.Context(), a.client, opts.cfg.Remote.HealthcheckURL())
				}
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

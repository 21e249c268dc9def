package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowstate/internal/api"
	"flowstate/internal/progress"
	"flowstate/internal/services"
	"flowstate/internal/statussync"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Exchange session state with the status system",
	}

	syncCmd.AddCommand(newSyncPushCommand(ctx))
	syncCmd.AddCommand(newSyncPullCommand(ctx))

	return syncCmd
}

func newSyncPushCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "push <session-id>",
		Short: "Push a session snapshot to the status system now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				res, err := rt.mgr.GetSession(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				def, err := rt.defs.GetByID(res.Session.WorkflowID)
				if err != nil {
					return err
				}
				pct, err := progress.ForSession(res.Session, &def)
				if err != nil {
					return err
				}
				task, err := statussync.BuildTask(res.Session, &def, pct)
				if err != nil {
					return err
				}
				if err := rt.pusher.Push(cmd.Context(), task); err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.Result{Success: true})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pushed %s (%s)\n", task.ID, task.Status)
				return nil
			})
		},
	}
}

func newSyncPullCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <status-id>",
		Short: "Apply an external status change to the local session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				res, err := rt.syncer.SyncStatusToSession(cmd.Context(), args[0])
				if err != nil {
					if ctx.jsonOutput() {
						_ = writeJSON(cmd, api.Failure(err))
					}
					if services.ErrorCode(err) == "external_sync" {
						return fmt.Errorf("status system unavailable: %w", err)
					}
					return err
				}
				return ctx.outputSession(cmd, res, nil, "synced from status system")
			})
		},
	}
}

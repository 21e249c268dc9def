package main

import (
	"github.com/spf13/cobra"
)

func newStageCommand(ctx *commandContext) *cobra.Command {
	stageCmd := &cobra.Command{
		Use:   "stage",
		Short: "Move and complete session stages",
	}

	stageCmd.AddCommand(newStageSetCommand(ctx))
	stageCmd.AddCommand(newStageCompleteCommand(ctx))

	return stageCmd
}

func newStageSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <session-id> <stage-id>",
		Short: "Move the session to a stage along a declared transition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				res, err := rt.mgr.SetCurrentStage(cmd.Context(), args[0], args[1])
				return ctx.outputSession(cmd, res, err, "moved to "+args[1])
			})
		},
	}
}

func newStageCompleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <session-id> <stage-id>",
		Short: "Mark a stage done and advance along the workflow graph",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				res, err := rt.mgr.CompleteStage(cmd.Context(), args[0], args[1])
				return ctx.outputSession(cmd, res, err, "completed stage "+args[1])
			})
		},
	}
}

func newContextCommand(ctx *commandContext) *cobra.Command {
	contextCmd := &cobra.Command{
		Use:   "context",
		Short: "Manage session context values",
	}

	contextCmd.AddCommand(&cobra.Command{
		Use:   "set <session-id> <key> <value>",
		Short: "Set a context key used by transition conditions",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				res, err := rt.mgr.SetContextValue(cmd.Context(), args[0], args[1], args[2])
				return ctx.outputSession(cmd, res, err, "context updated")
			})
		},
	})

	return contextCmd
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"flowstate/internal/api"
	"flowstate/internal/engine"
	"flowstate/internal/progress"
	"flowstate/internal/services"
	"flowstate/internal/session"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Create and drive workflow sessions",
	}

	sessionCmd.AddCommand(newSessionCreateCommand(ctx))
	sessionCmd.AddCommand(newSessionListCommand(ctx))
	sessionCmd.AddCommand(newSessionShowCommand(ctx))
	sessionCmd.AddCommand(newSessionStartCommand(ctx))
	sessionCmd.AddCommand(newSessionPauseCommand(ctx))
	sessionCmd.AddCommand(newSessionResumeCommand(ctx))
	sessionCmd.AddCommand(newSessionNextCommand(ctx))
	sessionCmd.AddCommand(newSessionCompleteCommand(ctx))
	sessionCmd.AddCommand(newSessionAbortCommand(ctx))
	sessionCmd.AddCommand(newSessionDeleteCommand(ctx))
	sessionCmd.AddCommand(newStageCommand(ctx))
	sessionCmd.AddCommand(newContextCommand(ctx))

	return sessionCmd
}

// outputSession renders a mutation outcome: the JSON envelope under --json,
// a one-line summary otherwise.
func (c *commandContext) outputSession(cmd *cobra.Command, res engine.Result, err error, verb string) error {
	if err != nil {
		if c.jsonOutput() {
			_ = writeJSON(cmd, api.Failure(err))
		}
		return err
	}
	if c.jsonOutput() {
		return writeJSON(cmd, api.Success(api.FromResult(res)))
	}
	sess := res.Session
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s %s: status %s, progress %s\n",
		truncateID(sess.ID), verb, sess.Status, formatProgress(res.Progress))
	return nil
}

func newSessionCreateCommand(ctx *commandContext) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create <workflow-id>",
		Short: "Create a session for a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				res, err := rt.mgr.CreateSession(cmd.Context(), args[0], name)
				if err != nil {
					if ctx.jsonOutput() {
						_ = writeJSON(cmd, api.Failure(err))
					}
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.Success(api.FromResult(res)))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created session %s for workflow %s\n",
					res.Session.ID, res.Session.WorkflowID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Human-readable session name")
	return cmd
}

func newSessionListCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]session.Status, 0, len(statusFilters))
			for _, raw := range statusFilters {
				status, ok := session.ParseStatus(raw)
				if !ok {
					return services.Wrap(services.ErrValidation, "cli", "session-list",
						fmt.Sprintf("unknown status %q (known: %s)", raw, knownStatuses()), nil)
				}
				statuses = append(statuses, status)
			}

			return ctx.withRuntime(cmd, func(rt *runtime) error {
				sessions, err := rt.mgr.ListSessions(cmd.Context(), statuses...)
				if err != nil {
					return err
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, api.Result{Success: true, Sessions: api.FromSessions(sessions)})
				}
				if len(sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sessions")
					return nil
				}

				rows := make([][]string, 0, len(sessions))
				for _, sess := range sessions {
					def, defErr := rt.defs.GetByID(sess.WorkflowID)
					progressText := "-"
					if defErr == nil {
						if pct, pctErr := progress.ForSession(sess, &def); pctErr == nil {
							progressText = formatProgress(pct)
						}
					}
					rows = append(rows, []string{
						truncateID(sess.ID),
						sess.Name,
						sess.WorkflowID,
						statusLabel(string(sess.Status)),
						sess.CurrentStageID,
						progressText,
					})
				}
				table := renderTable(
					[]string{"ID", "Name", "Workflow", "Status", "Stage", "Progress"},
					rows,
					5,
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func newSessionShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session snapshot with its stage trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				res, err := rt.mgr.GetSession(cmd.Context(), args[0])
				if err != nil {
					if ctx.jsonOutput() {
						_ = writeJSON(cmd, api.Failure(err))
					}
					return err
				}
				instances, err := rt.mgr.StageInstances(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				if ctx.jsonOutput() {
					envelope := api.Success(api.FromResult(res))
					envelope.Stages = api.FromStageInstances(instances)
					return writeJSON(cmd, envelope)
				}

				out := cmd.OutOrStdout()
				sess := res.Session
				fmt.Fprintf(out, "Session:  %s\n", sess.ID)
				if sess.Name != "" {
					fmt.Fprintf(out, "Name:     %s\n", sess.Name)
				}
				if def, defErr := rt.defs.GetByID(sess.WorkflowID); defErr == nil {
					fmt.Fprintf(out, "Workflow: %s\n", workflowSummary(def))
				} else {
					fmt.Fprintf(out, "Workflow: %s\n", sess.WorkflowID)
				}
				fmt.Fprintf(out, "Status:   %s\n", statusLabel(string(sess.Status)))
				if sess.CurrentStageID != "" {
					fmt.Fprintf(out, "Stage:    %s\n", sess.CurrentStageID)
				}
				fmt.Fprintf(out, "Progress: %s\n", formatProgress(res.Progress))
				if sess.FailureReason != "" {
					fmt.Fprintf(out, "Failure:  %s\n", sess.FailureReason)
				}
				if len(sess.Context) > 0 {
					pairs := make([]string, 0, len(sess.Context))
					for k, v := range sess.Context {
						pairs = append(pairs, k+"="+v)
					}
					fmt.Fprintf(out, "Context:  %s\n", strings.Join(pairs, " "))
				}

				if len(instances) > 0 {
					rows := make([][]string, 0, len(instances))
					for _, view := range api.FromStageInstances(instances) {
						rows = append(rows, []string{
							view.StageID,
							statusLabel(view.Status),
							view.StartedAt,
							view.CompletedAt,
						})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"Stage", "Status", "Started", "Completed"},
						rows,
					))
				}
				return nil
			})
		},
	}
}

func newSessionStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start <session-id>",
		Short: "Activate a pending or paused session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				res, err := rt.mgr.StartSession(cmd.Context(), args[0])
				return ctx.outputSession(cmd, res, err, "started")
			})
		},
	}
}

func newSessionPauseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pause <session-id>",
		Short: "Put an active session on hold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				res, err := rt.mgr.PauseSession(cmd.Context(), args[0])
				return ctx.outputSession(cmd, res, err, "paused")
			})
		},
	}
}

func newSessionResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <session-id>",
		Short: "Resume a paused session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				res, err := rt.mgr.ResumeSession(cmd.Context(), args[0])
				return ctx.outputSession(cmd, res, err, "resumed")
			})
		},
	}
}

func newSessionNextCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "next <session-id>",
		Short: "Suggest the next stages reachable from the current stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				next, err := rt.mgr.SuggestNextStages(cmd.Context(), args[0])
				if err != nil {
					if ctx.jsonOutput() {
						_ = writeJSON(cmd, api.Failure(err))
					}
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.Result{Success: true, Next: next})
				}
				if len(next) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No reachable stages")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(next, "\n"))
				return nil
			})
		},
	}
}

func newSessionCompleteCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "complete <session-id>",
		Short: "Complete an active session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				res, err := rt.mgr.CompleteSession(cmd.Context(), args[0], force)
				return ctx.outputSession(cmd, res, err, "completed")
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Complete even when stages remain")
	return cmd
}

func newSessionAbortCommand(ctx *commandContext) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "abort <session-id>",
		Short: "Fail a session with a reason",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				res, err := rt.mgr.AbortSession(cmd.Context(), args[0], reason)
				return ctx.outputSession(cmd, res, err, "aborted")
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Why the session failed")
	return cmd
}

func newSessionDeleteCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and its stage trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return services.Wrap(services.ErrValidation, "cli", "session-delete",
					"deletion is permanent; re-run with --yes to confirm", nil)
			}
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				if err := rt.mgr.DeleteSession(cmd.Context(), args[0]); err != nil {
					if ctx.jsonOutput() {
						_ = writeJSON(cmd, api.Failure(err))
					}
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.Result{Success: true})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

func knownStatuses() string {
	statuses := session.AllStatuses()
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"flowstate/internal/api"
	"flowstate/internal/workflowdef"
)

func newWorkflowCommand(ctx *commandContext) *cobra.Command {
	workflowCmd := &cobra.Command{
		Use:   "workflow",
		Short: "Inspect the workflow definition catalog",
	}

	workflowCmd.AddCommand(newWorkflowListCommand(ctx))
	workflowCmd.AddCommand(newWorkflowShowCommand(ctx))

	return workflowCmd
}

func newWorkflowListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workflow definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			defs, err := workflowdef.OpenCatalog(cfg)
			if err != nil {
				return err
			}

			definitions := defs.List()
			if ctx.jsonOutput() {
				views := make([]api.WorkflowView, 0, len(definitions))
				for _, def := range definitions {
					views = append(views, api.FromDefinition(def))
				}
				return writeJSON(cmd, views)
			}

			if len(definitions) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No workflows in %s\n", defs.Dir())
				return nil
			}
			rows := make([][]string, 0, len(definitions))
			for _, def := range definitions {
				rows = append(rows, []string{
					def.ID,
					def.Name,
					strconv.Itoa(def.Version),
					strconv.Itoa(len(def.Stages)),
				})
			}
			table := renderTable(
				[]string{"ID", "Name", "Version", "Stages"},
				rows,
				2, 3,
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

func newWorkflowShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <workflow-id>",
		Short: "Show a workflow's stages and transitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			defs, err := workflowdef.OpenCatalog(cfg)
			if err != nil {
				return err
			}
			def, err := defs.GetByID(args[0])
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, api.FromDefinition(def))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s) v%d\n", def.Name, def.ID, def.Version)
			if def.Description != "" {
				fmt.Fprintln(out, def.Description)
			}

			stageRows := make([][]string, 0, len(def.Stages))
			for _, stage := range def.Stages {
				stageRows = append(stageRows, []string{
					strconv.Itoa(stage.Order),
					stage.ID,
					stage.Name,
					strconv.Itoa(len(stage.Checklist)),
					strconv.Itoa(len(stage.Deliverables)),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Order", "ID", "Name", "Checklist", "Deliverables"},
				stageRows,
				0, 3, 4,
			))

			if len(def.Transitions) > 0 {
				transitionRows := make([][]string, 0, len(def.Transitions))
				for _, transition := range def.Transitions {
					condition := transition.Condition
					if condition == "" {
						condition = "always"
					}
					transitionRows = append(transitionRows, []string{
						transition.From + " -> " + transition.To,
						condition,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Transition", "Condition"},
					transitionRows,
				))
			}
			return nil
		},
	}
}

// workflowSummary renders the single-line form used by session show.
func workflowSummary(def workflowdef.Definition) string {
	ids := def.StageIDs()
	return fmt.Sprintf("%s (%s)", def.Name, strings.Join(ids, " -> "))
}

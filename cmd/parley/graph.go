package main

import (
	"fmt"

	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the step graph",
	Long: `Prints the conversation steps as a Mermaid diagram (graph TD), YAML or JSON.
With --session the Mermaid output highlights the steps that session visited.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		sessionID, _ := cmd.Flags().GetString("session")

		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		steps := runtime.DefaultSteps(cfg.Prompt)
		out := cmd.OutOrStdout()

		switch format {
		case "yaml":
			return graph.WriteYAML(out, graph.NewDocument(steps, domain.StepIDPrompt))
		case "json":
			return graph.WriteJSON(out, graph.NewDocument(steps, domain.StepIDPrompt))
		case "mermaid":
		default:
			return fmt.Errorf("unknown format %q (use mermaid, yaml or json)", format)
		}

		var overlay *graph.Overlay
		if sessionID != "" {
			backend, err := cli.NewBackend(cmd.Context(), cli.PersistentStore(cfg.Store))
			if err != nil {
				return err
			}
			defer backend.Close()

			snap, err := backend.Store.Load(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("load session %s: %w", sessionID, err)
			}
			overlay = graph.OverlayFromSnapshot(snap)
		}

		fmt.Fprint(out, graph.GenerateMermaid(steps, domain.StepIDPrompt, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid, yaml or json")
	graphCmd.Flags().StringP("session", "s", "", "Highlight the path of a saved session")
}

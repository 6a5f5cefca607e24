package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/parley/internal/cli"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage saved sessions",
	Long: `List, inspect and remove the sessions saved by chat --session.
The memory store keeps nothing between runs, so it is read as the file store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List saved sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openSessionBackend(cmd)
		if err != nil {
			return err
		}
		defer backend.Close()

		sessions, err := backend.Store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No saved sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Saved Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the saved snapshot of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		backend, err := openSessionBackend(cmd)
		if err != nil {
			return err
		}
		defer backend.Close()

		snap, err := backend.Store.Load(cmd.Context(), sessionID)
		if err != nil {
			return fmt.Errorf("load session '%s': %w", sessionID, err)
		}
		data, err := sonic.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("encode session '%s': %w", sessionID, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return errors.New("requires at least one session id, or --all")
		}

		backend, err := openSessionBackend(cmd)
		if err != nil {
			return err
		}
		defer backend.Close()

		if all {
			if args, err = backend.Store.List(cmd.Context()); err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		var errs []error
		for _, sessionID := range args {
			if err := backend.Store.Delete(cmd.Context(), sessionID); err != nil {
				errs = append(errs, fmt.Errorf("remove '%s': %w", sessionID, err))
				continue
			}
			fmt.Fprintf(out, "Removed session '%s'\n", sessionID)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionRmCmd.Flags().Bool("all", false, "Remove every saved session")
}

func openSessionBackend(cmd *cobra.Command) (*cli.Backend, error) {
	cfg, err := loadConfig(false)
	if err != nil {
		return nil, err
	}
	return cli.NewBackend(cmd.Context(), cli.PersistentStore(cfg.Store))
}

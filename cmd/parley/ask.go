package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := joinArgs(args)
		if question == "" {
			return errors.New("question is empty")
		}

		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		logger, err := cli.NewLogger(cfg.Log, debugMode)
		if err != nil {
			return err
		}

		provider, err := cli.NewProvider(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		engine, err := cli.NewEngine(provider, cfg, logger)
		if err != nil {
			return err
		}

		answer, err := cli.Ask(cmd.Context(), engine, question)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}

package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Asks for a question, shows the answer and asks again until you type exit
or quit, or close the input. With --session the conversation is saved after
every turn and resumed on the next run.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	sessionID, _ := flags.GetString("session")
	fresh, _ := flags.GetBool("fresh")
	jsonMode, _ := flags.GetBool("json")
	headless, _ := flags.GetBool("headless")

	return cli.RunChat(cmd.Context(), cfg, cli.ChatOptions{
		SessionID: sessionID,
		Fresh:     fresh,
		JSON:      jsonMode,
		Headless:  headless,
		Debug:     debugMode,
		In:        cmd.InOrStdin(),
		Out:       cmd.OutOrStdout(),
	})
}

func addChatFlags(flags *pflag.FlagSet) {
	flags.StringP("session", "s", "", "Session ID to persist and resume")
	flags.Bool("fresh", false, "Discard the saved session before starting")
	flags.Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	flags.Bool("headless", false, "Run in headless mode (no banner, no loading indicator)")
}

func init() {
	rootCmd.AddCommand(chatCmd)
	addChatFlags(chatCmd.Flags())

	// chat is the default command.
	addChatFlags(rootCmd.Flags())
	rootCmd.RunE = runChat
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/parley/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	settings   = config.New()
	configFile string
	dotenvFile string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley is a question and answer loop backed by Gemini",
	Long: `Parley asks for a question, sends it to the Gemini API and shows the answer,
then asks again. It runs as an interactive chat, a one-shot command, an HTTP API
or an MCP server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var paths []string
		if dotenvFile != "" {
			paths = append(paths, dotenvFile)
		}
		return config.LoadDotEnv(paths...)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// flagBindings maps persistent flags onto configuration keys.
var flagBindings = map[string]string{
	"api-key":    "api_key",
	"prompt":     "prompt",
	"driver":     "provider.driver",
	"model":      "provider.model",
	"base-url":   "provider.base_url",
	"timeout":    "provider.timeout",
	"store":      "store.driver",
	"store-dir":  "store.dir",
	"redis-addr": "store.redis_addr",
	"log-level":  "log.level",
	"log-format": "log.format",
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (yaml, json or toml)")
	flags.StringVar(&dotenvFile, "dotenv", "", "Env file to load (default .env)")
	flags.BoolVar(&debugMode, "debug", false, "Enable debug logging")

	flags.String("api-key", "", "Gemini API key (env PARLEY_API_KEY or GEMINI_API_KEY)")
	flags.String("prompt", "", "Question shown by the prompt step")
	flags.String("driver", "", "Answer provider: rest, genai or echo")
	flags.String("model", "", "Gemini model name")
	flags.String("base-url", "", "Gemini REST base URL")
	flags.Duration("timeout", 0, "Answer request timeout")
	flags.String("store", "", "Session store: memory, file or redis")
	flags.String("store-dir", "", "Directory of the file store")
	flags.String("redis-addr", "", "Redis address for the redis store")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text or json")

	bindFlags(settings, rootCmd, flagBindings)
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, bindings map[string]string) {
	for flag, key := range bindings {
		f := cmd.PersistentFlags().Lookup(flag)
		if f == nil {
			f = cmd.Flags().Lookup(flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}
}

// loadConfig decodes the merged configuration. Strict mode also enforces the
// cross-field rules, such as the required api key.
func loadConfig(strict bool) (*config.Config, error) {
	if strict {
		return config.Load(settings, configFile)
	}
	return config.Decode(settings, configFile)
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

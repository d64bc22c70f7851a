package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/palettelabs/cmdpal/config"
	"github.com/palettelabs/cmdpal/forms"
	"github.com/palettelabs/cmdpal/history"
	"github.com/palettelabs/cmdpal/palette"
	"github.com/palettelabs/cmdpal/telemetry"
	"github.com/palettelabs/cmdpal/tui"
)

var (
	// Flags
	endpoint         string
	theme            string
	storageBackend   string
	storageKey       string
	maxConversations int
	verbose          bool

	// Root command
	rootCmd = &cobra.Command{
		Use:   "cmdpal",
		Short: "Command palette with AI chat",
		Long:  "cmdpal - A command palette for the terminal with fuzzy command search, AI chat, and persistent conversation history",
		RunE:  runPalette,
	}

	// History command
	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Chat history commands",
	}

	// List history subcommand
	listHistoryCmd = &cobra.Command{
		Use:   "list",
		Short: "List saved conversations",
		RunE:  listHistory,
	}

	// Clear history subcommand
	clearHistoryCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved conversations",
		RunE:  clearHistory,
	}

	// Integration command
	integrationCmd = &cobra.Command{
		Use:   "integration",
		Short: "Print backend integration instructions",
		RunE:  printIntegration,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Chat endpoint URL (empty disables AI chat)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "", "Color theme (dark, dracula, nord)")
	rootCmd.PersistentFlags().StringVar(&storageBackend, "storage", "", "History backend (file, sqlite, memory)")
	rootCmd.PersistentFlags().StringVar(&storageKey, "storage-key", "", "History storage key")
	rootCmd.PersistentFlags().IntVar(&maxConversations, "max-conversations", 0, "Maximum conversations to keep")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(integrationCmd)
	historyCmd.AddCommand(listHistoryCmd)
	historyCmd.AddCommand(clearHistoryCmd)

	viper.SetEnvPrefix("CMDPAL")
	viper.AutomaticEnv()
	viper.BindPFlags(rootCmd.PersistentFlags())
}

func main() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfig layers flags over env over the config file
func resolveConfig() (config.Config, error) {
	manager, err := config.NewManager()
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to create config manager: %w", err)
	}

	cfg := manager.Get()
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = manager.GetHistoryBackend()
	}
	if cfg.Theme == "" {
		cfg.Theme = manager.GetTheme()
	}

	if v := viper.GetString("endpoint"); v != "" {
		cfg.Endpoint = v
	}
	if v := viper.GetString("theme"); v != "" {
		cfg.Theme = v
	}
	if v := viper.GetString("storage"); v != "" {
		cfg.HistoryBackend = v
	}
	if v := viper.GetString("storage-key"); v != "" {
		cfg.StorageKey = v
	}
	if v := viper.GetInt("max-conversations"); v > 0 {
		cfg.MaxConversations = v
	}

	return cfg, nil
}

func openStorage(cfg config.Config) (history.Storage, error) {
	switch cfg.HistoryBackend {
	case "", "file":
		return history.DefaultFileStorage()
	case "sqlite":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		if err := os.MkdirAll(homeDir+"/.cmdpal", 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return history.NewSQLiteStorage(homeDir + "/.cmdpal/history.db")
	case "memory":
		return history.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown history backend: %s", cfg.HistoryBackend)
	}
}

func runPalette(cmd *cobra.Command, args []string) error {
	if verbose {
		os.Setenv("CMDPAL_DEBUG", "true")
	}

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	storage, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to open history storage: %w", err)
	}

	reporter := telemetry.New(cfg.TelemetryEndpoint)
	defer reporter.Close()

	var app *tui.App

	controller, err := palette.NewController(palette.Config{
		Commands:         builtinCommands(),
		Endpoint:         cfg.Endpoint,
		Storage:          storage,
		StorageKey:       cfg.StorageKey,
		MaxConversations: cfg.MaxConversations,
		AskAILabel:       cfg.AskAILabel,
		OnOpenChange: func(open bool) {
			if !open && app != nil {
				app.Quit()
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create palette: %w", err)
	}

	if verbose {
		fmt.Printf("Using theme: %s, history backend: %s\n", cfg.Theme, cfg.HistoryBackend)
		if cfg.Endpoint != "" {
			fmt.Printf("Chat endpoint: %s\n", cfg.Endpoint)
		} else {
			fmt.Println("AI chat disabled (no endpoint configured)")
		}
	}

	app = tui.NewApp(controller, cfg.Theme)
	if err := reporter.Span("run-palette", "ui", app.Run); err != nil {
		reporter.CaptureError(err, map[string]string{"op": "run-palette"})
		return err
	}
	return nil
}

// builtinCommands is the demo command set the standalone binary ships
// with; embedding applications supply their own. Chat itself is
// reached through the Ask AI item, not a command.
func builtinCommands() []palette.CommandDefinition {
	return []palette.CommandDefinition{
		{
			Name:  "docs",
			Label: "Open documentation",
			Group: "Help",
			OnSelect: func() {
				fmt.Println("https://github.com/palettelabs/cmdpal#readme")
			},
		},
		{
			Name:     "version",
			Label:    "Show version",
			Group:    "Help",
			Keywords: []string{"about"},
			OnSelect: func() {
				fmt.Println("cmdpal " + version)
			},
		},
	}
}

var version = "dev"

func listHistory(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	storage, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to open history storage: %w", err)
	}

	key := cfg.StorageKey
	if key == "" {
		key = history.DefaultStorageKey
	}
	data, err := storage.Load(key)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if data == nil {
		fmt.Println("No saved conversations.")
		return nil
	}

	var stored history.StoredHistory
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse history: %w", err)
	}

	if len(stored.Conversations) == 0 {
		fmt.Println("No saved conversations.")
		return nil
	}

	fmt.Printf("Saved conversations (%d):\n", len(stored.Conversations))
	for _, convo := range stored.Conversations {
		updated := time.UnixMilli(convo.UpdatedAt).Format("2006-01-02 15:04")
		fmt.Printf("  %s  %-50s %d messages\n", updated, convo.Title, len(convo.Messages))
	}
	return nil
}

func clearHistory(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	storage, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to open history storage: %w", err)
	}

	key := cfg.StorageKey
	if key == "" {
		key = history.DefaultStorageKey
	}
	if err := storage.Delete(key); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	fmt.Println("Chat history cleared.")
	return nil
}

func printIntegration(cmd *cobra.Command, args []string) error {
	fmt.Print(integrationGuide)

	schemas, err := json.MarshalIndent(forms.ElementSchemas(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render form schemas: %w", err)
	}
	fmt.Println("## Form element schemas")
	fmt.Println()
	fmt.Println("```json")
	fmt.Println(string(schemas))
	fmt.Println("```")
	return nil
}

const integrationGuide = `# cmdpal backend integration

The palette speaks to a single chat endpoint over HTTP.

## Request

POST <endpoint> with a JSON body:

    {"messages": [{"id": "...", "role": "user", "parts": [{"type": "text", "text": "..."}]}]}

## Response

Stream server-sent events, one JSON payload per "data:" line:

    data: {"type": "text-delta", "delta": "Hello"}
    data: {"type": "ui", "part": {"type": "ui", "ui": {...}}}
    data: {"type": "error", "error": "..."}
    data: [DONE]

text-delta events append to the assistant message as they arrive. A ui
event carries a declarative form tree (schemas below). End the stream
with [DONE]; the palette then saves the conversation automatically.

Form submissions come back as a user message with the shape
"[Form:<id>] {...}" and cancellations as "[Form:<id>] cancelled".

`

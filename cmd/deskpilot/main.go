package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// CLI represents the main CLI structure
type CLI struct {
	Config   string `short:"c" help:"Config file path"`
	APIKey   string `env:"DESKPILOT_API_KEY" help:"Model provider API key"`
	LogLevel string `default:"" help:"Log level (overrides config)"`

	Chat    ChatCmd    `cmd:"" help:"Chat with the assistant"`
	Migrate MigrateCmd `cmd:"" help:"Database migrations"`
	Health  HealthCmd  `cmd:"" help:"Show adapter health and model telemetry"`
	Outbox  OutboxCmd  `cmd:"" help:"Inspect the local ticket outbox"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("deskpilot"),
		kong.Description("Helpdesk chatbot orchestration core"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	err := ctx.Run(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

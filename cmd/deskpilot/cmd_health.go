package main

import (
	"context"
	"fmt"

	"github.com/elee1766/deskpilot/src/capability"
)

// HealthCmd probes every configured adapter and prints the health registry
// plus model telemetry.
type HealthCmd struct {
	Probe bool `help:"Connect to each adapter before reporting"`
}

// Run executes the health command.
func (c *HealthCmd) Run(cli *CLI) error {
	app, err := buildApp(cli, createCLILogger)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()

	capabilities := make([]capability.Capability, 0, len(capability.All)+1)
	capabilities = append(capabilities, capability.All...)
	capabilities = append(capabilities, capability.Publish)

	fmt.Println("adapters:")
	for _, cap := range capabilities {
		chain := app.Gateway.Adapters(cap)
		if len(chain) == 0 {
			continue
		}
		for _, adapter := range chain {
			name := adapter.Name()
			if c.Probe {
				probeCtx, cancel := context.WithTimeout(ctx, adapter.ConnectTimeout())
				if err := adapter.Initialize(probeCtx); err != nil {
					app.Gateway.Health().MarkUnhealthy(name)
				} else {
					app.Gateway.Health().MarkHealthy(name)
				}
				cancel()
			}
			fmt.Printf("  %-20s %-16s priority=%d status=%s\n",
				name, cap.String(), adapter.Priority(), app.Gateway.Health().Status(name))
		}
	}

	tel := app.Router.Telemetry().Snapshot()
	fmt.Println("model telemetry:")
	fmt.Printf("  calls=%d errors=%d\n", tel.Calls, tel.Errors)
	fmt.Printf("  prompt_tokens=%d completion_tokens=%d\n", tel.PromptTokens, tel.CompletionTokens)
	fmt.Printf("  total_latency=%s estimated_cost_usd=%.4f\n", tel.TotalLatency, tel.EstimatedCostUSD)
	return nil
}

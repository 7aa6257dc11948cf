// Package main provides the flowkit command line utility for validating
// flow definitions and translating cron expressions offline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/keboola/flowkit/pkg/flows"
	"github.com/keboola/flowkit/pkg/models"
)

func main() {
	cmd := &cli.Command{
		Name:                  "flowkit",
		Usage:                 "Validate flow definitions and inspect schedules",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Aliases:   []string{"v"},
				Usage:     "Validate a flow configuration JSON file",
				ArgsUsage: "<file>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return validateFile(cmd.Args().First())
				},
			},
			{
				Name:    "cron",
				Aliases: []string{"c"},
				Usage:   "Translate between cron expressions and structured schedules",
				Commands: []*cli.Command{
					{
						Name:      "parse",
						Usage:     "Parse a cron expression into a structured schedule",
						ArgsUsage: "<crontab>",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							return parseCron(cmd.Args().First())
						},
					},
					{
						Name:      "render",
						Usage:     "Render a structured schedule JSON file as a cron expression",
						ArgsUsage: "<file>",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							return renderCron(cmd.Args().First())
						},
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func validateFile(path string) error {
	if path == "" {
		return fmt.Errorf("missing flow file argument")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var configuration models.FlowConfiguration
	if err := json.Unmarshal(data, &configuration); err != nil {
		return fmt.Errorf("invalid flow JSON: %w", err)
	}

	phases, err := flows.EnsurePhaseIDs(configuration.Phases)
	if err != nil {
		return err
	}

	tasks, err := flows.EnsureTaskIDs(configuration.Tasks)
	if err != nil {
		return err
	}

	if err := flows.ValidateStructure(phases, tasks); err != nil {
		return err
	}

	fmt.Printf("OK: %d phases, %d tasks\n", len(phases), len(tasks))

	return nil
}

func parseCron(crontab string) error {
	if crontab == "" {
		return fmt.Errorf("missing crontab argument")
	}

	schedule, err := models.ParseCronTab(crontab)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(schedule, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))

	return nil
}

func renderCron(path string) error {
	if path == "" {
		return fmt.Errorf("missing schedule file argument")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var schedule models.SimplifiedCronSchedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return fmt.Errorf("invalid schedule JSON: %w", err)
	}

	crontab, err := schedule.CronTab()
	if err != nil {
		return err
	}

	fmt.Println(crontab)

	return nil
}

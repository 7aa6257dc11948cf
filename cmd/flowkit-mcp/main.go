// Package main runs the Flowkit MCP server over stdio.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/keboola/flowkit/pkg/flows"
	"github.com/keboola/flowkit/pkg/log"
	"github.com/keboola/flowkit/pkg/mcpserver"
	"github.com/keboola/flowkit/pkg/platform/memory"
	"github.com/keboola/flowkit/pkg/schedules"
)

func main() {
	logger := log.WithModule("mcp")

	cmd := &cli.Command{
		Name:                  "flowkit-mcp",
		Usage:                 "Expose flow and schedule management as MCP tools over stdio",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Flowkit MCP server")

			backend := memory.NewBackend()
			flowService := flows.NewService(backend, logger)
			scheduleService := schedules.NewService(backend, backend, logger)

			srv := mcpserver.NewServer(flowService, scheduleService, logger)

			if err := srv.ServeStdio(); err != nil {
				logger.ErrorContext(ctx, "MCP server stopped", "error", err)

				return err
			}

			return nil
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

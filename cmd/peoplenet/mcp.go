package main

import (
	"context"

	"peoplenet/internal/mcpserver"

	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the people tools over MCP on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			a.logger.Info("serving MCP on stdio")
			return mcpserver.New(a.svc, version).Run(cmd.Context())
		},
	}
}

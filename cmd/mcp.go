package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/leadtools"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/mcp"
)

var (
	mcpOrg     string
	mcpProject string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the lead query tools over MCP stdio",
	Long:  "Serves get_leads, get_lead_by_status, get_lead_by_source and get_lead_stats to an MCP client. --org and --project set the default scope; each call may override them.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("mcp"); err != nil {
			return err
		}
		defaults := leadtools.Scope{
			OrganisationID: mcpOrg,
			ProjectID:      mcpProject,
			ClientID:       cfg.Leads.ClientID,
		}
		zap.L().Info("starting mcp server",
			zap.String("organisation_id", mcpOrg),
			zap.String("project_id", mcpProject),
		)
		return mcp.Run(newLeadsClient(cfg, nil), defaults, version)
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpOrg, "org", "", "default organisation id")
	mcpCmd.Flags().StringVar(&mcpProject, "project", "", "default project id")
	rootCmd.AddCommand(mcpCmd)
}

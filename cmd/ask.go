package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/chat"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/leadtools"
)

var (
	askOrg     string
	askProject string
	askLegacy  bool
	askOutput  string
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask the assistant a question about a project's leads",
	Long:  "Runs one chat turn with the lead query tools. With --legacy the full lead context is sent in a single prompt instead.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("chat"); err != nil {
			return err
		}
		if askOrg == "" || askProject == "" {
			return eris.New("--org and --project are required")
		}

		fetcher := newLeadsClient(cfg, nil)
		svc, err := newChatService(cfg, fetcher, nil)
		if err != nil {
			return err
		}

		scope := leadtools.Scope{OrganisationID: askOrg, ProjectID: askProject}
		message := strings.Join(args, " ")

		if askLegacy {
			resp, err := svc.Query(cmd.Context(), chat.QueryRequest{Scope: scope, Query: message})
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), askOutput, resp)
		}

		resp, err := svc.Chat(cmd.Context(), chat.ChatRequest{Scope: scope, Message: message})
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), askOutput, resp)
	},
}

func init() {
	askCmd.Flags().StringVar(&askOrg, "org", "", "organisation id")
	askCmd.Flags().StringVar(&askProject, "project", "", "project id")
	askCmd.Flags().BoolVar(&askLegacy, "legacy", false, "single prompt over the full lead context, no tools")
	askCmd.Flags().StringVarP(&askOutput, "output", "o", outputJSON, "output format: json or yaml")
	rootCmd.AddCommand(askCmd)
}

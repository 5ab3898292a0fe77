package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/lead"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/leadtools"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/pkg/leadsapi"
)

// summaryConcurrency bounds the parallel fetches of leads summary.
const summaryConcurrency = 4

var (
	leadsOrg      string
	leadsProjects []string
	leadsOutput   string
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Fetch and inspect a project's leads",
}

var leadsRawCmd = &cobra.Command{
	Use:   "raw",
	Short: "Print the upstream grouped payload",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := singleScope()
		if err != nil {
			return err
		}
		raw, err := newLeadsClient(cfg, nil).FetchLeads(cmd.Context(), leadsapi.FetchRequest{
			OrganisationID: sc.OrganisationID,
			ProjectID:      sc.ProjectID,
		})
		if err != nil {
			return err
		}
		return writeRawOutput(cmd.OutOrStdout(), leadsOutput, raw)
	},
}

var leadsProcessedCmd = &cobra.Command{
	Use:   "processed",
	Short: "Print the normalized dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := singleScope()
		if err != nil {
			return err
		}
		raw, err := newLeadsClient(cfg, nil).FetchLeads(cmd.Context(), leadsapi.FetchRequest{
			OrganisationID: sc.OrganisationID,
			ProjectID:      sc.ProjectID,
		})
		if err != nil {
			return err
		}
		ds, err := lead.Normalize(raw)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), leadsOutput, ds)
	},
}

// projectSummary is one row of leads summary.
type projectSummary struct {
	ProjectID string             `json:"project_id" yaml:"project_id"`
	Summary   *leadtools.Summary `json:"summary" yaml:"summary"`
}

var leadsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print lead totals per status and source for one or more projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateLeadsFlags(); err != nil {
			return err
		}
		rows, err := summarize(cmd.Context(), newLeadsClient(cfg, nil), leadsOrg, leadsProjects)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), leadsOutput, rows)
	},
}

// summarize fetches every project concurrently and returns the summaries in
// the order the projects were given.
func summarize(ctx context.Context, fetcher leadsapi.Client, org string, projects []string) ([]projectSummary, error) {
	rows := make([]projectSummary, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)

	for i, project := range projects {
		g.Go(func() error {
			ts := leadtools.NewToolset(fetcher, leadtools.Scope{OrganisationID: org, ProjectID: project})
			s, err := ts.ListSummary(gctx)
			if err != nil {
				return eris.Wrapf(err, "project %s", project)
			}
			rows[i] = projectSummary{ProjectID: project, Summary: s}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

var leadsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print lead totals by status, source and assignee",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := singleToolset()
		if err != nil {
			return err
		}
		stats, err := ts.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), leadsOutput, stats)
	},
}

var leadsStatusCmd = &cobra.Command{
	Use:   "status <status>",
	Short: "Print the leads with a status (case-insensitive)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := singleToolset()
		if err != nil {
			return err
		}
		match, err := ts.FilterByStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), leadsOutput, match)
	},
}

var leadsSourceCmd = &cobra.Command{
	Use:   "source <source>",
	Short: "Print the leads from a source (case-insensitive)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := singleToolset()
		if err != nil {
			return err
		}
		match, err := ts.FilterBySource(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), leadsOutput, match)
	},
}

func validateLeadsFlags() error {
	if err := cfg.Validate("leads"); err != nil {
		return err
	}
	if leadsOrg == "" || len(leadsProjects) == 0 {
		return eris.New("--org and --project are required")
	}
	return nil
}

// singleScope returns the scope of commands that take exactly one project.
func singleScope() (leadtools.Scope, error) {
	if err := validateLeadsFlags(); err != nil {
		return leadtools.Scope{}, err
	}
	if len(leadsProjects) != 1 {
		return leadtools.Scope{}, eris.New("exactly one --project is required")
	}
	return leadtools.Scope{OrganisationID: leadsOrg, ProjectID: leadsProjects[0]}, nil
}

func singleToolset() (*leadtools.Toolset, error) {
	sc, err := singleScope()
	if err != nil {
		return nil, err
	}
	return leadtools.NewToolset(newLeadsClient(cfg, nil), sc), nil
}

func init() {
	leadsCmd.PersistentFlags().StringVar(&leadsOrg, "org", "", "organisation id")
	leadsCmd.PersistentFlags().StringSliceVar(&leadsProjects, "project", nil, "project id (repeatable for summary)")
	leadsCmd.PersistentFlags().StringVarP(&leadsOutput, "output", "o", outputJSON, "output format: json or yaml")

	leadsCmd.AddCommand(leadsRawCmd, leadsProcessedCmd, leadsSummaryCmd, leadsStatsCmd, leadsStatusCmd, leadsSourceCmd)
	rootCmd.AddCommand(leadsCmd)
}

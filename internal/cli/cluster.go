package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newClusterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Inspect correlation clusters",
	}

	cmd.AddCommand(newClusterSweepCmd())
	cmd.AddCommand(newClusterMembersCmd())

	return cmd
}

func newClusterSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run an on-demand correlation sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			clusters, err := apiClient.Clusters().Sweep(ctx)
			if err != nil {
				return fmt.Errorf("failed to run correlation sweep: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(clusters)
			}

			if len(clusters) == 0 {
				fmt.Println("No correlation clusters found")
				return nil
			}

			t := NewTable("CORRELATION", "ALERTS", "CONFIDENCE", "INDICATORS")
			for _, c := range clusters {
				t.AddRow(
					truncate(c.CorrelationID, 8),
					strconv.Itoa(len(c.AlertIDs)),
					fmt.Sprintf("%.2f", c.Confidence),
					truncate(strings.Join(c.SharedIndicators, ", "), 50),
				)
			}
			t.Render()
			return nil
		},
	}
}

func newClusterMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members <correlation-id>",
		Short: "List the alerts in a correlation cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			page, err := apiClient.Clusters().Members(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get cluster members: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(page.Data)
			}

			t := NewTable("ID", "SOURCE", "CLASSIFICATION", "SEVERITY", "STATUS", "TITLE")
			for _, a := range page.Data {
				t.AddRow(
					truncate(a.ID, 8),
					a.SourceSystem,
					a.Classification,
					formatSeverity(a.Severity),
					formatStatus(a.Status),
					truncate(a.Title, 50),
				)
			}
			t.Render()
			return nil
		},
	}
}

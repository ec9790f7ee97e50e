package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pratik-mahalle/sentrydesk/pkg/client"
	"github.com/spf13/cobra"
)

func newIncidentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "incident",
		Short: "Manage escalated incidents",
	}

	cmd.AddCommand(newIncidentListCmd())
	cmd.AddCommand(newIncidentGetCmd())
	cmd.AddCommand(newIncidentStatusCmd())
	cmd.AddCommand(newIncidentAssignCmd())

	return cmd
}

func newIncidentListCmd() *cobra.Command {
	var severity, priority, category, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List incidents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			page, err := apiClient.Incidents().List(ctx, &client.IncidentListOptions{
				Severity: severity,
				Priority: priority,
				Category: category,
				Status:   status,
			})
			if err != nil {
				return fmt.Errorf("failed to list incidents: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(page.Data)
			}

			t := NewTable("ID", "PRIORITY", "CATEGORY", "STATUS", "ASSIGNEE", "TITLE")
			for _, in := range page.Data {
				assignee := "-"
				if in.AssignedTo != 0 {
					assignee = strconv.FormatInt(in.AssignedTo, 10)
				}
				t.AddRow(
					truncate(in.ID, 8),
					in.Priority,
					in.Category,
					formatStatus(in.Status),
					assignee,
					truncate(in.Title, 50),
				)
			}
			t.Render()
			fmt.Printf("\nShowing %d of %d incidents\n", len(page.Data), page.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&severity, "severity", "", "filter by severity")
	cmd.Flags().StringVar(&priority, "priority", "", "filter by priority")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")

	return cmd
}

func newIncidentGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get incident details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			in, err := apiClient.Incidents().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get incident: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(in)
			}

			fmt.Printf("ID:           %s\n", in.ID)
			fmt.Printf("Title:        %s\n", in.Title)
			fmt.Printf("Severity:     %s\n", formatSeverity(in.Severity))
			fmt.Printf("Priority:     %s\n", in.Priority)
			fmt.Printf("Category:     %s\n", in.Category)
			fmt.Printf("Status:       %s\n", formatStatus(in.Status))
			fmt.Printf("Source alert: %s\n", in.SourceAlertID)
			if in.AssignedTo != 0 {
				fmt.Printf("Assigned to:  %d\n", in.AssignedTo)
			}
			fmt.Printf("Created:      %s\n", in.CreatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

func newIncidentStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move an incident to a new status (open, in_progress, closed)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			in, err := apiClient.Incidents().UpdateStatus(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to update incident status: %w", err)
			}

			fmt.Printf("Incident %s is now %s\n", truncate(in.ID, 8), in.Status)
			return nil
		},
	}
}

func newIncidentAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <id> <user-id>",
		Short: "Reassign an incident to another analyst",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			assigneeID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user ID: %s", args[1])
			}

			ctx := context.Background()
			in, err := apiClient.Incidents().Reassign(ctx, args[0], assigneeID)
			if err != nil {
				return fmt.Errorf("failed to reassign incident: %w", err)
			}

			fmt.Printf("Incident %s assigned to user %d\n", truncate(in.ID, 8), in.AssignedTo)
			return nil
		},
	}
}

package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pratik-mahalle/sentrydesk/pkg/client"
	"github.com/spf13/cobra"
)

func newAlertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Triage alerts",
	}

	cmd.AddCommand(newAlertListCmd())
	cmd.AddCommand(newAlertGetCmd())
	cmd.AddCommand(newAlertHistoryCmd())
	cmd.AddCommand(newAlertInvestigateCmd())
	cmd.AddCommand(newAlertResolveCmd())
	cmd.AddCommand(newAlertEscalateCmd())

	return cmd
}

func newAlertListCmd() *cobra.Command {
	var source, severity, status, classification string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			page, err := apiClient.Alerts().List(ctx, &client.AlertListOptions{
				Source:         source,
				Severity:       severity,
				Status:         status,
				Classification: classification,
			})
			if err != nil {
				return fmt.Errorf("failed to list alerts: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(page.Data)
			}

			t := NewTable("ID", "SOURCE", "CLASSIFICATION", "SEVERITY", "STATUS", "SEEN", "TITLE")
			for _, a := range page.Data {
				t.AddRow(
					truncate(a.ID, 8),
					a.SourceSystem,
					a.Classification,
					formatSeverity(a.Severity),
					formatStatus(a.Status),
					strconv.Itoa(a.SeenCount),
					truncate(a.Title, 50),
				)
			}
			t.Render()
			fmt.Printf("\nShowing %d of %d alerts\n", len(page.Data), page.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "filter by source system")
	cmd.Flags().StringVar(&severity, "severity", "", "filter by severity")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&classification, "classification", "", "filter by classification")

	return cmd
}

func newAlertGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get alert details with playbook guidance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			alert, err := apiClient.Alerts().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get alert: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(alert)
			}

			fmt.Printf("ID:             %s\n", alert.ID)
			fmt.Printf("Source:         %s\n", alert.SourceSystem)
			fmt.Printf("Classification: %s\n", alert.Classification)
			fmt.Printf("Category:       %s\n", alert.Category)
			fmt.Printf("Severity:       %s\n", formatSeverity(alert.Severity))
			fmt.Printf("Status:         %s\n", formatStatus(alert.Status))
			fmt.Printf("Title:          %s\n", alert.Title)
			fmt.Printf("Seen count:     %d\n", alert.SeenCount)
			if alert.AssignedTo != 0 {
				fmt.Printf("Assigned to:    %d\n", alert.AssignedTo)
			}
			if alert.CorrelationID != "" {
				fmt.Printf("Correlation:    %s\n", alert.CorrelationID)
			}
			if alert.IncidentID != "" {
				fmt.Printf("Incident:       %s\n", alert.IncidentID)
			}
			fmt.Printf("First seen:     %s\n", alert.FirstSeenAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("Last seen:      %s\n", alert.LastSeenAt.Format("2006-01-02 15:04:05"))

			if g := alert.Guidance; g != nil {
				fmt.Printf("\nPlaybook: %s\n", g.PlaybookName)
				if g.EscalateToIncident != "" {
					fmt.Printf("  Escalate:       %s\n", g.EscalateToIncident)
				}
				if g.ResolveBenign != "" {
					fmt.Printf("  Benign:         %s\n", g.ResolveBenign)
				}
				if g.ResolveFalsePositive != "" {
					fmt.Printf("  False positive: %s\n", g.ResolveFalsePositive)
				}
			}
			return nil
		},
	}
}

func newAlertHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the audit trail of an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			history, err := apiClient.Alerts().History(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get alert history: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(history)
			}

			t := NewTable("AT", "FROM", "TO", "ACTOR", "NOTE")
			for _, h := range history {
				t.AddRow(
					h.At.Format("2006-01-02 15:04:05"),
					h.FromStatus,
					h.ToStatus,
					strconv.FormatInt(h.ActorID, 10),
					truncate(h.Note, 40),
				)
			}
			t.Render()
			return nil
		},
	}
}

func newAlertInvestigateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "investigate <id>",
		Short: "Start investigating an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			alert, err := apiClient.Alerts().Investigate(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to start investigation: %w", err)
			}

			fmt.Printf("Alert %s is now %s\n", truncate(alert.ID, 8), alert.Status)
			return nil
		},
	}
}

func newAlertResolveCmd() *cobra.Command {
	var outcome, notes string

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve an alert with an outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if notes == "" {
				notes = promptInput("Resolution notes: ")
			}

			ctx := context.Background()
			alert, err := apiClient.Alerts().Resolve(ctx, args[0], client.ResolveAlertRequest{
				Outcome: outcome,
				Notes:   notes,
			})
			if err != nil {
				return fmt.Errorf("failed to resolve alert: %w", err)
			}

			fmt.Printf("Alert %s resolved as %s\n", truncate(alert.ID, 8), outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&outcome, "outcome", "benign", "resolution outcome: benign, false_positive")
	cmd.Flags().StringVar(&notes, "notes", "", "analyst notes")

	return cmd
}

func newAlertEscalateCmd() *cobra.Command {
	var note, title, description string

	cmd := &cobra.Command{
		Use:   "escalate <id>",
		Short: "Escalate an alert to an incident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			incident, err := apiClient.Alerts().Escalate(ctx, args[0], client.EscalateAlertRequest{
				IncidentTitle:       title,
				IncidentDescription: description,
				Note:                note,
			})
			if err != nil {
				return fmt.Errorf("failed to escalate alert: %w", err)
			}

			fmt.Printf("Incident %s created (priority %s)\n", truncate(incident.ID, 8), incident.Priority)
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "escalation note")
	cmd.Flags().StringVar(&title, "title", "", "incident title override")
	cmd.Flags().StringVar(&description, "description", "", "incident description override")

	return cmd
}

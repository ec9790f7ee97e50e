package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pratik-mahalle/sentrydesk/pkg/client"
	"github.com/spf13/cobra"
)

func newPlaybookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playbook",
		Short: "Manage resolution playbooks",
	}

	cmd.AddCommand(newPlaybookListCmd())
	cmd.AddCommand(newPlaybookGetCmd())
	cmd.AddCommand(newPlaybookCreateCmd())
	cmd.AddCommand(newPlaybookActivateCmd())
	cmd.AddCommand(newPlaybookRetireCmd())
	cmd.AddCommand(newPlaybookDeleteCmd())

	return cmd
}

func newPlaybookListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List playbooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			playbooks, err := apiClient.Playbooks().List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list playbooks: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(playbooks)
			}

			t := NewTable("ID", "NAME", "VERSION", "STATUS")
			for _, p := range playbooks {
				t.AddRow(
					truncate(p.ID, 8),
					truncate(p.Name, 40),
					strconv.Itoa(p.Version),
					formatStatus(p.Status),
				)
			}
			t.Render()
			return nil
		},
	}
}

func newPlaybookGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get playbook details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := apiClient.Playbooks().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get playbook: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(p)
			}

			fmt.Printf("ID:      %s\n", p.ID)
			fmt.Printf("Name:    %s\n", p.Name)
			fmt.Printf("Version: %d\n", p.Version)
			fmt.Printf("Status:  %s\n", formatStatus(p.Status))
			if p.Purpose != "" {
				fmt.Printf("Purpose: %s\n", p.Purpose)
			}

			if len(p.Links) > 0 {
				fmt.Println("\nClassifications:")
				for _, l := range p.Links {
					marker := ""
					if l.IsPrimary {
						marker = " (primary)"
					}
					fmt.Printf("  - %s%s\n", l.Classification, marker)
				}
			}

			g := p.Guidance
			if g.EscalateToIncident != "" || g.ResolveBenign != "" || g.ResolveFalsePositive != "" {
				fmt.Println("\nGuidance:")
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

func newPlaybookCreateCmd() *cobra.Command {
	var name, purpose, classifications string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new draft playbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			var links []client.ClassificationLink
			for i, c := range strings.Split(classifications, ",") {
				if c = strings.TrimSpace(c); c != "" {
					links = append(links, client.ClassificationLink{
						Classification: c,
						IsPrimary:      i == 0,
					})
				}
			}

			ctx := context.Background()
			id, err := apiClient.Playbooks().Create(ctx, client.CreatePlaybookRequest{
				Name:    name,
				Purpose: purpose,
				Links:   links,
			})
			if err != nil {
				return fmt.Errorf("failed to create playbook: %w", err)
			}

			fmt.Printf("Playbook %s created as draft\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "playbook name")
	cmd.Flags().StringVar(&purpose, "purpose", "", "playbook purpose")
	cmd.Flags().StringVar(&classifications, "classifications", "", "comma-separated classifications (first is primary)")

	return cmd
}

func newPlaybookActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <id>",
		Short: "Make a playbook live",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if err := apiClient.Playbooks().Activate(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to activate playbook: %w", err)
			}

			fmt.Printf("Playbook %s activated\n", args[0])
			return nil
		},
	}
}

func newPlaybookRetireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retire <id>",
		Short: "Take a playbook out of service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if err := apiClient.Playbooks().Retire(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to retire playbook: %w", err)
			}

			fmt.Printf("Playbook %s retired\n", args[0])
			return nil
		},
	}
}

func newPlaybookDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a non-active playbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if err := apiClient.Playbooks().Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete playbook: %w", err)
			}

			fmt.Printf("Playbook %s deleted\n", args[0])
			return nil
		},
	}
}

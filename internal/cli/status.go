package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server status and alert queue summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			health, err := apiClient.Health(ctx)
			if err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}

			summary, err := apiClient.Alerts().Summary(ctx)
			if err != nil {
				return fmt.Errorf("failed to get alert summary: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(map[string]interface{}{
					"server": health,
					"alerts": summary,
				})
			}

			fmt.Printf("Server:  %s\n", viper.GetString("server_url"))
			fmt.Printf("Status:  %s\n", formatStatus(health["status"]))
			fmt.Println()

			if len(summary) == 0 {
				fmt.Println("No alerts in queue")
				return nil
			}

			statuses := make([]string, 0, len(summary))
			for s := range summary {
				statuses = append(statuses, s)
			}
			sort.Strings(statuses)

			t := NewTable("STATUS", "COUNT")
			for _, s := range statuses {
				t.AddRow(formatStatus(s), fmt.Sprintf("%d", summary[s]))
			}
			t.Render()
			return nil
		},
	}
}

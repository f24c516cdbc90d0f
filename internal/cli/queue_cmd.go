package cli

import (
	"context"
	"fmt"

	"github.com/sbenjam1n/clientintake/internal/queue"
	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Notification queue management",
}

var queueStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queued and unacknowledged notifications in Redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		rdb, err := connectRedis()
		if err != nil {
			return err
		}
		defer rdb.Close()

		ctx := context.Background()
		length, pending, err := queue.New(rdb).Status(ctx)
		if err != nil {
			return fmt.Errorf("queue status: %w", err)
		}

		fmt.Printf("Queue Status:\n")
		fmt.Printf("  %s: %d entries, %d pending ack\n", queue.StreamNotifications, length, pending)
		return nil
	},
}

func init() {
	queueCmd.AddCommand(queueStatusCmd)
}

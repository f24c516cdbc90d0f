package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sbenjam1n/clientintake/internal/queue"
	"github.com/sbenjam1n/clientintake/internal/relay"
	"github.com/sbenjam1n/clientintake/internal/transport"
	"github.com/spf13/cobra"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Notification relay operations",
}

var relayRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the relay: forward queued payer notifications to the mail service",
	RunE: func(cmd *cobra.Command, args []string) error {
		once, _ := cmd.Flags().GetBool("once")
		consumer, _ := cmd.Flags().GetString("consumer")

		if cfg.NotifyEmail == "" {
			return fmt.Errorf("no notification recipient\nSet INTAKE_NOTIFY_EMAIL environment variable")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rdb, err := connectRedis()
		if err != nil {
			return err
		}
		defer rdb.Close()

		r := relay.New(queue.New(rdb), transport.NewFormSubmit(cfg.NotifyURL, cfg.NotifyEmail), slog.Default())
		if consumer != "" {
			r.Consumer = consumer
		}

		if once {
			n, err := r.Drain(ctx)
			fmt.Printf("Relayed %d notification(s)\n", n)
			return err
		}

		fmt.Println("Relay running. Consuming notifications from Redis...")
		fmt.Println("(Press Ctrl+C to stop)")
		if err := r.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	relayRunCmd.Flags().Bool("once", false, "Drain pending notifications and exit")
	relayRunCmd.Flags().String("consumer", "", "Consumer name within the relay group")

	relayCmd.AddCommand(relayRunCmd)
}

package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sbenjam1n/clientintake/internal/queue"
	"github.com/sbenjam1n/clientintake/internal/server"
	"github.com/sbenjam1n/clientintake/internal/store"
	"github.com/sbenjam1n/clientintake/internal/submission"
	"github.com/sbenjam1n/clientintake/internal/transport"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the intake API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.ListenAddr
		}

		schema, err := loadSchema()
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		notifier, closeNotifier, err := buildNotifier()
		if err != nil {
			return err
		}
		defer closeNotifier()

		sub := submission.New(buildTransport(st), notifier, submission.Config{
			Redirect:      cfg.ThankYouURL,
			NotifyTimeout: cfg.NotifyTimeout,
			Logger:        slog.Default(),
		})

		srv := server.New(server.Options{
			Schema:         schema,
			Submitter:      sub,
			Store:          st,
			Logger:         slog.Default(),
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		})
		return srv.ListenAndServe(ctx, addr)
	},
}

// buildTransport persists every submission. When INTAKE_SUBMIT_URL is set the record is
// forwarded there first and only stored once the endpoint accepts it.
func buildTransport(st store.Store) submission.Transport {
	var t transport.Fanout
	if cfg.SubmitURL != "" {
		t = append(t, transport.NewHTTP(cfg.SubmitURL))
	}
	return append(t, transport.StoreTransport{Store: st})
}

// buildNotifier queues notifications when Redis is configured and sends them
// inline otherwise. It returns nil when no recipient is configured.
func buildNotifier() (submission.Notifier, func(), error) {
	noop := func() {}
	if cfg.RedisURL != "" {
		rdb, err := connectRedis()
		if err != nil {
			return nil, noop, err
		}
		return queue.Notifier{Queue: queue.New(rdb)}, func() { rdb.Close() }, nil
	}
	if cfg.NotifyEmail == "" {
		slog.Warn("payer notifications disabled", "reason", "INTAKE_NOTIFY_EMAIL not set")
		return nil, noop, nil
	}
	return transport.NewFormSubmit(cfg.NotifyURL, cfg.NotifyEmail), noop, nil
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default INTAKE_LISTEN_ADDR)")
}


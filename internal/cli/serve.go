package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"claimcheck/internal/api"
	"claimcheck/internal/explain"
	"claimcheck/internal/gather"
	"claimcheck/internal/model"
	"claimcheck/internal/notify"
	"claimcheck/internal/oracle"
	"claimcheck/internal/queue"
	"claimcheck/internal/store"
	"claimcheck/internal/validate"
	"claimcheck/internal/worker"
)

var (
	serveWorkers int
	serveNoAPI   bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run verification workers and the ingest API",
	Long: `Serve starts the verification worker group against the configured queue
and, unless disabled, the HTTP ingest API that accepts claim submissions.

Multiple serve processes may run against the same Redis queue for
horizontal throughput; claims are independent and never interfere.

Example:
  claimcheck serve
  claimcheck serve --workers 4 --no-api`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&serveWorkers, "workers", 0, "worker count (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoAPI, "no-api", false, "disable the HTTP ingest API")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveWorkers > 0 {
		cfg.Worker.Count = serveWorkers
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.OpenSQLite(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	q, err := buildQueue(cfg.Queue)
	if err != nil {
		return fmt.Errorf("build queue: %w", err)
	}
	defer func() { _ = q.Close() }()

	runner, err := buildRunner(ctx, cfg, st)
	if err != nil {
		return err
	}

	workers := worker.NewWorkers(q, runner, cfg.Worker.Count)

	var apiServer *http.Server
	if !serveNoAPI {
		srv := api.NewServer(st, q, cfg.API.ClaimExtractorURL)
		apiServer = &http.Server{Addr: cfg.API.Addr, Handler: srv.Router()}
		go func() {
			log.Printf("api: listening on %s", cfg.API.Addr)
			if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("api: %v", err)
			}
		}()
	}

	log.Printf("serve: %d worker(s) running", cfg.Worker.Count)
	workers.Run(ctx)

	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = apiServer.Shutdown(shutdownCtx)
	}
	return nil
}

// buildQueue selects the Redis queue when configured, the in-memory queue
// otherwise
func buildQueue(cfg model.QueueConfig) (queue.Queue, error) {
	if cfg.RedisURL != "" {
		return queue.NewRedisQueue(cfg)
	}
	log.Printf("queue: no redis_url configured, using in-memory queue (jobs do not survive restarts)")
	return queue.NewMemoryQueue(queue.PolicyFromConfig(cfg)), nil
}

// buildRunner wires the pipeline collaborators from configuration
func buildRunner(ctx context.Context, cfg *model.Config, st store.ClaimStore) (*worker.Runner, error) {
	provider, err := oracle.NewProvider(cfg.Oracle)
	if err != nil {
		return nil, fmt.Errorf("build oracle provider: %w", err)
	}
	if provider != nil && verbose && !provider.Available(ctx) {
		fmt.Printf("Warning: oracle provider %q not reachable; pipeline will rely on the local heuristic\n", provider.Name())
	}
	adapter := oracle.NewAdapter(provider, cfg.Oracle)

	var prober worker.Prober
	if cfg.Probe.Enabled {
		prober = validate.NewProber(cfg.Probe, cfg.Gather.UserAgent)
	}

	var notifier worker.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.New(cfg.Notify)
	}

	return worker.NewRunner(
		st,
		gather.New(cfg.Gather),
		prober,
		adapter,
		explain.New(adapter),
		notifier,
		cfg.Worker.AutoPublishConfidence,
	), nil
}

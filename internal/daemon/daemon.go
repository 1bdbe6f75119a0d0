package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attest-network/attest/internal/api"
	"github.com/attest-network/attest/internal/app/commitment"
	"github.com/attest-network/attest/internal/app/fallback"
	"github.com/attest-network/attest/internal/app/failure"
	"github.com/attest-network/attest/internal/app/protocol"
	"github.com/attest-network/attest/internal/app/review"
	"github.com/attest-network/attest/internal/health"
	"github.com/attest-network/attest/internal/infra/sqlite"
)

// Daemon is the core attest runtime. It wires together all services.
type Daemon struct {
	Config      Config
	DB          *sqlite.DB
	Commitments *commitment.Manager
	Tracker     *failure.Tracker
	Engine      *fallback.Engine
	Queue       *review.Queue
	Coordinator *protocol.Coordinator
	Server      *api.Server
	Hub         *api.EventHub
	Health      *health.Checker
	cancel      context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dataDir := cfg.Node.DataDir
	if dataDir == "" {
		dataDir = attestHome()
	}
	db, err := sqlite.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	p := cfg.Protocol

	cm := commitment.NewManager(commitment.Config{
		CommitmentWindow: time.Duration(p.CommitmentWindowSeconds) * time.Second,
		SubmissionWindow: time.Duration(p.SubmissionWindowSeconds) * time.Second,
	})
	tr := failure.NewTracker(failure.Config{
		MaxConsecutiveFailures: p.MaxConsecutiveFailures,
		SuspensionDuration:     time.Duration(p.SuspensionDurationMs) * time.Millisecond,
	})
	en := fallback.NewEngine(fallback.Config{
		MaxProofRetries:             p.MaxProofRetries,
		RetryDelay:                  time.Duration(p.RetryDelayMs) * time.Millisecond,
		EnableCommitmentFallback:    p.EnableCommitmentFallback,
		CommitmentPaymentMultiplier: p.CommitmentPaymentMultiplier,
		NetworkMaxRetries:           p.NetworkMaxRetries,
		NetworkBackoffCap:           time.Duration(p.NetworkBackoffCapMs) * time.Millisecond,
	}, tr)
	q := review.NewQueue(tr)
	coord := protocol.NewCoordinator(cm, tr, en, q)

	// Write-through persistence
	cm.SetJournal(db)
	tr.SetJournal(db)
	q.SetJournal(db)

	// Restore journaled state
	if cs, err := db.LoadCommitments(); err != nil {
		log.Printf("[daemon] WARNING: restore commitments: %v", err)
	} else {
		cm.Load(cs)
	}
	records, err := db.LoadFailureRecords()
	if err != nil {
		log.Printf("[daemon] WARNING: restore failure records: %v", err)
	}
	stats, err := db.LoadAgentStats()
	if err != nil {
		log.Printf("[daemon] WARNING: restore agent stats: %v", err)
	}
	tr.Load(records, stats)
	if items, err := db.LoadReviewItems(); err != nil {
		log.Printf("[daemon] WARNING: restore review items: %v", err)
	} else {
		q.Load(items)
	}

	// Event fan-out to SSE clients
	hub := api.NewEventHub()
	cm.SetEventSink(hub)
	tr.SetEventSink(hub)
	coord.SetEventSink(hub)

	checker := health.NewChecker(db, dataDir, q, 100)

	srv := api.NewServer(coord, cm, tr, q)
	srv.SetEventHub(hub)
	srv.SetHealthChecker(checker)
	if cfg.API.Metrics {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:      cfg,
		DB:          db,
		Commitments: cm,
		Tracker:     tr,
		Engine:      en,
		Queue:       q,
		Coordinator: coord,
		Server:      srv,
		Hub:         hub,
		Health:      checker,
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Periodic commitment cleanup
	interval := time.Duration(d.Config.Protocol.CleanupIntervalMinutes) * time.Minute
	maxAge := time.Duration(d.Config.Protocol.CommitmentMaxAgeHours) * time.Hour
	if interval > 0 && maxAge > 0 {
		go d.Coordinator.RunCleanup(ctx, interval, maxAge)
	}

	// Health checker (always runs)
	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // Long for SSE streaming
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	fmt.Printf("attest serving on http://%s\n", addr)
	if d.Config.API.Metrics {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

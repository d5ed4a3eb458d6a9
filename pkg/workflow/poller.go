package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/journeyhq/journey/pkg/persistence"
)

// DefaultPollInterval is how often the poller scans for due executions
// when no interval is configured.
const DefaultPollInterval = time.Minute

// Poller periodically scans the execution store for suspended executions
// whose resume time has passed and re-enters the runner for each. Any
// number of pollers may run concurrently against the same store: each due
// row is claimed with a conditional update before it is resumed, so only
// one poller executes a given step.
type Poller struct {
	persistence persistence.Persistence
	runner      *Runner
	logger      *slog.Logger
	interval    time.Duration

	ticker  *time.Ticker
	done    chan struct{}
	started bool
	mu      sync.Mutex
}

// NewPoller creates a due-work poller.
func NewPoller(p persistence.Persistence, runner *Runner, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Poller{
		persistence: p,
		runner:      runner,
		interval:    interval,
		logger:      logger.With("module", "due_work_poller"),
	}
}

// Start begins the poll loop in a background goroutine.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}

	p.logger.Info("Starting due-work poller", "interval", p.interval)

	p.ticker = time.NewTicker(p.interval)
	p.done = make(chan struct{})
	p.started = true

	go p.poll(ctx)

	return nil
}

// Stop shuts the poll loop down.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return nil
	}

	p.logger.Info("Stopping due-work poller")

	if p.ticker != nil {
		p.ticker.Stop()
	}

	// Close rather than send: a send is dropped when the poll goroutine is
	// mid-pass, and with the ticker already stopped it would then block on
	// the next select forever.
	close(p.done)

	p.started = false

	return nil
}

func (p *Poller) poll(ctx context.Context) {
	for {
		select {
		case <-p.done:
			return
		case <-ctx.Done():
			return
		case <-p.ticker.C:
			err := p.ProcessDue(ctx)
			if err != nil {
				p.logger.Error("Due-work pass failed", "error", err)
			}
		}
	}
}

// ProcessDue runs one poll pass: select all due executions, claim each,
// resume the ones we won. Exposed for the tick loop and for tests.
func (p *Poller) ProcessDue(ctx context.Context) error {
	now := time.Now().UTC()

	due, err := p.persistence.DueExecutions(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to query due executions: %w", err)
	}

	if len(due) > 0 {
		p.logger.Info("Processing due executions", "count", len(due))
	}

	for _, execution := range due {
		claimed, err := p.persistence.ClaimExecution(ctx, execution.ID, now)
		if err != nil {
			p.logger.Error("Failed to claim due execution",
				"execution_id", execution.ID,
				"error", err)

			continue
		}

		if claimed == nil {
			// Another poller won the row, or the execution moved on.
			continue
		}

		p.logger.Info("Resuming due execution",
			"execution_id", claimed.ID,
			"node_id", claimed.CurrentNodeID)

		err = p.runner.Resume(ctx, claimed.ID)
		if err != nil {
			p.logger.Error("Failed to resume execution",
				"execution_id", claimed.ID,
				"error", err)
		}
	}

	return nil
}

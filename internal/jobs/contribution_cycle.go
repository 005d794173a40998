package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/forgo/tontine/api/internal/service"
)

// ContributionCycleProcessor periodically materializes contributions
// for upcoming schedule cycles across all active groups. Generation is
// idempotent, so overlapping runs and restarts are harmless.
type ContributionCycleProcessor struct {
	generator *service.GeneratorService
	interval  time.Duration
	lookahead time.Duration
	stopCh    chan struct{}
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewContributionCycleProcessor creates a new contribution cycle processor job
func NewContributionCycleProcessor(generator *service.GeneratorService, interval, lookahead time.Duration) *ContributionCycleProcessor {
	if interval == 0 {
		interval = 1 * time.Hour
	}
	if lookahead == 0 {
		lookahead = 7 * 24 * time.Hour
	}
	return &ContributionCycleProcessor{
		generator: generator,
		interval:  interval,
		lookahead: lookahead,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the contribution cycle processor job
func (p *ContributionCycleProcessor) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run()
	log.Printf("Contribution cycle processor started (interval: %v, lookahead: %v)", p.interval, p.lookahead)
}

// Stop gracefully stops the contribution cycle processor job
func (p *ContributionCycleProcessor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopCh)
	p.wg.Wait()
	log.Println("Contribution cycle processor stopped")
}

// run is the main loop
func (p *ContributionCycleProcessor) run() {
	defer p.wg.Done()

	// Run immediately on start (but with a short delay to let services initialize)
	time.Sleep(5 * time.Second)
	p.sweep()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.sweep()
		case <-p.stopCh:
			return
		}
	}
}

// sweep generates contributions for cycles starting inside the lookahead window
func (p *ContributionCycleProcessor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	created, err := p.generator.GenerateDue(ctx, time.Now().UTC(), p.lookahead)
	if err != nil {
		log.Printf("Error generating scheduled contributions: %v", err)
		return
	}
	if created > 0 {
		log.Printf("Contribution cycle sweep created %d contributions", created)
	}
}

// RunOnce runs the generation sweep once (for testing or manual trigger)
func (p *ContributionCycleProcessor) RunOnce(ctx context.Context) error {
	_, err := p.generator.GenerateDue(ctx, time.Now().UTC(), p.lookahead)
	return err
}

// IsRunning returns whether the processor is running
func (p *ContributionCycleProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

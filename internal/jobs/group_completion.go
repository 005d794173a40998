package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/forgo/tontine/api/internal/service"
)

// GroupCompletionProcessor transitions active groups whose schedule end
// date has passed to COMPLETED. Races with concurrent roster updates
// are skipped and retried on the next sweep.
type GroupCompletionProcessor struct {
	groupService *service.GroupService
	interval     time.Duration
	stopCh       chan struct{}
	wg           sync.WaitGroup
	running      bool
	mu           sync.Mutex
}

// NewGroupCompletionProcessor creates a new group completion processor job
func NewGroupCompletionProcessor(groupService *service.GroupService, interval time.Duration) *GroupCompletionProcessor {
	if interval == 0 {
		interval = 1 * time.Hour
	}
	return &GroupCompletionProcessor{
		groupService: groupService,
		interval:     interval,
		stopCh:       make(chan struct{}),
	}
}

// Start begins the group completion processor job
func (p *GroupCompletionProcessor) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run()
	log.Printf("Group completion processor started (interval: %v)", p.interval)
}

// Stop gracefully stops the group completion processor job
func (p *GroupCompletionProcessor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopCh)
	p.wg.Wait()
	log.Println("Group completion processor stopped")
}

// run is the main loop
func (p *GroupCompletionProcessor) run() {
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

// sweep completes all active groups past their schedule end date
func (p *GroupCompletionProcessor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	completed, err := p.groupService.CompleteExpired(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("Error completing expired groups: %v", err)
		return
	}
	if completed > 0 {
		log.Printf("Group completion sweep completed %d groups", completed)
	}
}

// RunOnce runs the completion sweep once (for testing or manual trigger)
func (p *GroupCompletionProcessor) RunOnce(ctx context.Context) error {
	_, err := p.groupService.CompleteExpired(ctx, time.Now().UTC())
	return err
}

// IsRunning returns whether the processor is running
func (p *GroupCompletionProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

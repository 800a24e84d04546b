package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// SweepConfig holds configuration for the sweep scheduler.
type SweepConfig struct {
	// Interval is how often the sweep runs. Default: 1 minute.
	Interval time.Duration
}

// SweepScheduler runs the reservation expiry sweep on a fixed interval. The
// sweep itself is idempotent and safe alongside concurrent creates and
// releases, so an external scheduler hitting the sweep endpoint may overlap
// with this one without harm.
type SweepScheduler struct {
	reservations *ReservationService
	config       SweepConfig
	ticker       *time.Ticker
	stopCh       chan struct{}
	stopOnce     sync.Once
	isRunning    bool
	mu           sync.Mutex
}

// NewSweepScheduler creates a new sweep scheduler.
func NewSweepScheduler(reservations *ReservationService, config SweepConfig) *SweepScheduler {
	if config.Interval == 0 {
		config.Interval = time.Minute
	}
	return &SweepScheduler{
		reservations: reservations,
		config:       config,
		stopCh:       make(chan struct{}),
	}
}

// Start begins the periodic sweep.
func (s *SweepScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	log.Printf("[SweepScheduler] Started - Interval: %v", s.config.Interval)
	go s.run()
}

func (s *SweepScheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runSweep()
		case <-s.stopCh:
			log.Printf("[SweepScheduler] Stopped")
			return
		}
	}
}

func (s *SweepScheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.reservations.Sweep(ctx); err != nil {
		log.Printf("[SweepScheduler] Error during sweep: %v", err)
	}
}

// Stop stops the sweep scheduler.
func (s *SweepScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}

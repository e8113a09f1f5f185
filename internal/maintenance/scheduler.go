package maintenance

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// IndexPurger removes email-index rows that no longer have a backing
// account row. Satisfied by the account repository.
type IndexPurger interface {
	PurgeOrphanedIndexEntries(ctx context.Context) (int64, error)
}

type Scheduler struct {
	purger IndexPurger
	cron   *cron.Cron
}

func NewScheduler(purger IndexPurger) *Scheduler {
	return &Scheduler{purger: purger}
}

// Start initializes cron tasks
func (s *Scheduler) Start() {
	c := cron.New(cron.WithSeconds())

	//  (12:00 AM)
	_, err := c.AddFunc("0 0 0 * * *", func() {
		s.runNightlyJobs()
	})

	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return
	}

	log.Println("Cron scheduler started (running nightly at 12:00AM)")
	c.Start()
	s.cron = c
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) runNightlyJobs() {
	log.Println("Nightly maintenance started (email index purge)...")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	n, err := s.purger.PurgeOrphanedIndexEntries(ctx)
	if err != nil {
		log.Printf("Email index purge failed: %v", err)
		return
	}

	log.Printf("Nightly maintenance completed: purged %d orphaned index rows at: %s", n, time.Now().Format(time.RFC1123))
}

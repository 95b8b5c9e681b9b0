package server

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// SessionCleaner evicts expired and overflowing sessions, returning how
// many were removed.
type SessionCleaner interface {
	CleanupSessions() int
}

// StartCleanup runs cleaner on schedule (standard cron syntax or a
// descriptor such as "@every 1h") until ctx is done. An empty schedule
// disables the job and returns a nil stop function.
func StartCleanup(ctx context.Context, schedule string, cleaner SessionCleaner) (stop func(), err error) {
	if schedule == "" {
		log.Println("server: scheduled session cleanup disabled")
		return nil, nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if n := cleaner.CleanupSessions(); n > 0 {
			log.Printf("server: session cleanup removed %d sessions", n)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	c.Start()
	log.Printf("server: session cleanup scheduled (%s)", schedule)

	done := make(chan struct{})
	var once sync.Once
	stop = func() {
		once.Do(func() {
			close(done)
			<-c.Stop().Done()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()
	return stop, nil
}

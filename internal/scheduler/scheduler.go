package scheduler

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// OfferExpirer expires PENDING leases created before cutoff
type OfferExpirer interface {
	ExpireStaleOffers(ctx context.Context, cutoff time.Time) (int, error)
}

// Scheduler periodically expires rent proposals that were never paid
type Scheduler struct {
	expirer  OfferExpirer
	logger   *logrus.Logger
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	stopChan chan struct{}
	wg       sync.WaitGroup
	jobMutex sync.Mutex // Ensures sequential sweeps
}

// NewScheduler creates a new scheduler
func NewScheduler(expirer OfferExpirer, ttl, interval time.Duration, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Scheduler{
		expirer:  expirer,
		logger:   logger,
		ttl:      ttl,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		stopChan: make(chan struct{}),
	}
}

// Start begins the scheduled sweeps. The first sweep runs immediately.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.runScheduler()
}

func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	s.RunOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce expires every offer older than the configured TTL
func (s *Scheduler) RunOnce() int {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	cutoff := s.now().Add(-s.ttl)
	expired, err := s.expirer.ExpireStaleOffers(context.Background(), cutoff)
	if err != nil {
		s.logger.WithError(err).WithField("cutoff", cutoff).Error("Offer sweep failed")
		return 0
	}

	s.logger.WithFields(logrus.Fields{
		"cutoff":  cutoff,
		"expired": expired,
	}).Debug("Offer sweep completed")
	return expired
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

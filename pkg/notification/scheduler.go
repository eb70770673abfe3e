package notification

import (
	"context"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/textweave/notifier/pkg/common"
	"github.com/textweave/notifier/pkg/model"
)

// DigestScheduler is an optional in-process ticker that drives the digest
// runner. Deployments with an external scheduler leave every interval at
// zero and call the run endpoint instead; the engine never self-schedules
// unless asked to.
type DigestScheduler struct {
	runner    *DigestRunner
	intervals map[model.Frequency]time.Duration
	tickers   []*time.Ticker
	done      chan struct{}
}

var _ common.Component = &DigestScheduler{}

func NewDigestScheduler(runner *DigestRunner, daily time.Duration, weekly time.Duration, monthly time.Duration) *DigestScheduler {
	return &DigestScheduler{
		runner: runner,
		intervals: map[model.Frequency]time.Duration{
			model.FrequencyDaily:   daily,
			model.FrequencyWeekly:  weekly,
			model.FrequencyMonthly: monthly,
		},
		done: make(chan struct{}),
	}
}

func (s *DigestScheduler) Start() error {
	for _, frequency := range model.DigestFrequencies {
		interval := s.intervals[frequency]
		if interval <= 0 {
			continue
		}
		ticker := time.NewTicker(interval)
		s.tickers = append(s.tickers, ticker)
		go s.run(frequency, ticker)
		log.Info("digest scheduler started",
			zap.String("frequency", frequency.String()),
			zap.Duration("interval", interval))
	}
	return nil
}

func (s *DigestScheduler) run(frequency model.Frequency, ticker *time.Ticker) {
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if _, err := s.runner.Run(context.Background(), frequency); err != nil {
				log.Error("scheduled digest run failed",
					zap.String("frequency", frequency.String()),
					zap.Error(err))
			}
		}
	}
}

func (s *DigestScheduler) Stop() error {
	close(s.done)
	for _, ticker := range s.tickers {
		ticker.Stop()
	}
	return nil
}

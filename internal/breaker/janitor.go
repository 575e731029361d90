package breaker

import (
	robfigcron "github.com/robfig/cron/v3"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/llm-router/common/logger"
)

// Janitor periodically sweeps expired circuit entries out of a Store so
// a long-running gateway's breaker map doesn't grow with every
// candidate key it has ever opened a circuit for. Grounded on the
// robfig/cron/v3 scheduling idiom used for background job dispatch
// elsewhere in the pack.
type Janitor struct {
	cron *robfigcron.Cron
}

// StartJanitor schedules store.Sweep on the given standard 5-field cron
// spec (e.g. "*/1 * * * *" for once a minute) and starts running it
// immediately. Call Stop to halt it.
func StartJanitor(store *Store, spec string) (*Janitor, error) {
	c := robfigcron.New()
	_, err := c.AddFunc(spec, func() {
		if removed := store.Sweep(); removed > 0 {
			logger.Logger.Debug("breaker janitor swept expired entries", zap.Int("removed", removed))
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "schedule breaker janitor %q", spec)
	}
	c.Start()
	return &Janitor{cron: c}, nil
}

// Stop halts the janitor, blocking until its current run (if any) finishes.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

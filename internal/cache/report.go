package cache

import (
	"github.com/robfig/cron/v3"

	appLog "schoolcal/internal/log"
)

// StartReporter logs the store size on the given cron schedule
// (e.g. "*/5 * * * *"). It only reads the store. The caller stops the
// returned scheduler.
func StartReporter(schedule string, s *Store) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		appLog.Info("cache stats", "entries", s.Len(), "ttl", s.TTL().String())
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

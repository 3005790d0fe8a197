package dashboard

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule refreshes once a minute.
const DefaultSchedule = "@every 1m"

// NewSchedule returns a stopped cron that requests a refresh of r on spec.
// spec is a five-field cron expression or a descriptor such as "@every 30s".
func NewSchedule(spec string, r *Refresher) (*cron.Cron, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	logger := cron.PrintfLogger(zap.NewStdLog(r.logger))
	c := cron.New(cron.WithParser(parser), cron.WithLogger(logger), cron.WithChain(cron.Recover(logger)))
	if _, err := c.AddFunc(spec, r.Request); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return c, nil
}

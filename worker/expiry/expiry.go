package expiry

import (
	"context"
	"time"

	"linkport/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Canceller a port able to cancel loans stuck past their lock timeout
type Canceller interface {
	Chain() uint64
	CancelExpired(ctx context.Context, limit int) (int, error)
}

const limit = 100

// Expiry cron job requesting cancellation of expired loans
type Expiry struct {
	worker.BaseJob
	ports []Canceller
}

func New(location, spec string, ports ...Canceller) (*Expiry, error) {
	job := Expiry{ports: ports}

	l, err := time.LoadLocation(location)
	if err != nil {
		return nil, err
	}

	if spec == "" {
		spec = "@every 1m"
	}

	job.Cron = cron.New(cron.WithLocation(l))
	if _, err := job.Cron.AddFunc(spec, job.Run); err != nil {
		return nil, err
	}

	job.OnWork = func() error {
		return job.onWork(context.Background())
	}

	return &job, nil
}

func (job *Expiry) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "expiry")

	for _, port := range job.ports {
		n, err := port.CancelExpired(ctx, limit)
		if err != nil {
			log.WithError(err).WithField("chain", port.Chain()).Errorln("port.CancelExpired")
			continue
		}

		if n > 0 {
			log.WithField("chain", port.Chain()).Infof("cancelling %d expired loans", n)
		}
	}

	return nil
}

package relayer

import (
	"context"
	"errors"
	"time"

	"linkport/worker"

	"github.com/fox-one/pkg/logger"
	"golang.org/x/sync/errgroup"
)

type (
	// Outbox a port whose pending messages can be handed to the transport again
	Outbox interface {
		Chain() uint64
		Flush(ctx context.Context) (int, error)
	}

	Deliverer interface {
		DeliverAll(ctx context.Context) (int, error)
	}
)

// Relayer flushes port outboxes and delivers the transport queue
type Relayer struct {
	worker.TickWorker
	transport Deliverer
	ports     []Outbox
}

func New(interval time.Duration, transport Deliverer, ports ...Outbox) *Relayer {
	return &Relayer{
		TickWorker: worker.TickWorker{
			Delay:    interval,
			ErrDelay: 5 * interval,
		},
		transport: transport,
		ports:     ports,
	}
}

func (w *Relayer) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "relayer")
	ctx = logger.WithContext(ctx, log)

	return w.StartTick(ctx, w.run)
}

func (w *Relayer) run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	g, gctx := errgroup.WithContext(ctx)
	for _, port := range w.ports {
		port := port
		g.Go(func() error {
			n, err := port.Flush(gctx)
			if err != nil {
				log.WithError(err).WithField("chain", port.Chain()).Errorln("port.Flush")
				return err
			}

			if n > 0 {
				log.WithField("chain", port.Chain()).Infof("flushed %d messages", n)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	n, err := w.transport.DeliverAll(ctx)
	if err != nil {
		log.WithError(err).Infoln("transport.DeliverAll")
		return err
	}

	if n == 0 {
		return errors.New("relay: EOF")
	}

	log.Debugf("delivered %d messages", n)
	return nil
}

package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

type Worker interface {
	Run(ctx context.Context) error
}

// IJob cron driven job
type IJob interface {
	Start() error
	Run()
	Stop() error
}

type OnWork func() error

type BaseJob struct {
	Cron      *cron.Cron
	IsRunning bool
	OnWork    OnWork
}

func (job *BaseJob) Start() error {
	job.Cron.Start()
	return nil
}

func (job *BaseJob) Stop() error {
	<-job.Cron.Stop().Done()
	return nil
}

func (job *BaseJob) Run() {
	if job.IsRunning {
		return
	}

	job.IsRunning = true

	job.OnWork()

	job.IsRunning = false
}

// Run start job and stop it once ctx is done
func Run(ctx context.Context, job IJob) error {
	if err := job.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	job.Stop()
	return ctx.Err()
}

// TickWorker loop with a short delay after a successful round and a longer one after an error
type TickWorker struct {
	Delay    time.Duration
	ErrDelay time.Duration
}

func (w *TickWorker) StartTick(ctx context.Context, onTick func(ctx context.Context) error) error {
	delay, errDelay := w.Delay, w.ErrDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	if errDelay <= 0 {
		errDelay = 500 * time.Millisecond
	}

	dur := time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dur):
			if err := onTick(ctx); err == nil {
				dur = delay
			} else {
				dur = errDelay
			}
		}
	}
}

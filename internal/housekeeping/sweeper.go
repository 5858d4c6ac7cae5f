// Package housekeeping corre el barrido periódico de challenges: expira
// pending vencidos y purga terminales fuera de la ventana de retención.
// La expiración también es lazy en cada acceso; esto solo mantiene el store limpio.
package housekeeping

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dropDatabas3/simguard/internal/observability/logger"
)

const (
	DefaultSpec    = "@every 1m"
	DefaultTimeout = 30 * time.Second
)

// Sweeper es implementado por challenge.Manager.
type Sweeper interface {
	Sweep(ctx context.Context) (expired, purged int, err error)
}

type Config struct {
	Spec    string
	Timeout time.Duration
}

type Scheduler struct {
	sweeper Sweeper
	timeout time.Duration
	cron    *cron.Cron
	log     *zap.Logger

	mu      sync.Mutex
	lastRun time.Time
}

// New valida el spec y registra el job; no arranca hasta Start.
func New(s Sweeper, cfg Config) (*Scheduler, error) {
	if cfg.Spec == "" {
		cfg.Spec = DefaultSpec
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	log := logger.L().Named("housekeeping")
	cl := cronLogger{log.Sugar()}
	sc := &Scheduler{
		sweeper: s,
		timeout: cfg.Timeout,
		log:     log,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	if _, err := sc.cron.AddFunc(cfg.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sc.timeout)
		defer cancel()
		sc.RunOnce(ctx)
	}); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *Scheduler) Start() {
	s.log.Info("housekeeping scheduler started")
	s.cron.Start()
}

// Stop espera al job en curso o a que ctx venza.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce ejecuta un barrido inmediato.
func (s *Scheduler) RunOnce(ctx context.Context) {
	start := time.Now()
	expired, purged, err := s.sweeper.Sweep(ctx)
	s.mu.Lock()
	s.lastRun = start
	s.mu.Unlock()
	if err != nil {
		s.log.Error("challenge sweep failed", logger.Err(err))
		return
	}
	if expired > 0 || purged > 0 {
		s.log.Info("challenge sweep",
			logger.Int("expired", expired),
			logger.Int("purged", purged),
			logger.Duration(time.Since(start)))
	}
}

// LastRun retorna el inicio del último barrido (zero si nunca corrió).
func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// cronLogger adapta zap al cron.Logger.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.s.Errorw(msg, append(kv, "error", err)...)
}

// Package server arma el grafo de dependencias del servicio a partir de la config.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/simguard/internal/audit"
	"github.com/dropDatabas3/simguard/internal/challenge"
	"github.com/dropDatabas3/simguard/internal/config"
	"github.com/dropDatabas3/simguard/internal/domain/repository"
	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/gate"
	"github.com/dropDatabas3/simguard/internal/housekeeping"
	"github.com/dropDatabas3/simguard/internal/http/v2/controllers"
	mw "github.com/dropDatabas3/simguard/internal/http/v2/middlewares"
	"github.com/dropDatabas3/simguard/internal/http/v2/router"
	"github.com/dropDatabas3/simguard/internal/http/v2/services"
	"github.com/dropDatabas3/simguard/internal/http/v2/services/health"
	"github.com/dropDatabas3/simguard/internal/http/v2/services/security"
	jwtx "github.com/dropDatabas3/simguard/internal/jwt"
	"github.com/dropDatabas3/simguard/internal/members"
	"github.com/dropDatabas3/simguard/internal/metrics"
	"github.com/dropDatabas3/simguard/internal/notify"
	"github.com/dropDatabas3/simguard/internal/observability/logger"
	"github.com/dropDatabas3/simguard/internal/rate"
	"github.com/dropDatabas3/simguard/internal/security/answers"
	"github.com/dropDatabas3/simguard/internal/security/secretbox"
	"github.com/dropDatabas3/simguard/internal/simswap"
	"github.com/dropDatabas3/simguard/internal/store/memory"
	"github.com/dropDatabas3/simguard/internal/store/pg"
	redisstore "github.com/dropDatabas3/simguard/internal/store/redis"
	migrations "github.com/dropDatabas3/simguard/migrations/postgres"
)

// App es el resultado del wiring: handler HTTP, sweep programado y cleanup.
type App struct {
	Handler   http.Handler
	Scheduler *housekeeping.Scheduler
	Gate      *gate.Gate
	Oracle    *simswap.Oracle

	closers []func() error
}

// Close libera pools y clientes en orden inverso de creación.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build instancia todas las dependencias. Si algo falla, lo ya abierto se cierra.
func Build(ctx context.Context, cfg *config.Config) (app *App, err error) {
	log := logger.From(ctx).With(logger.Component("wiring"))
	app = &App{}
	defer func() {
		if err != nil {
			_ = app.Close()
			app = nil
		}
	}()
	now := time.Now

	// 1. Conexiones
	var pool *pgxpool.Pool
	if cfg.Storage.Driver == "postgres" || cfg.ChallengeStore() == "postgres" {
		pool, err = pg.Open(ctx, cfg.Storage.DSN, pg.PoolConfig{
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return app, fmt.Errorf("postgres: %w", err)
		}
		app.closers = append(app.closers, func() error { pool.Close(); return nil })
		if cfg.Storage.Postgres.AutoMigrate {
			n, err := pg.NewMigrator(pool, migrations.PostgresFS, ".").Up(ctx, 0)
			if err != nil {
				return app, fmt.Errorf("migrations: %w", err)
			}
			log.Info("migrations applied", logger.Count(n))
		}
	}

	var redis *rdb.Client
	if cfg.Cache.Kind == "redis" || cfg.ChallengeStore() == "redis" {
		redis, err = redisstore.Open(ctx, redisstore.Config{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		if err != nil {
			return app, fmt.Errorf("redis: %w", err)
		}
		app.closers = append(app.closers, redis.Close)
	}

	// 2. Repositorios
	var (
		challengeRepo repository.ChallengeRepository
		auditRepo     interface {
			repository.AuditRepository
			repository.AuditReader
		}
		memberRepo repository.MemberRepository
	)
	switch cfg.ChallengeStore() {
	case "redis":
		challengeRepo = redisstore.NewChallengeStore(redis, cfg.Cache.Redis.Prefix, cfg.Challenge.Retention)
	case "postgres":
		challengeRepo = pg.NewChallengeStore(pool)
	default:
		challengeRepo = memory.NewChallengeStore(cfg.Challenge.Retention)
	}
	if pool != nil && cfg.Storage.Driver == "postgres" {
		auditRepo = pg.NewAuditLog(pool)
		var opts []pg.MemberOption
		if cfg.Storage.ContactKey != "" {
			box, err := secretbox.FromString(cfg.Storage.ContactKey)
			if err != nil {
				return app, fmt.Errorf("contact key: %w", err)
			}
			opts = append(opts, pg.WithContactCipher(box))
		}
		memberRepo = pg.NewMemberStore(pool, opts...)
	} else {
		auditRepo = memory.NewAuditLog()
		memberRepo = memory.NewMemberStore()
	}

	// 3. Miembros (contactos + preguntas de seguridad)
	directory := members.NewDirectory(memberRepo, answers.Default)
	if len(cfg.Members.Seed) > 0 {
		if err := members.Seed(ctx, directory, cfg.Members.Seed); err != nil {
			return app, fmt.Errorf("members seed: %w", err)
		}
		log.Info("members seeded", logger.Count(len(cfg.Members.Seed)))
	}

	// 4. Oracle
	provider, err := buildProvider(cfg, now())
	if err != nil {
		return app, err
	}
	oracle := simswap.NewOracle(provider, simswap.Config{Timeout: cfg.Oracle.Timeout, BatchSize: cfg.Oracle.BatchSize})
	app.Oracle = oracle

	// 5. Challenges, notificaciones, links
	manager := challenge.NewManager(challengeRepo, directory, challenge.Config{
		TTL:         cfg.Challenge.TTL,
		MaxAttempts: cfg.Challenge.MaxAttempts,
		Retention:   cfg.Challenge.Retention,
	}, challenge.WithClock(now))

	notifier, err := buildNotifier(cfg, directory, provider)
	if err != nil {
		return app, err
	}

	gateOpts := []gate.Option{gate.WithNotifier(notifier)}
	var links security.LinkParser
	if cfg.Verification.SigningKey != "" {
		signer, err := jwtx.NewLinkSigner([]byte(cfg.Verification.SigningKey), cfg.Verification.Issuer, cfg.Verification.LinkBaseURL)
		if err != nil {
			return app, fmt.Errorf("verification link signer: %w", err)
		}
		gateOpts = append(gateOpts, gate.WithLinks(signer))
		links = signer
	}

	// 6. Audit (primario + espejo en el log estructurado) y gate
	auditLog := audit.New(auditRepo, audit.NewZapSink(logger.Named("audit")))
	g := gate.New(gate.Config{
		FailClosedAboveAmount: cfg.Gate.FailClosedAboveAmount,
		DefaultMethod:         types.VerificationMethod(cfg.Gate.DefaultMethod),
	}, oracle, manager, auditLog, gateOpts...)
	app.Gate = g

	// 7. Housekeeping
	app.Scheduler, err = housekeeping.New(manager, housekeeping.Config{Spec: cfg.Challenge.SweepSpec})
	if err != nil {
		return app, err
	}

	// 8. Metrics
	var metricsHandler http.Handler
	if cfg.Telemetry.Metrics {
		metricsHandler, err = metrics.Register(metrics.Config{Pool: func() *pgxpool.Pool { return pool }})
		if err != nil {
			return app, fmt.Errorf("metrics: %w", err)
		}
	}

	// 9. HTTP
	svcs := services.New(services.Deps{
		Oracle:      oracle,
		Gate:        g,
		Attempts:    manager,
		Links:       links,
		AuditReader: auditRepo,
		Health: health.Deps{
			Version:  cfg.App.Version,
			Provider: oracle.ProviderName(),
			Probes:   probes(pool, redis),
		},
		Now: now,
	})
	app.Handler = router.New(router.Deps{
		Controllers:  controllers.New(svcs),
		Metrics:      metricsHandler,
		TrustProxy:   cfg.Server.TrustProxy,
		CORSOrigins:  cfg.Server.CORSAllowedOrigins,
		CheckLimit:   rateLimit(cfg, redis, "check", cfg.Rate.Check),
		VerifyLimit:  rateLimit(cfg, redis, "verify", cfg.Rate.Verify),
		PaymentLimit: rateLimit(cfg, redis, "payment", cfg.Rate.Payment),
	})

	log.Info("service wired",
		logger.Provider(oracle.ProviderName()),
		logger.String("challenge_store", cfg.ChallengeStore()),
		logger.String("storage", cfg.Storage.Driver),
	)
	return app, nil
}

func buildProvider(cfg *config.Config, now time.Time) (simswap.Provider, error) {
	switch cfg.Oracle.Provider {
	case "http":
		return simswap.NewHTTPProvider(simswap.HTTPProviderConfig{
			BaseURL:   cfg.Oracle.HTTP.BaseURL,
			APIKey:    cfg.Oracle.HTTP.APIKey,
			Username:  cfg.Oracle.HTTP.Username,
			SenderID:  cfg.Oracle.HTTP.SenderID,
			BatchSize: cfg.Oracle.BatchSize,
		})
	case "twilio":
		return simswap.NewTwilioProvider(simswap.TwilioConfig{
			AccountSID: cfg.Oracle.Twilio.AccountSID,
			AuthToken:  cfg.Oracle.Twilio.AuthToken,
			FromPhone:  cfg.Oracle.Twilio.FromPhone,
		})
	case "static":
		return simswap.NewStaticProviderFromEntries(cfg.Oracle.Static.Entries, now)
	}
	return nil, fmt.Errorf("unknown oracle provider %q", cfg.Oracle.Provider)
}

// buildNotifier registra un notifier por método que entrega código.
// security_questions no entrega nada.
func buildNotifier(cfg *config.Config, dir *members.Directory, provider simswap.Provider) (*notify.Router, error) {
	r := notify.NewRouter(dir)
	if cfg.Notify.LogOnly {
		return r.
			Handle(types.MethodEmail, notify.NewLogNotifier("email")).
			Handle(types.MethodAlternatePhone, notify.NewLogNotifier("sms")), nil
	}

	if cfg.Notify.Email.Enabled {
		sender := notify.NewSMTPSender(notify.SMTPConfig{
			Host:               cfg.Notify.Email.Host,
			Port:               cfg.Notify.Email.Port,
			Username:           cfg.Notify.Email.Username,
			Password:           cfg.Notify.Email.Password,
			FromEmail:          cfg.Notify.Email.From,
			TLSMode:            cfg.Notify.Email.TLSMode,
			InsecureSkipVerify: cfg.Notify.Email.InsecureSkipVerify,
		})
		email, err := notify.NewEmailNotifier(sender, cfg.Notify.Email.Subject)
		if err != nil {
			return nil, fmt.Errorf("email notifier: %w", err)
		}
		r.Handle(types.MethodEmail, email)
	}
	if cfg.Notify.SMS.Enabled {
		m, ok := provider.(simswap.Messenger)
		if !ok {
			return nil, fmt.Errorf("oracle provider %s cannot send sms", provider.Name())
		}
		r.Handle(types.MethodAlternatePhone, notify.NewSMSNotifier(m, cfg.Notify.SMS.Sender))
	}
	return r, nil
}

func rateLimit(cfg *config.Config, redis *rdb.Client, scope string, l config.Limit) mw.RateLimitConfig {
	if !cfg.Rate.Enabled || l.Limit <= 0 {
		return mw.RateLimitConfig{}
	}
	window := l.Window
	if window <= 0 {
		window = time.Minute
	}
	var limiter rate.Limiter
	if redis != nil {
		limiter = rate.NewRedisLimiter(redis, cfg.Cache.Redis.Prefix+"rl:", l.Limit, window)
	} else {
		limiter = rate.NewMemoryLimiter(l.Limit, window)
	}
	return mw.RateLimitConfig{Limiter: limiter, Limit: l.Limit, Scope: scope}
}

func probes(pool *pgxpool.Pool, redis *rdb.Client) []health.Probe {
	var out []health.Probe
	if pool != nil {
		out = append(out, health.Probe{Name: "postgres", Critical: true, Check: pool.Ping})
	}
	if redis != nil {
		out = append(out, health.Probe{Name: "redis", Critical: true, Check: func(ctx context.Context) error {
			return redis.Ping(ctx).Err()
		}})
	}
	return out
}

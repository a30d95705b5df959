package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/pathforge/internal/auth"
	"github.com/abhisek/pathforge/internal/cascade"
	"github.com/abhisek/pathforge/internal/coach"
	"github.com/abhisek/pathforge/internal/config"
	"github.com/abhisek/pathforge/internal/content"
	"github.com/abhisek/pathforge/internal/curriculum"
	"github.com/abhisek/pathforge/internal/llm"
	"github.com/abhisek/pathforge/internal/logging"
	"github.com/abhisek/pathforge/internal/metrics"
	"github.com/abhisek/pathforge/internal/progression"
	"github.com/abhisek/pathforge/internal/ratelimit"
	"github.com/abhisek/pathforge/internal/store"
	"github.com/abhisek/pathforge/internal/telemetry"
)

// runtime holds everything a command needs. close releases it in
// reverse order of construction.
type runtime struct {
	cfg      config.Config
	log      *zap.Logger
	store    *store.Store
	coach    *coach.Coach
	registry *prometheus.Registry
	userID   string

	closers []func()
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := cmd.Flags().GetString("cascade"); v != "" {
		cfg.CascadeFile = v
	}
	if v, _ := cmd.Flags().GetString("log-mode"); v != "" {
		cfg.Log.Mode = v
	}
	if v, _ := cmd.Flags().GetBool("trace"); v {
		cfg.Trace = true
	}
	return cfg, nil
}

// openStore opens the database without building the generation stack.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	path, err := resolveDBPath(cmd, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// newRuntime builds the full stack and authenticates the acting user.
func newRuntime(cmd *cobra.Command) (_ *runtime, err error) {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			rt.close()
		}
	}()

	rt.log, err = logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	rt.onClose(func() { _ = rt.log.Sync() })

	if cfg.Trace {
		shutdown, err := telemetry.Setup(telemetry.Config{Writer: os.Stderr, PrettyPrint: true})
		if err != nil {
			return nil, err
		}
		rt.onClose(func() { _ = shutdown(context.Background()) })
	}

	path, err := resolveDBPath(cmd, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	rt.store, err = store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	rt.onClose(func() { rt.store.Close() })

	m := metrics.New(rt.registry)

	spec := cascade.DefaultPolicySpec(cfg.LLM)
	if cfg.CascadeFile != "" {
		spec, err = cascade.LoadPolicyFile(cfg.CascadeFile)
		if err != nil {
			return nil, err
		}
	}
	policy, err := cascade.Build(ctx, spec, cfg.LLM, llm.Deps{Events: rt.store.EventRepo(), Logger: rt.log})
	if err != nil {
		return nil, err
	}
	rt.log.Debug("cascade ready", zap.Strings("models", policy.Names()))
	c := cascade.New(policy, cascade.WithLogger(rt.log), cascade.WithMetrics(m))

	verifier, err := auth.NewJWTVerifier(cfg.Auth.Secret, cfg.Auth.Issuer)
	if err != nil {
		return nil, err
	}

	rt.coach, err = coach.New(coach.Deps{
		Verifier: verifier,
		Limiter:  ratelimit.New(rt.limitStore(ctx), ratelimit.WithLogger(rt.log)),
		Limits:   cfg.RateLimit,
		Planner:  curriculum.NewPlanner(c),
		Content:  content.NewService(c, content.NewStoreCache(rt.store.ContentRepo())),
		Engine: progression.NewEngine(
			progression.WithEnricher(progression.NewCascadeEnricher(c)),
			progression.WithLogger(rt.log),
			progression.WithMetrics(m),
		),
		Store:   rt.store,
		Logger:  rt.log,
		Metrics: m,
	})
	if err != nil {
		return nil, err
	}

	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		user, _ := cmd.Flags().GetString("user")
		token, err = verifier.Issue(user, "", cfg.Auth.TokenTTL)
		if err != nil {
			return nil, err
		}
	}
	id, err := rt.coach.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	rt.userID = id.UserID

	if v, _ := cmd.Flags().GetBool("metrics"); v {
		rt.onClose(func() { printMetrics(cmd.ErrOrStderr(), rt.registry) })
	}
	return rt, nil
}

// limitStore selects the shared redis store when configured.
func (rt *runtime) limitStore(ctx context.Context) ratelimit.Store {
	rc := rt.cfg.Redis
	if rc.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
		rt.onClose(func() { _ = rdb.Close() })
		return ratelimit.NewRedisStore(rdb, rc.Prefix)
	}
	ms := ratelimit.NewMemoryStore()
	sweepCtx, cancel := context.WithCancel(ctx)
	rt.onClose(cancel)
	if rt.cfg.RateLimit.Sweep > 0 {
		ms.StartSweeper(sweepCtx, rt.cfg.RateLimit.Sweep)
	}
	return ms
}

func (rt *runtime) onClose(f func()) {
	rt.closers = append(rt.closers, f)
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// describe turns facade errors into messages fit for a terminal.
func describe(err error) error {
	var rl *coach.RateLimitedError
	switch {
	case errors.As(err, &rl):
		return fmt.Errorf("too many %s requests, try again in %s", rl.Operation, rl.RetryAfter.Round(time.Second))
	case errors.Is(err, coach.ErrUnauthorized):
		return fmt.Errorf("not signed in: %w", err)
	}
	return err
}

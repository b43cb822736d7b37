package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/your-org/facelog/internal/config"
	"github.com/your-org/facelog/internal/models"
	"github.com/your-org/facelog/internal/observability"
)

// Store is everything the generator needs from the database.
type Store interface {
	CameraSource
	PersonSource
	InsertFaceLog(ctx context.Context, fl *models.FaceLog) (int64, error)
}

// Publisher fans stored face logs out to live consumers.
type Publisher interface {
	PublishFaceLog(ctx context.Context, fl *models.FaceLog) error
}

type Options struct {
	// Each delay is a uniform whole number of SleepUnit in [0, MaxSleepUnits].
	MaxSleepUnits int
	SleepUnit     time.Duration
	// Iterations of 0 runs until ctx is cancelled.
	Iterations    int
	WriteAttempts int
	RetryInterval time.Duration
}

func OptionsFromConfig(cfg config.GeneratorConfig) Options {
	return Options{
		MaxSleepUnits: cfg.MaxSleepUnits,
		SleepUnit:     cfg.SleepUnit,
		Iterations:    cfg.Iterations,
		WriteAttempts: cfg.WriteAttempts,
		RetryInterval: cfg.RetryInterval,
	}
}

type Generator struct {
	store     Store
	rnd       Rand
	opts      Options
	sleeper   Sleeper
	now       func() time.Time
	publisher Publisher
	logger    *slog.Logger
}

type Option func(*Generator)

func WithSleeper(s Sleeper) Option {
	return func(g *Generator) { g.sleeper = s }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithPublisher enables publishing. A nil publisher is ignored.
func WithPublisher(p Publisher) Option {
	return func(g *Generator) { g.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

func New(store Store, rnd Rand, opts Options, extra ...Option) *Generator {
	if opts.SleepUnit <= 0 {
		opts.SleepUnit = time.Second
	}
	if opts.WriteAttempts < 1 {
		opts.WriteAttempts = 1
	}

	g := &Generator{
		store:   store,
		rnd:     rnd,
		opts:    opts,
		sleeper: TimerSleeper{},
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, o := range extra {
		o(g)
	}
	return g
}

// Run generates face logs until the iteration budget is spent, ctx is
// cancelled or a step fails. Cancellation returns ctx.Err().
func (g *Generator) Run(ctx context.Context) error {
	g.logger.Info("generator started",
		"max_sleep", time.Duration(g.opts.MaxSleepUnits)*g.opts.SleepUnit,
		"iterations", g.opts.Iterations,
		"write_attempts", g.opts.WriteAttempts,
	)

	for i := 0; g.opts.Iterations == 0 || i < g.opts.Iterations; i++ {
		if _, err := g.Step(ctx); err != nil {
			return err
		}
	}

	g.logger.Info("generator finished", "iterations", g.opts.Iterations)
	return nil
}

// Step sleeps a random delay, then builds and stores one face log.
func (g *Generator) Step(ctx context.Context) (*models.FaceLog, error) {
	delay := g.nextDelay()
	observability.SleepSeconds.Observe(delay.Seconds())
	if err := g.sleeper.Sleep(ctx, delay); err != nil {
		return nil, err
	}

	createdAt := g.now().Truncate(time.Second)

	cam, err := PickCamera(ctx, g.store, g.rnd)
	if err != nil {
		return nil, g.fail(fmt.Errorf("pick camera: %w", err))
	}

	who, err := PickPerson(ctx, g.store, g.rnd)
	if err != nil {
		return nil, g.fail(fmt.Errorf("pick person: %w", err))
	}

	fl := models.NewFaceLog(createdAt, cam, who)

	rows, err := g.insert(ctx, fl)
	if err != nil {
		return nil, g.fail(err)
	}

	attrs := []any{
		"rows", rows,
		"camera", fl.CameraName,
		"zone", fl.ZoneName,
		"known", fl.Known(),
	}
	if fl.Known() {
		attrs = append(attrs, "person_id", *fl.PersonID)
	} else {
		attrs = append(attrs, "unknown_person_id", fl.UnknownPersonID)
	}
	g.logger.Info("face log inserted", attrs...)
	observability.FaceLogsInserted.WithLabelValues(kindLabel(fl)).Inc()

	if g.publisher != nil {
		if err := g.publisher.PublishFaceLog(ctx, fl); err != nil {
			observability.PublishFailures.Inc()
			g.logger.Warn("publish face log", "error", err, "zone", fl.ZoneName)
		}
	}

	return fl, nil
}

func (g *Generator) nextDelay() time.Duration {
	if g.opts.MaxSleepUnits <= 0 {
		return 0
	}
	return time.Duration(g.rnd.IntN(g.opts.MaxSleepUnits+1)) * g.opts.SleepUnit
}

func (g *Generator) insert(ctx context.Context, fl *models.FaceLog) (int64, error) {
	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= g.opts.WriteAttempts; attempt++ {
		attempts = attempt
		start := time.Now()
		rows, err := g.store.InsertFaceLog(ctx, fl)
		observability.InsertDuration.Observe(time.Since(start).Seconds())
		if err == nil {
			return rows, nil
		}
		lastErr = err

		if attempt == g.opts.WriteAttempts || ctx.Err() != nil {
			break
		}
		g.logger.Warn("insert face log (retrying...)",
			"attempt", attempt,
			"max_attempts", g.opts.WriteAttempts,
			"error", err,
		)
		if err := g.sleeper.Sleep(ctx, g.opts.RetryInterval); err != nil {
			break
		}
	}
	return 0, fmt.Errorf("%w after %d attempt(s): %w", ErrWrite, attempts, lastErr)
}

func (g *Generator) fail(err error) error {
	observability.GeneratorErrors.WithLabelValues(errorKind(err)).Inc()
	return err
}

func kindLabel(fl *models.FaceLog) string {
	if fl.Known() {
		return "known"
	}
	return "unknown"
}

package generator

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/your-org/facelog/internal/models"
)

type fakeStore struct {
	fakeSource
	inserted   []*models.FaceLog
	insertErrs []error // consumed one per call; nil entries succeed
	calls      int
	events     *[]string
}

func (f *fakeStore) InsertFaceLog(ctx context.Context, fl *models.FaceLog) (int64, error) {
	f.calls++
	if f.events != nil {
		*f.events = append(*f.events, "insert")
	}
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	f.inserted = append(f.inserted, fl)
	return 1, nil
}

type recordingSleeper struct {
	delays []time.Duration
	events *[]string
	// cancel, when set, is called on the sleep with this index.
	cancelAt int
	cancel   context.CancelFunc
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	if s.events != nil {
		*s.events = append(*s.events, "sleep")
	}
	if s.cancel != nil && len(s.delays) == s.cancelAt {
		s.cancel()
	}
	return ctx.Err()
}

type fakePublisher struct {
	published []*models.FaceLog
	err       error
}

func (p *fakePublisher) PublishFaceLog(ctx context.Context, fl *models.FaceLog) error {
	p.published = append(p.published, fl)
	return p.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newTestStore(events *[]string) *fakeStore {
	return &fakeStore{
		fakeSource: fakeSource{
			cameras:   sampleCameras,
			personIDs: []int64{1, 2, 3},
		},
		events: events,
	}
}

func defaultOptions(iterations int) Options {
	return Options{
		MaxSleepUnits: 10,
		SleepUnit:     time.Second,
		Iterations:    iterations,
		WriteAttempts: 1,
		RetryInterval: 3 * time.Second,
	}
}

func TestRunFixedIterations(t *testing.T) {
	const iterations = 25

	var events []string
	store := newTestStore(&events)
	sleeper := &recordingSleeper{events: &events}

	g := New(store, NewRand(1), defaultOptions(iterations),
		WithSleeper(sleeper),
		WithLogger(quietLogger()),
	)

	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if store.calls != iterations {
		t.Fatalf("Expected %d inserts, got %d", iterations, store.calls)
	}
	if len(sleeper.delays) != iterations {
		t.Fatalf("Expected %d sleeps, got %d", iterations, len(sleeper.delays))
	}
	for i, d := range sleeper.delays {
		if d < 0 || d > 10*time.Second || d%time.Second != 0 {
			t.Errorf("sleep %d = %v, want whole seconds in [0s, 10s]", i, d)
		}
	}

	// Every insert is directly preceded by a sleep
	for i := 0; i < len(events); i += 2 {
		if events[i] != "sleep" || events[i+1] != "insert" {
			t.Fatalf("unexpected event order at %d: %v", i, events[i:i+2])
		}
	}
}

func TestRunAttributionInvariant(t *testing.T) {
	store := newTestStore(nil)
	g := New(store, NewRand(99), defaultOptions(300),
		WithSleeper(&recordingSleeper{}),
		WithLogger(quietLogger()),
	)
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var known, unknown int
	for _, fl := range store.inserted {
		switch {
		case fl.PersonID != nil && fl.UnknownPersonID == 0:
			known++
			if *fl.PersonID == 3 {
				t.Fatalf("known face log attributed to highest id")
			}
		case fl.PersonID == nil && fl.UnknownPersonID == 3:
			unknown++
		default:
			t.Fatalf("face log breaks attribution invariant: person=%v unknown=%d", fl.PersonID, fl.UnknownPersonID)
		}
	}
	if known == 0 || unknown == 0 {
		t.Errorf("Expected both branches, got known=%d unknown=%d", known, unknown)
	}
}

func TestStepBuildsFaceLog(t *testing.T) {
	store := newTestStore(nil)
	sleeper := &recordingSleeper{}
	pub := &fakePublisher{}
	now := time.Date(2024, 5, 1, 9, 15, 30, 999_000_000, time.UTC)

	// sleep 4 units, camera index 1, known, person index 0
	rnd := newScriptedRand(t, 4, 1, 1, 0)
	g := New(store, rnd, defaultOptions(1),
		WithSleeper(sleeper),
		WithClock(func() time.Time { return now }),
		WithPublisher(pub),
		WithLogger(quietLogger()),
	)

	fl, err := g.Step(context.Background())
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	if sleeper.delays[0] != 4*time.Second {
		t.Errorf("Expected 4s sleep, got %v", sleeper.delays[0])
	}
	if !fl.CreationTime.Equal(now.Truncate(time.Second)) {
		t.Errorf("CreationTime = %v, want %v", fl.CreationTime, now.Truncate(time.Second))
	}
	if fl.CameraName != "C2" || fl.ZoneName != "Z2" {
		t.Errorf("unexpected camera %q/%q", fl.CameraName, fl.ZoneName)
	}
	if fl.PersonID == nil || *fl.PersonID != 1 || fl.UnknownPersonID != 0 {
		t.Errorf("unexpected attribution person=%v unknown=%d", fl.PersonID, fl.UnknownPersonID)
	}
	if fl.Score != 0.5 || fl.Data != models.PlaceholderBlob || fl.Age != nil {
		t.Errorf("placeholders missing: %+v", fl)
	}
	if len(store.inserted) != 1 || store.inserted[0] != fl {
		t.Errorf("Expected the face log to be inserted once")
	}
	if len(pub.published) != 1 || pub.published[0] != fl {
		t.Errorf("Expected the face log to be published once")
	}
	if got := rnd.calls; len(got) != 4 || got[0] != 11 || got[1] != 2 || got[2] != 2 || got[3] != 2 {
		t.Errorf("unexpected IntN calls %v", got)
	}
}

func TestStepLogsRowsAffected(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	g := New(newTestStore(nil), newScriptedRand(t, 0, 0, 0), defaultOptions(1),
		WithSleeper(&recordingSleeper{}),
		WithLogger(logger),
	)
	if _, err := g.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"face log inserted", "rows=1", "known=false", "unknown_person_id=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log to contain %q, got %q", want, out)
		}
	}
}

func TestStepPublishFailureIsNotFatal(t *testing.T) {
	store := newTestStore(nil)
	pub := &fakePublisher{err: errors.New("nats down")}

	g := New(store, NewRand(3), defaultOptions(3),
		WithSleeper(&recordingSleeper{}),
		WithPublisher(pub),
		WithLogger(quietLogger()),
	)
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(store.inserted) != 3 || len(pub.published) != 3 {
		t.Errorf("Expected 3 inserts and 3 publish attempts, got %d/%d", len(store.inserted), len(pub.published))
	}
}

func TestRunFatalErrors(t *testing.T) {
	tests := []struct {
		name      string
		store     *fakeStore
		wantErr   error
		wantCalls int
	}{
		{
			name:    "No cameras",
			store:   &fakeStore{fakeSource: fakeSource{personIDs: []int64{1, 2}}},
			wantErr: ErrEmptyDataset,
		},
		{
			name:    "No persons",
			store:   &fakeStore{fakeSource: fakeSource{cameras: sampleCameras}},
			wantErr: ErrEmptyDataset,
		},
		{
			name:    "Store unreachable",
			store:   &fakeStore{fakeSource: fakeSource{listErr: errors.New("dial tcp: refused")}},
			wantErr: ErrConnection,
		},
		{
			name: "Write failure",
			store: &fakeStore{
				fakeSource: fakeSource{cameras: sampleCameras, personIDs: []int64{1, 2, 3}},
				insertErrs: []error{errors.New("constraint violation")},
			},
			wantErr:   ErrWrite,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.store, NewRand(5), defaultOptions(0),
				WithSleeper(&recordingSleeper{}),
				WithLogger(quietLogger()),
			)
			err := g.Run(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if tt.store.calls != tt.wantCalls {
				t.Errorf("Expected %d insert calls, got %d", tt.wantCalls, tt.store.calls)
			}
		})
	}
}

func TestRunInsufficientPersons(t *testing.T) {
	store := &fakeStore{fakeSource: fakeSource{cameras: sampleCameras, personIDs: []int64{1}}}

	// sleep 0, camera 0, known
	g := New(store, newScriptedRand(t, 0, 0, 1), defaultOptions(0),
		WithSleeper(&recordingSleeper{}),
		WithLogger(quietLogger()),
	)
	err := g.Run(context.Background())
	if !errors.Is(err, ErrInsufficientDataset) {
		t.Fatalf("Expected ErrInsufficientDataset, got %v", err)
	}
}

func TestWriteRetry(t *testing.T) {
	transient := errors.New("connection reset")

	t.Run("Recovers within budget", func(t *testing.T) {
		store := newTestStore(nil)
		store.insertErrs = []error{transient, transient, nil}
		sleeper := &recordingSleeper{}

		opts := defaultOptions(1)
		opts.WriteAttempts = 5
		g := New(store, newScriptedRand(t, 2, 0, 0), opts,
			WithSleeper(sleeper),
			WithLogger(quietLogger()),
		)
		if err := g.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if store.calls != 3 || len(store.inserted) != 1 {
			t.Errorf("Expected 3 attempts and 1 insert, got %d/%d", store.calls, len(store.inserted))
		}
		want := []time.Duration{2 * time.Second, 3 * time.Second, 3 * time.Second}
		if len(sleeper.delays) != len(want) {
			t.Fatalf("Expected sleeps %v, got %v", want, sleeper.delays)
		}
		for i := range want {
			if sleeper.delays[i] != want[i] {
				t.Errorf("sleep %d = %v, want %v", i, sleeper.delays[i], want[i])
			}
		}
	})

	t.Run("Exhausts budget", func(t *testing.T) {
		store := newTestStore(nil)
		store.insertErrs = []error{transient, transient}

		opts := defaultOptions(0)
		opts.WriteAttempts = 2
		g := New(store, newScriptedRand(t, 0, 0, 0), opts,
			WithSleeper(&recordingSleeper{}),
			WithLogger(quietLogger()),
		)
		err := g.Run(context.Background())
		if !errors.Is(err, ErrWrite) || !errors.Is(err, transient) {
			t.Fatalf("Expected ErrWrite wrapping cause, got %v", err)
		}
		if !strings.Contains(err.Error(), "after 2 attempt(s)") {
			t.Errorf("Expected attempt count in %q", err.Error())
		}
		if store.calls != 2 {
			t.Errorf("Expected 2 insert attempts, got %d", store.calls)
		}
	})
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newTestStore(nil)
	sleeper := &recordingSleeper{cancelAt: 4, cancel: cancel}

	g := New(store, NewRand(11), defaultOptions(0),
		WithSleeper(sleeper),
		WithLogger(quietLogger()),
	)
	err := g.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if store.calls != 3 {
		t.Errorf("Expected 3 inserts before cancellation, got %d", store.calls)
	}
}

func TestNoSleepWhenMaxUnitsZero(t *testing.T) {
	sleeper := &recordingSleeper{}
	opts := defaultOptions(2)
	opts.MaxSleepUnits = 0

	// no sleep draw: camera, coin (unknown), camera, coin (unknown)
	g := New(newTestStore(nil), newScriptedRand(t, 0, 0, 1, 0), opts,
		WithSleeper(sleeper),
		WithLogger(quietLogger()),
	)
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, d := range sleeper.delays {
		if d != 0 {
			t.Errorf("Expected zero delay, got %v", d)
		}
	}
}

func TestTimerSleeper(t *testing.T) {
	var s TimerSleeper

	if err := s.Sleep(context.Background(), 0); err != nil {
		t.Errorf("zero sleep returned %v", err)
	}
	if err := s.Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("short sleep returned %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := s.Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled sleep did not return promptly")
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&DatasetError{Collection: "cameras"}, "empty_dataset"},
		{&DatasetError{Collection: "persons", Size: 1, Required: 2}, "insufficient_dataset"},
		{errors.Join(ErrConnection, errors.New("x")), "connection"},
		{ErrWrite, "write"},
		{errors.New("other"), "other"},
	}
	for _, tt := range tests {
		if got := errorKind(tt.err); got != tt.want {
			t.Errorf("errorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

package feature_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featureflag/pkg/feature"
	"github.com/dmitrymomot/featureflag/pkg/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// manualExecutor queues jobs until the test runs them.
type manualExecutor struct {
	mu        sync.Mutex
	jobs      []func()
	submitted int
	reject    error
}

func (e *manualExecutor) Submit(job func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitted++
	if e.reject != nil {
		return e.reject
	}
	e.jobs = append(e.jobs, job)
	return nil
}

func (e *manualExecutor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.jobs)
}

func (e *manualExecutor) Submitted() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitted
}

func (e *manualExecutor) RunAll() {
	e.mu.Lock()
	jobs := e.jobs
	e.jobs = nil
	e.mu.Unlock()
	for _, job := range jobs {
		job()
	}
}

// countingLookup counts LookupPercentage calls on top of a MemoryLookup and
// can be switched to fail or to block until released.
type countingLookup struct {
	*feature.MemoryLookup

	calls atomic.Int64

	mu        sync.Mutex
	err       error
	gate      chan struct{}
	panicNext any
}

func newCountingLookup(t *testing.T, initial map[string]float64) *countingLookup {
	t.Helper()
	m, err := feature.NewMemoryLookup(initial)
	require.NoError(t, err)
	return &countingLookup{MemoryLookup: m}
}

func (l *countingLookup) LookupPercentage(ctx context.Context, featureID string) (float64, bool, error) {
	l.calls.Add(1)
	l.mu.Lock()
	err, gate, pv := l.err, l.gate, l.panicNext
	l.panicNext = nil
	l.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if pv != nil {
		panic(pv)
	}
	if err != nil {
		return 0, false, err
	}
	return l.MemoryLookup.LookupPercentage(ctx, featureID)
}

func (l *countingLookup) Calls() int {
	return int(l.calls.Load())
}

func (l *countingLookup) Fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

// PanicOnce makes the next LookupPercentage call panic with v.
func (l *countingLookup) PanicOnce(v any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.panicNext = v
}

func (l *countingLookup) Block() chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gate = make(chan struct{})
	return l.gate
}

func (l *countingLookup) set(t *testing.T, featureID string, p float64) {
	t.Helper()
	ok, err := l.SetPercentage(context.Background(), featureID, p)
	require.NoError(t, err)
	require.True(t, ok)
}

// fixedLookup returns a stored value without validating it.
type fixedLookup struct {
	percentage float64
}

func (l fixedLookup) LookupPercentage(context.Context, string) (float64, bool, error) {
	return l.percentage, true, nil
}

func (fixedLookup) SetPercentage(context.Context, string, float64) (bool, error) { return false, nil }

func (fixedLookup) DeletePercentage(context.Context, string) error { return nil }

// panickingFactory builds evaluators that panic when called.
type panickingFactory struct{}

func (panickingFactory) Generate(string, float64) (feature.Evaluator, error) {
	return func(string) bool { panic("evaluator bug") }, nil
}

func (panickingFactory) DisabledFeature() feature.Evaluator {
	return func(string) bool { panic("evaluator bug") }
}

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) LookupPercentage(ctx context.Context, featureID string) (float64, bool, error) {
	args := m.Called(ctx, featureID)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

func (m *mockLookup) SetPercentage(ctx context.Context, featureID string, percentage float64) (bool, error) {
	args := m.Called(ctx, featureID, percentage)
	return args.Bool(0), args.Error(1)
}

func (m *mockLookup) DeletePercentage(ctx context.Context, featureID string) error {
	args := m.Called(ctx, featureID)
	return args.Error(0)
}

type mockManager struct {
	mock.Mock
}

func (m *mockManager) IsEnabled(ctx context.Context, featureID, discriminator string) bool {
	args := m.Called(ctx, featureID, discriminator)
	return args.Bool(0)
}

func (m *mockManager) Invalidate(ctx context.Context, featureID string) {
	m.Called(ctx, featureID)
}

// syncBuffer is a bytes.Buffer safe for the concurrent writes of background reloads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return logger.New(
		logger.WithOutput(buf),
		logger.WithJSONFormatter(),
		logger.WithLevel(slog.LevelDebug),
	), buf
}

type testEnv struct {
	client   *feature.Client
	lookup   *countingLookup
	clock    *fakeClock
	executor *manualExecutor
	logs     *syncBuffer
}

func newTestEnv(t *testing.T, initial map[string]float64, mutate ...func(*feature.Config)) *testEnv {
	t.Helper()

	env := &testEnv{
		lookup:   newCountingLookup(t, initial),
		clock:    newFakeClock(),
		executor: &manualExecutor{},
	}
	log, buf := newTestLogger()
	env.logs = buf

	cfg := feature.Config{
		Lookup:         env.lookup,
		ReloadExecutor: env.executor,
		Logger:         log,
		Clock:          env.clock.Now,
		SweepInterval:  -1,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	client, err := feature.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	env.client = client
	return env
}

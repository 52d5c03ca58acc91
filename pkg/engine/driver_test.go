package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/aretw0/steprelay/pkg/engine"
	"github.com/aretw0/steprelay/pkg/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMachine struct {
	mock.Mock
}

func (m *MockMachine) Tokens() []domain.TokenView {
	args := m.Called()
	return args.Get(0).([]domain.TokenView)
}

func (m *MockMachine) Step(ctx context.Context, io engine.IO) (bool, error) {
	args := m.Called(ctx, io)
	return args.Bool(0), args.Error(1)
}

// scripted runs one function per step.
type scripted struct {
	steps  []func(ctx context.Context, io engine.IO) error
	i      int
	tokens []domain.TokenView
}

func (s *scripted) Tokens() []domain.TokenView { return s.tokens }

func (s *scripted) Step(ctx context.Context, io engine.IO) (bool, error) {
	if err := s.steps[s.i](ctx, io); err != nil {
		return false, err
	}
	s.i++
	return s.i == len(s.steps), nil
}

// runDriver runs d in the background and returns its result channel.
func runDriver(ctx context.Context, d *engine.Driver) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- d.Run(ctx) }()
	return errc
}

func waitErr(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("driver hung")
		return nil
	}
}

// consumeAll takes every step until the relay finishes.
func consumeAll(r *relay.Relay) []uint64 {
	var steps []uint64
	for {
		s, ok := r.TakeStep(true)
		if !ok {
			return steps
		}
		steps = append(steps, s.Step)
	}
}

func TestDriver_PublishesEveryStep(t *testing.T) {
	m := new(MockMachine)
	m.On("Tokens").Return([]domain.TokenView{{ID: 1, Value: 0}})
	m.On("Step", mock.Anything, mock.Anything).Return(false, nil).Times(2)
	m.On("Step", mock.Anything, mock.Anything).Return(true, nil).Once()

	r := relay.New()
	var hooked []uint64
	d := engine.NewDriver(m, r, engine.WithHooks(engine.Hooks{
		OnStep: func(s domain.Snapshot) { hooked = append(hooked, s.Step) },
	}))

	errc := runDriver(context.Background(), d)
	steps := consumeAll(r)

	require.NoError(t, waitErr(t, errc))
	assert.Equal(t, []uint64{0, 1, 2, 3}, steps)
	assert.Equal(t, []uint64{0, 1, 2, 3}, hooked)
	assert.True(t, r.IsFinished())
	m.AssertExpectations(t)
}

func TestDriver_MachineErrorIsReported(t *testing.T) {
	boom := errors.New("division by zero")
	m := new(MockMachine)
	m.On("Tokens").Return([]domain.TokenView{})
	m.On("Step", mock.Anything, mock.Anything).Return(false, nil).Once()
	m.On("Step", mock.Anything, mock.Anything).Return(false, boom).Once()

	r := relay.New()
	errc := runDriver(context.Background(), engine.NewDriver(m, r))
	steps := consumeAll(r)

	err := waitErr(t, errc)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []uint64{0, 1}, steps)

	msg, ok := r.DrainError()
	require.True(t, ok)
	assert.Equal(t, "division by zero", msg)
	assert.True(t, r.IsFinished(), "finish is signalled on failure")
}

func TestDriver_PanicIsRecovered(t *testing.T) {
	m := &scripted{steps: []func(context.Context, engine.IO) error{
		func(context.Context, engine.IO) error { panic("bad opcode") },
	}}

	r := relay.New()
	errc := runDriver(context.Background(), engine.NewDriver(m, r))
	steps := consumeAll(r)

	err := waitErr(t, errc)
	assert.ErrorIs(t, err, engine.ErrProducerFailure)
	assert.Contains(t, err.Error(), "bad opcode")
	assert.Equal(t, []uint64{0}, steps)

	msg, ok := r.DrainError()
	require.True(t, ok)
	assert.Equal(t, "bad opcode", msg)
	assert.True(t, r.IsFinished())
}

func TestDriver_OutputAndInput(t *testing.T) {
	var got string
	m := &scripted{steps: []func(context.Context, engine.IO) error{
		func(ctx context.Context, io engine.IO) error {
			io.Output("a")
			io.Output("b")
			return nil
		},
		func(ctx context.Context, io engine.IO) error {
			v, err := io.Input(ctx)
			got = v
			return err
		},
	}}

	r := relay.New()
	errc := runDriver(context.Background(), engine.NewDriver(m, r))

	_, ok := r.TakeStep(true) // step 0
	require.True(t, ok)
	_, ok = r.TakeStep(true) // step 1
	require.True(t, ok)

	first, _ := r.DrainOutput()
	second, _ := r.DrainOutput()
	assert.Equal(t, "a", first)
	assert.Equal(t, "b", second)

	require.Eventually(t, r.AwaitingInput, time.Second, time.Millisecond)
	r.SupplyInput("42")

	s, ok := r.TakeStep(true)
	require.True(t, ok)
	assert.Equal(t, uint64(2), s.Step)

	require.NoError(t, waitErr(t, errc))
	assert.Equal(t, "42", got)
}

func TestDriver_FinishWhileAwaitingInput(t *testing.T) {
	m := &scripted{steps: []func(context.Context, engine.IO) error{
		func(ctx context.Context, io engine.IO) error {
			_, err := io.Input(ctx)
			return err
		},
	}}

	r := relay.New()
	errc := runDriver(context.Background(), engine.NewDriver(m, r))

	_, ok := r.TakeStep(true)
	require.True(t, ok)
	require.Eventually(t, r.AwaitingInput, time.Second, time.Millisecond)
	r.SignalFinished()

	assert.NoError(t, waitErr(t, errc))
}

func TestDriver_InputTimeout(t *testing.T) {
	m := &scripted{steps: []func(context.Context, engine.IO) error{
		func(ctx context.Context, io engine.IO) error {
			_, err := io.Input(ctx)
			return err
		},
	}}

	r := relay.New()
	errc := runDriver(context.Background(), engine.NewDriver(m, r, engine.WithInputTimeout(20*time.Millisecond)))
	consumeAll(r)

	err := waitErr(t, errc)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDriver_ObserverAbort(t *testing.T) {
	m := new(MockMachine)
	m.On("Tokens").Return([]domain.TokenView{})
	m.On("Step", mock.Anything, mock.Anything).Return(false, nil)

	r := relay.New()
	errc := runDriver(context.Background(), engine.NewDriver(m, r))

	for i := 0; i < 3; i++ {
		_, ok := r.TakeStep(true)
		require.True(t, ok)
	}
	r.SignalFinished()

	assert.NoError(t, waitErr(t, errc))
}

func TestDriver_MaxSteps(t *testing.T) {
	m := new(MockMachine)
	m.On("Tokens").Return([]domain.TokenView{})
	m.On("Step", mock.Anything, mock.Anything).Return(false, nil)

	r := relay.New()
	errc := runDriver(context.Background(), engine.NewDriver(m, r, engine.WithMaxSteps(4)))
	steps := consumeAll(r)

	require.NoError(t, waitErr(t, errc))
	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, steps)
	msg, ok := r.DrainError()
	require.True(t, ok)
	assert.Contains(t, msg, "step limit")
	m.AssertNumberOfCalls(t, "Step", 4)
}

func TestDriver_ContextCancelReleasesPublish(t *testing.T) {
	m := new(MockMachine)
	m.On("Tokens").Return([]domain.TokenView{})
	m.On("Step", mock.Anything, mock.Anything).Return(false, nil)

	ctx, cancel := context.WithCancel(context.Background())
	r := relay.New()
	errc := runDriver(ctx, engine.NewDriver(m, r))

	// Nobody consumes: the driver is parked on the initial snapshot.
	require.Eventually(t, func() bool { return r.Stats().Holding }, time.Second, time.Millisecond)
	cancel()

	err := waitErr(t, errc)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, r.IsFinished())
}

func TestDriver_CancelWhileAwaitingInput(t *testing.T) {
	m := &scripted{steps: []func(context.Context, engine.IO) error{
		func(ctx context.Context, io engine.IO) error {
			_, err := io.Input(ctx)
			return err
		},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := relay.New()
	errc := runDriver(ctx, engine.NewDriver(m, r))

	_, ok := r.TakeStep(true)
	require.True(t, ok)
	require.Eventually(t, r.AwaitingInput, time.Second, time.Millisecond)
	cancel()

	err := waitErr(t, errc)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, engine.ErrProducerFailure)
	assert.True(t, r.IsFinished())
	_, failed := r.DrainError()
	assert.False(t, failed, "cancellation is not reported as a program error")
}

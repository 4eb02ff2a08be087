package controller

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_ReturnsSingleInstance(t *testing.T) {
	s, _ := harness(t)

	a, err := Register[ctrlA](s)
	require.NoError(t, err)
	assert.True(t, a.Registered())
	assert.True(t, a.Enabled(), "registered controllers start enabled")

	got, err := Get[ctrlA](s)
	require.NoError(t, err)
	assert.Same(t, a, got)
}

func TestRegister_Twice(t *testing.T) {
	s, _ := harness(t)

	_, err := Register[ctrlA](s)
	require.NoError(t, err)

	_, err = Register[ctrlA](s)
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	var serr *Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "A", serr.Controller)
	assert.Contains(t, serr.Site, "scheduler_test.go")
	assert.Len(t, s.Registered(), 1)
}

func TestGet_ConstructedButUnregistered(t *testing.T) {
	s, _ := harness(t)

	_, err := Get[ctrlB](s)
	require.ErrorIs(t, err, ErrUnregisteredController)
	assert.Contains(t, err.Error(), `"B"`)

	// Registering afterwards yields the instance built by the failed lookup.
	b, err := Register[ctrlB](s)
	require.NoError(t, err)
	got, err := Get[ctrlB](s)
	require.NoError(t, err)
	assert.Same(t, b, got)
}

func TestProvide_ConstructsLazilyOnce(t *testing.T) {
	s := NewScheduler(nil)
	rec := &recorder{}
	built := 0
	require.NoError(t, Provide(s, func() *ctrlA {
		built++
		return &ctrlA{probe{name: "A", rec: rec}}
	}))
	assert.Equal(t, 0, built)

	_, err := Get[ctrlA](s)
	require.ErrorIs(t, err, ErrUnregisteredController)
	_, err = Register[ctrlA](s)
	require.NoError(t, err)
	_, err = Get[ctrlA](s)
	require.NoError(t, err)

	assert.Equal(t, 1, built)
}

func TestProvide_AfterConstruction(t *testing.T) {
	s, rec := harness(t)
	_, err := Register[ctrlA](s)
	require.NoError(t, err)

	err = Provide(s, func() *ctrlA { return &ctrlA{probe{name: "A2", rec: rec}} })
	require.ErrorIs(t, err, ErrAlreadyConstructed)
}

func TestRegister_WithoutFactoryUsesZeroValue(t *testing.T) {
	s := NewScheduler(nil)
	c, err := Register[plain](s)
	require.NoError(t, err)
	assert.Equal(t, "plain", c.Name())
}

type plain struct{ Base }

func (*plain) Name() string { return "plain" }

func TestRegister_AfterResolve(t *testing.T) {
	s, _ := harness(t)
	registerABC(t, s)
	_, err := s.Resolve()
	require.NoError(t, err)

	_, err = Register[ctrlD](s)
	require.ErrorIs(t, err, ErrRegistrationClosed)

	err = Provide(s, func() *plain { return &plain{} })
	require.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestConstraint_Errors(t *testing.T) {
	t.Run("peer not registered", func(t *testing.T) {
		s, _ := harness(t)
		a, err := Register[ctrlA](s)
		require.NoError(t, err)

		_, err = Get[ctrlD](s) // constructs D without registering it
		require.Error(t, err)
		d := s.instances[typeOf[ctrlD]()]

		err = a.Before(d)
		require.ErrorIs(t, err, ErrDanglingConstraint)
		var serr *Error
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, "A", serr.Controller)
		assert.Equal(t, "D", serr.Peer)

		require.ErrorIs(t, a.After(nil), ErrDanglingConstraint)
	})

	t.Run("self not registered", func(t *testing.T) {
		s, _ := harness(t)
		a, err := Register[ctrlA](s)
		require.NoError(t, err)
		_, _ = Get[ctrlD](s)
		d := s.instances[typeOf[ctrlD]()]

		require.ErrorIs(t, d.After(a), ErrUnregisteredController)
	})

	t.Run("after resolve", func(t *testing.T) {
		s, _ := harness(t)
		a, b, _ := registerABC(t, s)
		_, err := s.Resolve()
		require.NoError(t, err)

		require.ErrorIs(t, a.Before(b), ErrRegistrationClosed)
	})
}

func TestLookup(t *testing.T) {
	s, _ := harness(t)
	_, b, _ := registerABC(t, s)

	got, err := s.Lookup("B")
	require.NoError(t, err)
	assert.Same(t, Controller(b), got)

	_, err = s.Lookup("missing")
	require.ErrorIs(t, err, ErrUnregisteredController)
}

func TestSetEnabledBeforeRegisterIsKept(t *testing.T) {
	s, _ := harness(t)
	require.NoError(t, Provide(s, func() *plain {
		p := &plain{}
		p.SetEnabled(false)
		return p
	}))
	p, err := Register[plain](s)
	require.NoError(t, err)
	assert.False(t, p.Enabled())
}

func TestProvide_NilFactory(t *testing.T) {
	s := NewScheduler(nil)
	err := Provide(s, (func() *plain)(nil))
	require.ErrorIs(t, err, ErrNilFactory)
	var serr *Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "provide", serr.Op)
}

func TestProvide_FactoryReturningNil(t *testing.T) {
	s := NewScheduler(nil)
	calls := 0
	require.NoError(t, Provide(s, func() *plain {
		calls++
		return nil
	}))

	_, err := Register[plain](s)
	require.ErrorIs(t, err, ErrNilFactory)
	_, err = Get[plain](s)
	require.ErrorIs(t, err, ErrNilFactory)
	assert.Equal(t, 2, calls, "a nil result is not cached")
	assert.Empty(t, s.Registered())
}

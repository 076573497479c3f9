package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantden/sigtrader/market"
)

func longSignal(entry, stop, take float64) Signal {
	return Signal{
		Time:       time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Strategy:   "mean-reversion",
		Direction:  market.Long,
		Entry:      entry,
		StopLoss:   stop,
		TakeProfit: take,
	}
}

func shortSignal(entry, stop, take float64) Signal {
	s := longSignal(entry, stop, take)
	s.Direction = market.Short
	return s
}

func TestPosition_FloorNeverRetreats(t *testing.T) {
	t.Parallel()

	exits := ExitConfig{
		BreakevenTriggerPct: 0.02,
		ProfitLocks: []ProfitLock{
			{TriggerPct: 0.05, KeepFraction: 0.5},
		},
	}

	pos := Open(longSignal(100, 97, 110), time.Now())

	prices := []float64{100.5, 101, 103, 105, 102, 99, 104, 101}
	prevFloor := pos.Floor
	for _, px := range prices {
		pos.Observe(px, exits)
		assert.GreaterOrEqual(t, pos.Floor, prevFloor, "floor retreated at price %v", px)
		prevFloor = pos.Floor
	}
}

func TestPosition_BreakevenRatchet(t *testing.T) {
	t.Parallel()

	exits := ExitConfig{BreakevenTriggerPct: 0.02}
	pos := Open(longSignal(100, 97, 110), time.Now())

	// Below the trigger: floor stays at the stop.
	pos.Observe(101, exits)
	assert.InDelta(t, 97.0, pos.Floor, 1e-9)
	exit, _ := checkExit(pos, 101)
	assert.False(t, exit)

	// Profit exceeds 2%: floor moves to entry.
	pos.Observe(102.5, exits)
	assert.InDelta(t, 100.0, pos.Floor, 1e-9)

	// Retrace to entry triggers the breakeven exit, not the stop.
	pos.Observe(100, exits)
	exit, reason := checkExit(pos, 100)
	assert.True(t, exit)
	assert.Equal(t, ExitBreakeven, reason)
}

func TestPosition_ProfitLocksTighten(t *testing.T) {
	t.Parallel()

	exits := ExitConfig{
		BreakevenTriggerPct: 0.02,
		ProfitLocks: []ProfitLock{
			{TriggerPct: 0.05, KeepFraction: 0.5},
			{TriggerPct: 0.10, KeepFraction: 0.9},
		},
	}

	pos := Open(longSignal(100, 97, 120), time.Now())

	// 5% excursion locks half the run: floor = 100 + 5*0.5.
	pos.Observe(105, exits)
	assert.InDelta(t, 102.5, pos.Floor, 1e-9)

	// 10% excursion locks 90%: floor = 100 + 10*0.9.
	pos.Observe(110, exits)
	assert.InDelta(t, 109.0, pos.Floor, 1e-9)

	// Price falling back cannot loosen the lock.
	pos.Observe(104, exits)
	assert.InDelta(t, 109.0, pos.Floor, 1e-9)

	exit, reason := checkExit(pos, 104)
	assert.True(t, exit)
	assert.Equal(t, ExitTrailing, reason)
}

func TestPosition_ShortMirror(t *testing.T) {
	t.Parallel()

	exits := ExitConfig{
		BreakevenTriggerPct: 0.02,
		ProfitLocks:         []ProfitLock{{TriggerPct: 0.05, KeepFraction: 0.5}},
	}

	pos := Open(shortSignal(100, 103, 90), time.Now())

	pos.Observe(97.5, exits) // 2.5% in favor
	assert.InDelta(t, 100.0, pos.Floor, 1e-9)

	pos.Observe(95, exits) // 5% locks half the run
	assert.InDelta(t, 97.5, pos.Floor, 1e-9)

	// For shorts the floor may only fall.
	pos.Observe(98, exits)
	assert.InDelta(t, 97.5, pos.Floor, 1e-9)

	exit, reason := checkExit(pos, 98)
	assert.True(t, exit)
	assert.Equal(t, ExitTrailing, reason)
}

func TestPosition_StopAndTargetPrecedence(t *testing.T) {
	t.Parallel()

	pos := Open(longSignal(100, 97, 110), time.Now())

	exit, reason := checkExit(pos, 96.5)
	assert.True(t, exit)
	assert.Equal(t, ExitStopLoss, reason)

	pos = Open(longSignal(100, 97, 110), time.Now())
	exit, reason = checkExit(pos, 110.5)
	assert.True(t, exit)
	assert.Equal(t, ExitTakeProfit, reason)
}

func TestSignalValidateOrdering(t *testing.T) {
	t.Parallel()

	require.NoError(t, longSignal(100, 97, 105).Validate())
	require.NoError(t, shortSignal(100, 103, 95).Validate())

	assert.Error(t, longSignal(100, 101, 105).Validate())  // stop above entry
	assert.Error(t, longSignal(100, 97, 99).Validate())    // target below entry
	assert.Error(t, shortSignal(100, 99, 95).Validate())   // stop below entry
	assert.Error(t, Signal{Entry: 100}.Validate())         // no direction
}

package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantden/sigtrader/market"
)

func testParams() Params {
	return Params{
		MinRewardRisk:   1.5,
		AcceptThreshold: 1.5,
		ATRMultiplier:   1.5,
		PriceCapPct:     0.03,
	}
}

func TestStopDistance(t *testing.T) {
	t.Parallel()

	p := testParams()

	tests := []struct {
		name  string
		entry float64
		atr   float64
		want  float64
	}{
		{"volatility stop tighter", 100.5, 2.0, 3.0},   // 3.0 < 3.015
		{"percentage cap tighter", 100.0, 10.0, 3.0},   // 15.0 > 3.0
		{"small price small atr", 1.2000, 0.001, 0.0015},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := StopDistance(tt.entry, tt.atr, p)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestTarget_LongBandDominatesBeyondMinimum(t *testing.T) {
	t.Parallel()

	p := testParams()

	// Minimum target is 100 + 2*1.5 = 103. A band target beyond that wins.
	got := Target(market.Long, 100, 2, 106, p)
	assert.InDelta(t, 106.0, got, 1e-9)

	// A band target inside the minimum is replaced by the minimum, so the
	// constructed reward/risk can never fall below the floor.
	got = Target(market.Long, 100, 2, 101, p)
	assert.InDelta(t, 103.0, got, 1e-9)
}

func TestTarget_Short(t *testing.T) {
	t.Parallel()

	p := testParams()

	// Minimum short target is 100 - 2*1.5 = 97.
	got := Target(market.Short, 100, 2, 95, p)
	assert.InDelta(t, 95.0, got, 1e-9)

	got = Target(market.Short, 100, 2, 98, p)
	assert.InDelta(t, 97.0, got, 1e-9)

	// No band target at all: plain minimum.
	got = Target(market.Short, 100, 2, 0, p)
	assert.InDelta(t, 97.0, got, 1e-9)
}

func TestRR(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.5, RR(100.5, 97.5, 105.0), 1e-9)
	assert.InDelta(t, 2.0, RR(100, 102, 96), 1e-9) // short
	assert.Zero(t, RR(100, 100, 110))              // degenerate risk
}

func TestAccept(t *testing.T) {
	t.Parallel()

	p := testParams()

	assert.True(t, Accept(100.5, 97.5, 105.0, 3.0, p))  // exactly at threshold
	assert.True(t, Accept(100, 98, 104, 2.0, p))        // above
	assert.False(t, Accept(100, 98, 102, 2.0, p))       // 1.0 below threshold
	assert.False(t, Accept(100, 100, 110, 0, p))        // degenerate stop distance
}

// The worked oversold-bounce numbers: entry 100.5, ATR 2.0, middle band
// 105. The stop distance caps at 3.0, the target lands exactly on the
// middle band, and the 1.5 reward/risk passes acceptance.
func TestOversoldBounceSizing(t *testing.T) {
	t.Parallel()

	p := testParams()

	dist := StopDistance(100.5, 2.0, p)
	require.InDelta(t, 3.0, dist, 1e-9)

	stop := 100.5 - dist
	take := Target(market.Long, 100.5, dist, 105.0, p)
	assert.InDelta(t, 97.5, stop, 1e-9)
	assert.InDelta(t, 105.0, take, 1e-9)

	assert.InDelta(t, 1.5, RR(100.5, stop, take), 1e-9)
	assert.True(t, Accept(100.5, stop, take, dist, p))
}

func TestParamsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr bool
	}{
		{"valid", func(p *Params) {}, false},
		{"min reward risk at one", func(p *Params) { p.MinRewardRisk = 1.0 }, true},
		{"min reward risk below one", func(p *Params) { p.MinRewardRisk = 0.8 }, true},
		{"zero accept threshold", func(p *Params) { p.AcceptThreshold = 0 }, true},
		{"zero atr multiplier", func(p *Params) { p.ATRMultiplier = 0 }, true},
		{"negative price cap", func(p *Params) { p.PriceCapPct = -0.01 }, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := testParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultParamsValid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, DefaultParams().Validate())
}

package routing_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saferoute/saferoute/internal/graph"
	"github.com/saferoute/saferoute/internal/routing"
)

func TestCostModel(t *testing.T) {
	m := routing.NewCostModel(routing.DefaultWeights)

	tests := []struct {
		name   string
		length float64
		risk   float64
		pref   routing.Preference
		want   float64
	}{
		{"fastest ignores risk", 100, 0.8, routing.PreferenceFastest, 100},
		{"balanced", 100, 0.8, routing.PreferenceBalanced, 140},
		{"safest", 100, 0.8, routing.PreferenceSafest, 260},
		{"zero risk", 100, 0, routing.PreferenceSafest, 100},
		{"zero length", 0, 1, routing.PreferenceSafest, 0},
		{"unknown preference", 100, 0.8, routing.Preference("scenic"), 100},
		{"empty preference", 100, 0.8, routing.Preference(""), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, m.Cost(tt.length, tt.risk, tt.pref), 1e-9)
		})
	}
}

func TestCostModelProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, w := range []routing.Weights{routing.DefaultWeights, routing.LiveWeights} {
		m := routing.NewCostModel(w)
		for i := 0; i < 1000; i++ {
			length := rng.Float64() * 5000
			r := rng.Float64()

			assert.Equal(t, length, m.Cost(length, r, routing.PreferenceFastest))
			assert.Equal(t, length, m.Cost(length, r, routing.Preference("other")))

			balanced := m.Cost(length, r, routing.PreferenceBalanced)
			safest := m.Cost(length, r, routing.PreferenceSafest)
			assert.GreaterOrEqual(t, balanced, length)
			if r > 0 {
				assert.LessOrEqual(t, balanced, safest)
			}
			assert.Equal(t, safest, m.Cost(length, r, routing.PreferenceSafest), "deterministic")
		}
	}
}

func TestSegmentCostDefaults(t *testing.T) {
	m := routing.NewCostModel(routing.DefaultWeights)

	noLength := graph.Segment{To: 2}
	c, r := m.SegmentCost(1, noLength, routing.NoRisk, routing.PreferenceSafest)
	assert.Equal(t, routing.DefaultSegmentLength, c)
	assert.Zero(t, r)

	withLength := graph.Segment{To: 2, Length: 50, HasLength: true}
	c, _ = m.SegmentCost(1, withLength, routing.NoRisk, routing.PreferenceSafest)
	assert.Equal(t, 50.0, c)
}

func TestWeightsValidate(t *testing.T) {
	assert.NoError(t, routing.DefaultWeights.Validate())
	assert.NoError(t, routing.LiveWeights.Validate())
	assert.Error(t, routing.Weights{Balanced: 2, Safest: 2}.Validate())
	assert.Error(t, routing.Weights{Balanced: 3, Safest: 2}.Validate())
	assert.Error(t, routing.Weights{Balanced: -1, Safest: 2}.Validate())
}

func TestParsePreference(t *testing.T) {
	assert.Equal(t, routing.PreferenceFastest, routing.ParsePreference("fastest"))
	assert.Equal(t, routing.PreferenceBalanced, routing.ParsePreference("balanced"))
	assert.Equal(t, routing.PreferenceSafest, routing.ParsePreference("safest"))
	assert.Equal(t, routing.PreferenceFastest, routing.ParsePreference("SAFEST"))
	assert.Equal(t, routing.PreferenceFastest, routing.ParsePreference(""))
}

func TestParseMode(t *testing.T) {
	m, err := routing.ParseMode("walk")
	assert.NoError(t, err)
	assert.Equal(t, routing.ModeWalk, m)

	for _, bad := range []string{"", "bike", "Drive", " drive"} {
		_, err := routing.ParseMode(bad)
		assert.ErrorIs(t, err, routing.ErrInvalidMode, bad)
	}
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, routing.RiskLevelHigh, routing.LevelFor(0.6))
	assert.Equal(t, routing.RiskLevelHigh, routing.LevelFor(1))
	assert.Equal(t, routing.RiskLevelMedium, routing.LevelFor(0.3))
	assert.Equal(t, routing.RiskLevelMedium, routing.LevelFor(0.59))
	assert.Equal(t, routing.RiskLevelLow, routing.LevelFor(0.29))
	assert.Equal(t, routing.RiskLevelLow, routing.LevelFor(0))
}

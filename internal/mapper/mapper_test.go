package mapper

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

func latencyConfig() Config {
	return Config{
		ID:      "latency-ms",
		Version: "1.0.0",
		Type:    KindNumerical,
		Numerical: &NumericalParams{
			FalsityPoint:       1000,
			IndeterminacyPoint: 500,
			TruthPoint:         100,
		},
	}
}

func severityConfig() Config {
	return Config{
		ID:      "severity",
		Version: "1.0.0",
		Type:    KindCategorical,
		Categorical: &CategoricalParams{
			Mappings: map[string]Point{
				"low":  {T: 0.9, I: 0.1},
				"high": {F: 0.8, I: 0.2},
			},
		},
	}
}

func flagConfig() Config {
	return Config{
		ID:      "tls-enabled",
		Version: "1.0.0",
		Type:    KindBoolean,
		Boolean: &BooleanParams{
			TrueMap:  Point{T: 1},
			FalseMap: Point{F: 0.7, I: 0.3},
		},
	}
}

func TestNew_SelectsVariant(t *testing.T) {
	tests := []struct {
		cfg  Config
		kind Kind
	}{
		{latencyConfig(), KindNumerical},
		{severityConfig(), KindCategorical},
		{flagConfig(), KindBoolean},
	}

	for _, tt := range tests {
		m, err := New(tt.cfg)
		require.NoError(t, err)
		assert.Equal(t, tt.kind, m.Kind())
		assert.Equal(t, tt.cfg.ID, m.ID())
	}
}

func TestNumericalMapper_Interpolation(t *testing.T) {
	m, err := New(latencyConfig(), WithClock(fixedClock))
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   float64
		t, i, f float64
	}{
		{"at truth point", 100, 1, 0, 0},
		{"at indeterminacy point", 500, 0, 1, 0},
		{"at falsity point", 1000, 0, 0, 1},
		{"between truth and indeterminacy", 300, 0.5, 0.5, 0},
		{"between indeterminacy and falsity", 750, 0, 0.5, 0.5},
		{"clamped below", 10, 1, 0, 0},
		{"clamped above", 5000, 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := m.Apply(Number(tt.input))
			require.NoError(t, err)
			assert.InDelta(t, tt.t, j.T(), 1e-12)
			assert.InDelta(t, tt.i, j.I(), 1e-12)
			assert.InDelta(t, tt.f, j.F(), 1e-12)
			require.Equal(t, 1, j.Len())
			assert.Equal(t, "latency-ms", j.FirstEntry().SourceID)
			assert.Equal(t, "2024-03-01T12:00:00Z", j.FirstEntry().Timestamp)
		})
	}
}

func TestNumericalMapper_NoClamp(t *testing.T) {
	cfg := latencyConfig()
	off := false
	cfg.Numerical.ClampToRange = &off

	m, err := New(cfg)
	require.NoError(t, err)

	_, err = m.Apply(Number(5000))
	assert.ErrorIs(t, err, ErrOutOfRange)

	j, err := m.Apply(Number(300))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, j.T(), 1e-12)
}

func TestCategoricalMapper(t *testing.T) {
	m, err := New(severityConfig())
	require.NoError(t, err)

	j, err := m.Apply(Category("low"))
	require.NoError(t, err)
	assert.Equal(t, 0.9, j.T())

	_, err = m.Apply(Category("medium"))
	assert.ErrorIs(t, err, ErrUnknownCategory)

	cfg := severityConfig()
	cfg.Categorical.Default = &Point{I: 1}
	withDefault, err := New(cfg)
	require.NoError(t, err)

	j, err = withDefault.Apply(Category("medium"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, j.I())
	assert.Contains(t, j.FirstEntry().DescriptionText(), "default")
}

func TestBooleanMapper(t *testing.T) {
	m, err := New(flagConfig())
	require.NoError(t, err)

	j, err := m.Apply(Bool(true))
	require.NoError(t, err)
	assert.Equal(t, 1.0, j.T())

	j, err = m.Apply(Bool(false))
	require.NoError(t, err)
	assert.Equal(t, 0.7, j.F())
}

func TestApply_RejectsWrongKind(t *testing.T) {
	m, err := New(flagConfig())
	require.NoError(t, err)

	_, err = m.Apply(Number(1))
	assert.ErrorIs(t, err, ErrValueType)
}

func TestNormalizeBool(t *testing.T) {
	truthy := []interface{}{true, 1, int64(1), 1.0, "true", "YES", " on ", "Enabled", "1"}
	for _, v := range truthy {
		b, err := NormalizeBool(v)
		require.NoError(t, err, "input %v", v)
		assert.True(t, b, "input %v", v)
	}

	falsy := []interface{}{false, 0, "false", "No", "off", "DISABLED", "0"}
	for _, v := range falsy {
		b, err := NormalizeBool(v)
		require.NoError(t, err, "input %v", v)
		assert.False(t, b, "input %v", v)
	}

	for _, v := range []interface{}{2, "maybe", 0.5, nil} {
		_, err := NormalizeBool(v)
		assert.True(t, errors.Is(err, ErrValueType), "input %v", v)
	}
}

func TestValueFor(t *testing.T) {
	v, err := ValueFor(KindNumerical, 42)
	require.NoError(t, err)
	assert.Equal(t, KindNumerical, v.Kind())

	_, err = ValueFor(KindNumerical, "42")
	assert.ErrorIs(t, err, ErrValueType)

	_, err = ValueFor(KindCategorical, 3)
	assert.ErrorIs(t, err, ErrValueType)

	v, err = ValueFor(KindBoolean, "yes")
	require.NoError(t, err)
	assert.Equal(t, "true", v.String())
}

func TestConfigIsCopied(t *testing.T) {
	cfg := severityConfig()
	m, err := New(cfg)
	require.NoError(t, err)

	cfg.Categorical.Mappings["low"] = Point{F: 1}
	got := m.Config()
	assert.Equal(t, 0.9, got.Categorical.Mappings["low"].T)

	got.Categorical.Mappings["low"] = Point{F: 1}
	assert.Equal(t, 0.9, m.Config().Categorical.Mappings["low"].T)
}

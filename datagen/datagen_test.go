package datagen

import (
	"testing"

	"github.com/machsight/machsight/scoring"
	"github.com/stretchr/testify/assert"
)

func TestGenerateSchema(t *testing.T) {
	data := Generate(50, 1)
	assert.Equal(t, 50, data.NumRows())
	for _, c := range scoring.RequiredFeatures() {
		assert.True(t, data.HasColumn(c), "missing feature column %s", c)
	}
	for _, c := range targetColumns {
		assert.True(t, data.HasColumn(c), "missing target column %s", c)
	}
}

func TestGenerateTargetRanges(t *testing.T) {
	data := Generate(200, 7)
	for _, c := range targetColumns {
		vals, err := data.Column(c)
		assert.NoError(t, err)
		for _, v := range vals {
			assert.GreaterOrEqual(t, v, 0.0, "column %s", c)
			assert.LessOrEqual(t, v, 100.0, "column %s", c)
		}
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	first := Generate(20, 42)
	second := Generate(20, 42)
	for i := 0; i < first.NumRows(); i++ {
		assert.Equal(t, first.Row(i), second.Row(i))
	}
	other := Generate(20, 43)
	assert.NotEqual(t, first.Row(0), other.Row(0))
}

func TestGenerateFeaturesPlausible(t *testing.T) {
	data := Generate(100, 3)
	speeds, err := data.Column("rotational_speed_rpm")
	assert.NoError(t, err)
	for _, v := range speeds {
		assert.Greater(t, v, 0.0)
	}
	wear, err := data.Column("tool_wear_min")
	assert.NoError(t, err)
	for _, v := range wear {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

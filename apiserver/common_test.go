package apiserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingFeaturesEmptyBatch(t *testing.T) {
	req := scoreRequest{}
	assert.Empty(t, req.missingFeatures([]string{"a", "b"}))
}

func TestMissingFeaturesChecksAllRecords(t *testing.T) {
	req := scoreRequest{Records: []map[string]float64{
		{"a": 1},
		{"b": 2},
	}}
	assert.Empty(t, req.missingFeatures([]string{"a", "b"}))
}

func TestMissingFeaturesKeepsRequiredOrder(t *testing.T) {
	req := scoreRequest{Records: []map[string]float64{
		{"b": 2},
		{"b": 3},
	}}
	assert.Equal(
		t,
		[]string{"a", "c"},
		req.missingFeatures([]string{"a", "b", "c"}),
	)
}

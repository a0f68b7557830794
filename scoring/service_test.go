package scoring

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/machsight/machsight/frame"
	"github.com/stretchr/testify/assert"
)

type fixedModel struct {
	value float64
	err   error
}

func (m fixedModel) PredictRow(features []float64) (float64, error) {
	return m.value, m.err
}

func (m fixedModel) Name() string {
	return "fixed"
}

type echoModel struct {
	featIdx int
}

func (m echoModel) PredictRow(features []float64) (float64, error) {
	return features[m.featIdx], nil
}

func (m echoModel) Name() string {
	return "echo"
}

func fixedBundle(target Target, value float64) TargetBundle {
	return TargetBundle{
		Target: target,
		Models: [NumEnsembleModels]Regressor{
			fixedModel{value: value},
			fixedModel{value: value},
			fixedModel{value: value},
			fixedModel{value: value},
		},
		Weights: Weights{0.25, 0.25, 0.25, 0.25},
	}
}

func identityScaler(features []string) *RobustScaler {
	sc := &RobustScaler{
		FeatureNames: features,
		Center:       make([]float64, len(features)),
		Scale:        make([]float64, len(features)),
	}
	for i := range sc.Scale {
		sc.Scale[i] = 1
	}
	return sc
}

func testService(t *testing.T, bundles ...TargetBundle) *Service {
	features := []string{"a", "b"}
	srv, err := NewService(NewBank(features, bundles), identityScaler(features))
	assert.NoError(t, err)
	return srv
}

func TestPredictMissingFeaturesNamed(t *testing.T) {
	srv := testService(t, fixedBundle(TargetFailureRisk, 50))
	data := frame.New([]string{"a"})
	data.AppendRecord(map[string]float64{"a": 1})
	_, err := srv.Predict(data)
	var missingErr MissingFeaturesError
	assert.True(t, errors.As(err, &missingErr))
	assert.Equal(t, []string{"b"}, missingErr.Missing)
	assert.Contains(t, err.Error(), "b")
}

func TestPredictRenamesOutputColumns(t *testing.T) {
	srv := testService(
		t,
		fixedBundle(TargetVibrationHealth, 10),
		fixedBundle(TargetThermalHealth, 20),
		fixedBundle(TargetEfficiencyIndex, 30),
		fixedBundle(TargetFailureRisk, 40),
	)
	data := frame.New([]string{"a", "b"})
	assert.NoError(t, data.AppendRow([]float64{1, 2}))
	ans, err := srv.Predict(data)
	assert.NoError(t, err)
	assert.Equal(
		t,
		[]string{"vibration_index", "thermal_index", "efficiency_index", "failure_risk"},
		ans.Columns(),
	)
	assert.Equal(t, []float64{10, 20, 30, 40}, ans.Row(0))
}

func TestPredictKeepsRowOrder(t *testing.T) {
	bundle := TargetBundle{
		Target: TargetFailureRisk,
		Models: [NumEnsembleModels]Regressor{
			echoModel{featIdx: 0},
			echoModel{featIdx: 0},
			echoModel{featIdx: 0},
			echoModel{featIdx: 0},
		},
		Weights: Weights{0.25, 0.25, 0.25, 0.25},
	}
	srv := testService(t, bundle)
	data := frame.New([]string{"a", "b"})
	for i := 0; i < 5; i++ {
		assert.NoError(t, data.AppendRow([]float64{float64(i * 10), 0}))
	}
	ans, err := srv.Predict(data)
	assert.NoError(t, err)
	for i := 0; i < 5; i++ {
		assert.Equal(t, float64(i*10), ans.Row(i)[0])
	}
}

func TestPredictDropsExtraColumns(t *testing.T) {
	srv := testService(t, fixedBundle(TargetFailureRisk, 50))
	data := frame.New([]string{"extra", "b", "a"})
	assert.NoError(t, data.AppendRow([]float64{999, 2, 1}))
	ans, err := srv.Predict(data)
	assert.NoError(t, err)
	assert.Equal(t, 1, ans.NumRows())
	assert.Equal(t, 50.0, ans.Row(0)[0])
}

func TestPredictImputesWithBatchMedian(t *testing.T) {
	bundle := TargetBundle{
		Target: TargetFailureRisk,
		Models: [NumEnsembleModels]Regressor{
			echoModel{featIdx: 0},
			echoModel{featIdx: 0},
			echoModel{featIdx: 0},
			echoModel{featIdx: 0},
		},
		Weights: Weights{0.25, 0.25, 0.25, 0.25},
	}
	srv := testService(t, bundle)
	data := frame.New([]string{"a", "b"})
	assert.NoError(t, data.AppendRow([]float64{10, 0}))
	assert.NoError(t, data.AppendRow([]float64{math.NaN(), 0}))
	assert.NoError(t, data.AppendRow([]float64{30, 0}))
	ans, err := srv.Predict(data)
	assert.NoError(t, err)
	assert.Equal(t, 20.0, ans.Row(1)[0])
}

func TestPredictSingleRowAllMissingImputesZero(t *testing.T) {
	bundle := TargetBundle{
		Target: TargetFailureRisk,
		Models: [NumEnsembleModels]Regressor{
			echoModel{featIdx: 0},
			echoModel{featIdx: 0},
			echoModel{featIdx: 0},
			echoModel{featIdx: 0},
		},
		Weights: Weights{0.25, 0.25, 0.25, 0.25},
	}
	srv := testService(t, bundle)
	data := frame.New([]string{"a", "b"})
	assert.NoError(t, data.AppendRow([]float64{math.Inf(1), 0}))
	ans, err := srv.Predict(data)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, ans.Row(0)[0])
}

func TestPredictDeterministic(t *testing.T) {
	srv := testService(t, fixedBundle(TargetFailureRisk, 42))
	mkData := func() *frame.Frame {
		data := frame.New([]string{"a", "b"})
		data.AppendRecord(map[string]float64{"a": 1, "b": 2})
		return data
	}
	first, err := srv.Predict(mkData())
	assert.NoError(t, err)
	second, err := srv.Predict(mkData())
	assert.NoError(t, err)
	assert.Equal(t, first.Row(0), second.Row(0))
}

func TestPredictWrapsModelFailure(t *testing.T) {
	modelErr := fmt.Errorf("bad input")
	bundle := TargetBundle{
		Target: TargetFailureRisk,
		Models: [NumEnsembleModels]Regressor{
			fixedModel{value: 1},
			fixedModel{err: modelErr},
			fixedModel{value: 1},
			fixedModel{value: 1},
		},
		Weights: Weights{0.25, 0.25, 0.25, 0.25},
	}
	srv := testService(t, bundle)
	data := frame.New([]string{"a", "b"})
	assert.NoError(t, data.AppendRow([]float64{1, 2}))
	_, err := srv.Predict(data)
	var infErr ModelInferenceError
	assert.True(t, errors.As(err, &infErr))
	assert.Equal(t, TargetFailureRisk, infErr.Target)
	assert.ErrorIs(t, err, modelErr)
}

func TestNewServiceRejectsFeatureMismatch(t *testing.T) {
	bank := NewBank([]string{"a", "b"}, []TargetBundle{fixedBundle(TargetFailureRisk, 1)})
	_, err := NewService(bank, identityScaler([]string{"a", "c"}))
	assert.Error(t, err)
}

package loan

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdata(name string) string { return filepath.Join("testdata", name) }

func mustPredictor(t *testing.T, model string) *Predictor {
	t.Helper()
	p, err := LoadPredictor(testdata(model), testdata("scale.json"))
	require.NoError(t, err)
	return p
}

func TestLoadArtifactsMissingFiles(t *testing.T) {
	_, err := LoadArtifacts(testdata("nope.json"), testdata("scale.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArtifactsUnavailable))

	_, err = LoadArtifacts(testdata("logistic.json"), testdata("nope.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArtifactsUnavailable))
}

func TestLoadArtifactsRejectsUnknownKind(t *testing.T) {
	_, err := LoadArtifacts(testdata("unknown_kind.json"), testdata("scale.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArtifactsUnavailable))
	assert.Contains(t, err.Error(), "random_forest")
}

func TestLoadArtifactsRejectsWidthDisagreement(t *testing.T) {
	_, err := LoadArtifacts(testdata("narrow.json"), testdata("scale.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArtifactsUnavailable))
}

func TestLoadArtifactsFingerprintStable(t *testing.T) {
	a, err := LoadArtifacts(testdata("logistic.json"), testdata("scale.json"))
	require.NoError(t, err)
	b, err := LoadArtifacts(testdata("logistic.json"), testdata("scale.json"))
	require.NoError(t, err)
	c, err := LoadArtifacts(testdata("tree.json"), testdata("scale.json"))
	require.NoError(t, err)

	assert.NotEmpty(t, a.Fingerprint)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestNewPredictorRequiresEncoderWidth(t *testing.T) {
	narrow := &Artifacts{
		Scaler:     &StandardScaler{Mean: []float64{0, 0, 0}, Scale: []float64{1, 1, 1}},
		Classifier: &LogisticRegression{Coef: []float64{1, 1, 1}, Threshold: 0.5},
	}
	_, err := NewPredictor(narrow)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	_, err = NewPredictor(nil)
	assert.True(t, errors.Is(err, ErrArtifactsUnavailable))
}

func TestPredictLogisticRegression(t *testing.T) {
	p := mustPredictor(t, "logistic.json")

	d, err := p.Predict(Encode(Defaults()))
	require.NoError(t, err)
	assert.Equal(t, Approved, d)

	risky := Defaults()
	risky.PreviousLoanDefaults = DefaultYes
	d, err = p.Predict(Encode(risky))
	require.NoError(t, err)
	assert.Equal(t, Denied, d)

	lowScore := Defaults()
	lowScore.CreditScore = 550
	d, err = p.Predict(Encode(lowScore))
	require.NoError(t, err)
	assert.Equal(t, Denied, d)
}

func TestPredictDecisionTree(t *testing.T) {
	p := mustPredictor(t, "tree.json")

	d, err := p.Predict(Encode(Defaults()))
	require.NoError(t, err)
	assert.Equal(t, Approved, d)

	lowScore := Defaults()
	lowScore.CreditScore = 580
	d, err = p.Predict(Encode(lowScore))
	require.NoError(t, err)
	assert.Equal(t, Denied, d)

	risky := Defaults()
	risky.PreviousLoanDefaults = DefaultYes
	d, err = p.Predict(Encode(risky))
	require.NoError(t, err)
	assert.Equal(t, Denied, d)
}

func TestPredictReportsClassifierFailure(t *testing.T) {
	p, err := NewPredictor(&Artifacts{
		Scaler:     &StandardScaler{Mean: make([]float64, FeatureWidth), Scale: make([]float64, FeatureWidth)},
		Classifier: &LogisticRegression{Coef: []float64{1, 2}, Threshold: 0.5},
	})
	require.NoError(t, err)

	_, err = p.Predict(Encode(Defaults()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestStandardScalerZeroScalePassesThrough(t *testing.T) {
	s := &StandardScaler{Mean: []float64{1, 2}, Scale: []float64{2, 0}}
	out, err := s.Transform([]float64{5, 7})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 5}, out)

	_, err = s.Transform([]float64{1})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestParseClassifierValidatesTree(t *testing.T) {
	_, err := ParseClassifier([]byte(`{"kind":"decision_tree","n_features":2,"children_left":[1],"children_right":[2],"feature":[0],"threshold":[0],"value":[[1,0]]}`))
	assert.Error(t, err)

	_, err = ParseClassifier([]byte(`{"kind":"decision_tree","n_features":2,"children_left":[],"children_right":[],"feature":[],"threshold":[],"value":[]}`))
	assert.Error(t, err)
}

func TestParseScalerRejectsMismatchedArrays(t *testing.T) {
	_, err := ParseScaler([]byte(`{"kind":"standard","mean":[1,2],"scale":[1]}`))
	assert.Error(t, err)

	_, err = ParseScaler([]byte(`{"kind":"minmax","min":[0],"max":[1]}`))
	assert.Error(t, err)
}

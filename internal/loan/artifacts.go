package loan

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ErrArtifactsUnavailable is returned when the model or scaler could not be loaded.
var ErrArtifactsUnavailable = errors.New("model or scaler unavailable")

// ErrShapeMismatch is returned when a vector does not match an artifact's width.
var ErrShapeMismatch = errors.New("feature width mismatch")

// Scaler is a fitted transform applied before classification.
type Scaler interface {
	Transform(x []float64) ([]float64, error)
	Width() int
}

// Classifier is a trained binary model returning class label 0 or 1.
type Classifier interface {
	Predict(x []float64) (int, error)
	Width() int
}

// StandardScaler computes (x - mean) / scale per column.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *StandardScaler) Width() int { return len(s.Mean) }

func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("%w: scaler expects %d features, got %d", ErrShapeMismatch, len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		scale := s.Scale[i]
		// constant columns were fitted with scale 0 and pass through centred
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}

// LogisticRegression predicts 1 when sigmoid(coef·x + intercept) >= threshold.
type LogisticRegression struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
	Threshold float64   `json:"threshold"`
}

func (m *LogisticRegression) Width() int { return len(m.Coef) }

func (m *LogisticRegression) Probability(x []float64) (float64, error) {
	if len(x) != len(m.Coef) {
		return 0, fmt.Errorf("%w: classifier expects %d features, got %d", ErrShapeMismatch, len(m.Coef), len(x))
	}
	z := m.Intercept
	for i, v := range x {
		z += m.Coef[i] * v
	}
	return 1 / (1 + math.Exp(-z)), nil
}

func (m *LogisticRegression) Predict(x []float64) (int, error) {
	p, err := m.Probability(x)
	if err != nil {
		return 0, err
	}
	if p >= m.Threshold {
		return 1, nil
	}
	return 0, nil
}

// DecisionTree is a binary tree in flat array form: node i splits on
// Feature[i] <= Threshold[i] going to ChildrenLeft[i], else ChildrenRight[i].
// A child index of -1 marks a leaf whose class counts are Value[i].
type DecisionTree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
	NFeatures     int         `json:"n_features"`
}

func (t *DecisionTree) Width() int { return t.NFeatures }

func (t *DecisionTree) Predict(x []float64) (int, error) {
	if len(x) != t.NFeatures {
		return 0, fmt.Errorf("%w: classifier expects %d features, got %d", ErrShapeMismatch, t.NFeatures, len(x))
	}
	node := 0
	for steps := 0; steps <= len(t.ChildrenLeft); steps++ {
		left := t.ChildrenLeft[node]
		if left < 0 {
			return argmax(t.Value[node]), nil
		}
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = left
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return 0, fmt.Errorf("decision tree does not terminate")
}

func (t *DecisionTree) validate() error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("decision tree has no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("decision tree arrays differ in length")
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l < 0 {
			if len(t.Value[i]) == 0 {
				return fmt.Errorf("leaf %d has no class counts", i)
			}
			continue
		}
		if l >= n || r < 0 || r >= n {
			return fmt.Errorf("node %d has child out of range", i)
		}
		if f := t.Feature[i]; f < 0 || f >= t.NFeatures {
			return fmt.Errorf("node %d splits on feature %d of %d", i, f, t.NFeatures)
		}
	}
	return nil
}

func argmax(v []float64) int {
	best := 0
	for i := range v {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

type artifactHeader struct {
	Kind string `json:"kind"`
}

// Artifacts is the loaded scaler/classifier pair.
type Artifacts struct {
	Scaler      Scaler
	Classifier  Classifier
	Fingerprint string
}

// LoadArtifacts reads both artifact files. Any failure wraps
// ErrArtifactsUnavailable.
func LoadArtifacts(modelPath, scalerPath string) (*Artifacts, error) {
	modelRaw, err := readArtifact(modelPath)
	if err != nil {
		return nil, err
	}
	scalerRaw, err := readArtifact(scalerPath)
	if err != nil {
		return nil, err
	}

	scaler, err := ParseScaler(scalerRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArtifactsUnavailable, scalerPath, err)
	}
	clf, err := ParseClassifier(modelRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArtifactsUnavailable, modelPath, err)
	}
	if scaler.Width() != clf.Width() {
		return nil, fmt.Errorf("%w: scaler width %d does not match classifier width %d",
			ErrArtifactsUnavailable, scaler.Width(), clf.Width())
	}

	h := xxhash.New()
	_, _ = h.Write(modelRaw)
	_, _ = h.Write(scalerRaw)
	return &Artifacts{
		Scaler:      scaler,
		Classifier:  clf,
		Fingerprint: strconv.FormatUint(h.Sum64(), 16),
	}, nil
}

func readArtifact(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrArtifactsUnavailable, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrArtifactsUnavailable, err)
	}
	return b, nil
}

func ParseScaler(raw []byte) (Scaler, error) {
	var hdr artifactHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return nil, err
	}
	switch hdr.Kind {
	case "standard", "":
		var s StandardScaler
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
			return nil, fmt.Errorf("scaler mean/scale must be non-empty and equal length")
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("unsupported scaler kind %q", hdr.Kind)
	}
}

func ParseClassifier(raw []byte) (Classifier, error) {
	var hdr artifactHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return nil, err
	}
	switch hdr.Kind {
	case "logistic_regression":
		m := LogisticRegression{Threshold: 0.5}
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		if len(m.Coef) == 0 {
			return nil, fmt.Errorf("logistic regression has no coefficients")
		}
		return &m, nil
	case "decision_tree":
		var t DecisionTree
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		if err := t.validate(); err != nil {
			return nil, err
		}
		return &t, nil
	default:
		return nil, fmt.Errorf("unsupported classifier kind %q", hdr.Kind)
	}
}

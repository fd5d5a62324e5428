package loan

import (
	"fmt"
)

type Decision string

const (
	Approved Decision = "approved"
	Denied   Decision = "denied"
)

func ParseDecision(s string) (Decision, bool) {
	switch Decision(s) {
	case Approved:
		return Approved, true
	case Denied:
		return Denied, true
	}
	return "", false
}

// Predictor runs the loaded artifacts. It is built once at startup and only
// read afterwards, so one value is shared by all requests.
type Predictor struct {
	artifacts *Artifacts
}

func NewPredictor(a *Artifacts) (*Predictor, error) {
	if a == nil || a.Scaler == nil || a.Classifier == nil {
		return nil, ErrArtifactsUnavailable
	}
	if a.Scaler.Width() != FeatureWidth {
		return nil, fmt.Errorf("%w: artifacts expect %d features, encoder produces %d",
			ErrShapeMismatch, a.Scaler.Width(), FeatureWidth)
	}
	return &Predictor{artifacts: a}, nil
}

// LoadPredictor loads the artifact files and builds a Predictor from them.
func LoadPredictor(modelPath, scalerPath string) (*Predictor, error) {
	a, err := LoadArtifacts(modelPath, scalerPath)
	if err != nil {
		return nil, err
	}
	return NewPredictor(a)
}

func (p *Predictor) Fingerprint() string { return p.artifacts.Fingerprint }

// Predict scales v and classifies it; class 1 means approved.
func (p *Predictor) Predict(v FeatureVector) (Decision, error) {
	scaled, err := p.artifacts.Scaler.Transform(v.Slice())
	if err != nil {
		return "", fmt.Errorf("scale features: %w", err)
	}
	label, err := p.artifacts.Classifier.Predict(scaled)
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	if label == 1 {
		return Approved, nil
	}
	return Denied, nil
}

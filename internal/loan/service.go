package loan

import (
	"context"
	"encoding/binary"
	"log"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"genie-backend/internal/store"
)

type AuditLog interface {
	Save(ctx context.Context, rec store.PredictionRecord) error
}

// Evaluation is the outcome of one prediction request.
type Evaluation struct {
	Decision Decision
	Features FeatureVector
	Warnings []string
	Cached   bool
}

// Service validates, encodes and predicts. Cache and audit are optional.
type Service struct {
	predictor *Predictor
	cache     store.PredictionCache
	audit     AuditLog
}

// NewService accepts a nil predictor: the service then answers every
// prediction with ErrArtifactsUnavailable but can still encode profiles.
func NewService(predictor *Predictor, cache store.PredictionCache, audit AuditLog) *Service {
	return &Service{predictor: predictor, cache: cache, audit: audit}
}

func (s *Service) Available() bool { return s.predictor != nil }

// Encode validates p and returns its vector with advisory warnings.
func (s *Service) Encode(p ApplicantProfile) (FeatureVector, []string, error) {
	if err := p.Validate(); err != nil {
		return FeatureVector{}, nil, err
	}
	return Encode(p), Warnings(p), nil
}

func (s *Service) Evaluate(ctx context.Context, p ApplicantProfile) (Evaluation, error) {
	if s.predictor == nil {
		return Evaluation{}, ErrArtifactsUnavailable
	}
	v, warnings, err := s.Encode(p)
	if err != nil {
		return Evaluation{}, err
	}
	ev := Evaluation{Features: v, Warnings: warnings}

	key := s.cacheKey(v)
	if s.cache != nil {
		if val, ok := s.cache.Get(ctx, key); ok {
			if d, ok := ParseDecision(val); ok {
				ev.Decision = d
				ev.Cached = true
				s.record(ctx, ev)
				return ev, nil
			}
		}
	}

	d, err := s.predictor.Predict(v)
	if err != nil {
		return Evaluation{}, err
	}
	ev.Decision = d

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, string(d)); err != nil {
			log.Printf("[loan] cache set failed: %v", err)
		}
	}
	s.record(ctx, ev)
	return ev, nil
}

// record writes the audit row; a failure is logged and never fails the request.
func (s *Service) record(ctx context.Context, ev Evaluation) {
	if s.audit == nil {
		return
	}
	rec := store.PredictionRecord{
		Decision:    string(ev.Decision),
		Features:    ev.Features.Slice(),
		Warnings:    ev.Warnings,
		Fingerprint: s.predictor.Fingerprint(),
		Cached:      ev.Cached,
	}
	if err := s.audit.Save(ctx, rec); err != nil {
		log.Printf("[loan] audit save failed: %v", err)
	}
}

// cacheKey binds the vector to the loaded artifacts so a retrained model
// never serves stale decisions.
func (s *Service) cacheKey(v FeatureVector) string {
	h := xxhash.New()
	_, _ = h.WriteString(s.predictor.Fingerprint())
	var buf [8]byte
	for _, f := range v {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = h.Write(buf[:])
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

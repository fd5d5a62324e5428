package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"genie-backend/internal/config"
	"genie-backend/internal/loan"
	"genie-backend/internal/store"
	"genie-backend/internal/types"
)

// PredictionHistory lists audited decisions.
type PredictionHistory interface {
	Recent(ctx context.Context, limit int) ([]store.PredictionRecord, error)
}

// LoanServer serves the loan approval predictor.
type LoanServer struct {
	router  *chi.Mux
	svc     *loan.Service
	history PredictionHistory
}

// NewLoanServer wires the handlers; history may be nil when no audit
// database is configured.
func NewLoanServer(cfg config.Config, svc *loan.Service, history PredictionHistory) *LoanServer {
	s := &LoanServer{
		router:  newRouter(cfg.AllowedOrigin),
		svc:     svc,
		history: history,
	}
	s.routes()
	return s
}

func (s *LoanServer) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/loan/form", s.handleForm)
	s.router.Post("/api/loan/encode", s.handleEncode)
	s.router.Post("/api/loan/predict", s.handlePredict)
	s.router.Get("/api/loan/predictions", s.handlePredictions)
}

func (s *LoanServer) Router() http.Handler { return s.router }

func (s *LoanServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	loaded := s.svc.Available()
	writeJSON(w, http.StatusOK, types.HealthResponse{Status: "ok", ModelLoaded: &loaded})
}

func (s *LoanServer) handleForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.FormResponse{Fields: formFields()})
}

func (s *LoanServer) handleEncode(w http.ResponseWriter, r *http.Request) {
	profile, ok := decodeProfile(w, r)
	if !ok {
		return
	}
	v, warnings, err := s.svc.Encode(profile)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.EncodeResponse{Features: v.Slice(), Warnings: nonNil(warnings)})
}

func (s *LoanServer) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !s.svc.Available() {
		writeError(w, http.StatusServiceUnavailable, "model unavailable: model or scaler file could not be loaded")
		return
	}
	profile, ok := decodeProfile(w, r)
	if !ok {
		return
	}
	ev, err := s.svc.Evaluate(r.Context(), profile)
	switch {
	case err == nil:
	case errors.Is(err, loan.ErrInvalidProfile):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, loan.ErrArtifactsUnavailable):
		writeError(w, http.StatusServiceUnavailable, "model unavailable")
		return
	default:
		log.Printf("[loan] prediction failed: %v", err)
		writeError(w, http.StatusInternalServerError, "prediction failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.PredictResponse{
		Decision: string(ev.Decision),
		Approved: ev.Decision == loan.Approved,
		Warnings: nonNil(ev.Warnings),
		Cached:   ev.Cached,
	})
}

func (s *LoanServer) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "prediction audit log not configured")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	recs, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("[loan] list predictions: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list predictions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": recs})
}

func decodeProfile(w http.ResponseWriter, r *http.Request) (loan.ApplicantProfile, bool) {
	var p loan.ApplicantProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, loan.ErrInvalidProfile) {
			msg = err.Error()
		}
		writeError(w, http.StatusBadRequest, msg)
		return loan.ApplicantProfile{}, false
	}
	return p, true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func labels[T interface{ String() string }](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

func formFields() []types.FormField {
	d := loan.Defaults()
	number := func(name, label string, def any) types.FormField {
		r := loan.Ranges[name]
		lo := r.Min
		return types.FormField{Name: name, Label: label, Type: "number", Min: &lo, Max: r.Max, Default: def}
	}
	choice := func(name, label string, options []string, def string) types.FormField {
		return types.FormField{Name: name, Label: label, Type: "select", Options: options, Default: def}
	}
	return []types.FormField{
		number("age", "Person Age", d.Age),
		choice("gender", "Person Gender", labels(loan.Genders), d.Gender.String()),
		choice("education", "Education", labels(loan.Educations), d.Education.String()),
		number("income", "Annual Income ($)", d.Income),
		number("employmentExperience", "Employment Experience (years)", d.EmploymentExperience),
		choice("homeOwnership", "Home Ownership", labels(loan.HomeOwnerships), d.HomeOwnership.String()),
		number("loanAmount", "Loan Amount ($)", d.LoanAmount),
		choice("loanIntent", "Loan Intent", labels(loan.Intents), d.LoanIntent.String()),
		number("interestRate", "Loan Interest Rate (%)", d.InterestRate),
		number("loanPercentIncome", "Loan % of Income", d.LoanPercentIncome),
		number("creditHistoryLength", "Credit History Length (years)", d.CreditHistoryLength),
		number("creditScore", "Credit Score", d.CreditScore),
		choice("previousLoanDefaults", "Previous Loan Defaults", labels(loan.PreviousDefaults), d.PreviousLoanDefaults.String()),
	}
}

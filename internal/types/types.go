package types

import "genie-backend/internal/store"

type ChatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID string `json:"sessionId"`
	Reply     string `json:"reply"`
}

type HistoryResponse struct {
	SessionID string          `json:"sessionId"`
	Messages  []store.Message `json:"messages"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded *bool  `json:"modelLoaded,omitempty"`
}

type EncodeResponse struct {
	Features []float64 `json:"features"`
	Warnings []string  `json:"warnings"`
}

type PredictResponse struct {
	Decision string   `json:"decision"`
	Approved bool     `json:"approved"`
	Warnings []string `json:"warnings"`
	Cached   bool     `json:"cached"`
}

// FormField describes one applicant input for a client rendering the form.
type FormField struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Type    string   `json:"type"` // number | select
	Options []string `json:"options,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Default any      `json:"default"`
}

type FormResponse struct {
	Fields []FormField `json:"fields"`
}

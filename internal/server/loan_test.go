package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genie-backend/internal/config"
	"genie-backend/internal/loan"
	"genie-backend/internal/store"
	"genie-backend/internal/types"
)

type fakeHistory struct {
	recs  []store.PredictionRecord
	err   error
	limit int
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]store.PredictionRecord, error) {
	f.limit = limit
	return f.recs, f.err
}

func newTestLoanServer(t *testing.T, withModel bool, history PredictionHistory) *LoanServer {
	t.Helper()
	var pred *loan.Predictor
	if withModel {
		var err error
		pred, err = loan.LoadPredictor("../loan/testdata/logistic.json", "../loan/testdata/scale.json")
		require.NoError(t, err)
	}
	svc := loan.NewService(pred, store.NewMemoryCache(time.Minute), nil)
	return NewLoanServer(config.Config{AllowedOrigin: "*"}, svc, history)
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPredictApproved(t *testing.T) {
	s := newTestLoanServer(t, true, nil)

	w := postJSON(s.Router(), "/api/loan/predict", `{"age": 35, "creditScore": 720}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.PredictResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "approved", resp.Decision)
	assert.True(t, resp.Approved)
	assert.Empty(t, resp.Warnings)
	assert.False(t, resp.Cached)
}

func TestPredictDeniedWithWarning(t *testing.T) {
	s := newTestLoanServer(t, true, nil)
	body := `{"income": 5000, "loanAmount": 10000, "previousLoanDefaults": "Yes"}`

	w := postJSON(s.Router(), "/api/loan/predict", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.PredictResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "denied", resp.Decision)
	assert.False(t, resp.Approved)
	assert.Equal(t, []string{loan.WarnLoanExceedsIncome}, resp.Warnings)

	w = postJSON(s.Router(), "/api/loan/predict", body)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Cached)
}

func TestPredictWithoutArtifacts(t *testing.T) {
	s := newTestLoanServer(t, false, nil)

	w := postJSON(s.Router(), "/api/loan/predict", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "model unavailable")

	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.JSONEq(t, `{"status":"ok","modelLoaded":false}`, w.Body.String())
}

func TestPredictInvalidInput(t *testing.T) {
	s := newTestLoanServer(t, true, nil)

	w := postJSON(s.Router(), "/api/loan/predict", `{"creditScore": 900}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "creditScore")

	w = postJSON(s.Router(), "/api/loan/predict", `{"gender": "Robot"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Robot")

	w = postJSON(s.Router(), "/api/loan/predict", `{"age": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid JSON body")
}

func TestPredictReportsModelFailure(t *testing.T) {
	pred, err := loan.NewPredictor(&loan.Artifacts{
		Scaler:     &loan.StandardScaler{Mean: make([]float64, loan.FeatureWidth), Scale: make([]float64, loan.FeatureWidth)},
		Classifier: &loan.LogisticRegression{Coef: []float64{1}, Threshold: 0.5},
	})
	require.NoError(t, err)
	s := NewLoanServer(config.Config{}, loan.NewService(pred, nil, nil), nil)

	w := postJSON(s.Router(), "/api/loan/predict", `{}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "prediction failed")

	// the server keeps serving
	w = postJSON(s.Router(), "/api/loan/encode", `{}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEncodeEndpoint(t *testing.T) {
	s := newTestLoanServer(t, false, nil)
	body := `{"gender":"Female","education":"Graduate","homeOwnership":"Rent","loanIntent":"Business","previousLoanDefaults":"Yes","interestRate":5}`

	w := postJSON(s.Router(), "/api/loan/encode", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.EncodeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Features, loan.FeatureWidth)
	assert.Equal(t, []float64{1, 2, 1, 1, 1}, []float64{resp.Features[1], resp.Features[2], resp.Features[5], resp.Features[7], resp.Features[12]})
	assert.InDelta(t, 0.05, resp.Features[8], 1e-12)
	assert.Equal(t, 0.0, resp.Features[13])
	assert.NotNil(t, resp.Warnings)
}

func TestFormCatalogue(t *testing.T) {
	s := newTestLoanServer(t, false, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/loan/form", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.FormResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Fields, 13)
	assert.Equal(t, "age", resp.Fields[0].Name)
	assert.Equal(t, 18.0, *resp.Fields[0].Min)
	assert.Equal(t, 100.0, *resp.Fields[0].Max)
	assert.Equal(t, []string{"High School", "Undergraduate", "Graduate", "Postgraduate"}, resp.Fields[2].Options)
	assert.Nil(t, resp.Fields[3].Max)
}

func TestPredictionsEndpoint(t *testing.T) {
	s := newTestLoanServer(t, true, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/loan/predictions", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	hist := &fakeHistory{recs: []store.PredictionRecord{{ID: 7, Decision: "approved"}}}
	s = newTestLoanServer(t, true, hist)
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/loan/predictions?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, hist.limit)
	assert.Contains(t, w.Body.String(), `"decision":"approved"`)

	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/loan/predictions?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	hist.err = errors.New("db down")
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/loan/predictions", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

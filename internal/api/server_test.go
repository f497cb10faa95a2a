package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-server/internal/domain"
	"github.com/pharmaguard-server/internal/service"
)

func newTestServer() *Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	kb := domain.DefaultKnowledgeBase()
	analyzer := service.NewAnalyzerService(
		logger,
		kb,
		service.NewVCFExtractorService(logger, kb),
		service.NewPhenotypeInferencerService(logger, kb),
		service.NewRiskClassifierService(logger, kb),
		service.NewExplainerService(logger, nil, nil, 0),
		nil,
	)

	cfg := &domain.Config{
		Server: domain.ServerConfig{
			Host:         "127.0.0.1",
			Port:         0,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Logging: domain.LoggingConfig{Level: "error"},
	}

	return NewServer(cfg, logger, analyzer, nil)
}

const testVCF = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tSAMPLE1\n" +
	"10\t94781859\trs4244285\tG\tA\t100\tPASS\tGENE=CYP2C19;STAR=*2\tGT\t0/1\n"

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestAnalyzeEndpoint(t *testing.T) {
	server := newTestServer()

	body, err := json.Marshal(map[string]interface{}{
		"vcf_content": testVCF,
		"patient_id":  "PT-001",
		"drugs":       []string{"clopidogrel", "aspirin"},
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	server.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Results   []domain.AnalysisResult `json:"results"`
		Requested int                     `json:"requested"`
		Analyzed  int                     `json:"analyzed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, 2, response.Requested)
	assert.Equal(t, 1, response.Analyzed)
	require.Len(t, response.Results, 1)
	assert.Equal(t, "CLOPIDOGREL", response.Results[0].Drug)
	assert.Equal(t, domain.RiskAdjustDose, response.Results[0].RiskAssessment.RiskLabel)
}

func TestAnalyzeEndpoint_InvalidVCF(t *testing.T) {
	server := newTestServer()

	body, err := json.Marshal(map[string]interface{}{
		"vcf_content": "not a vcf",
		"drugs":       []string{"clopidogrel"},
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAnalyzeEndpoint_MissingBodyFields(t *testing.T) {
	server := newTestServer()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDrugsEndpoint(t *testing.T) {
	server := newTestServer()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/drugs", nil)
	server.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Drugs []string `json:"drugs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response.Drugs, "CLOPIDOGREL")
	assert.Len(t, response.Drugs, 6)
}

func TestGetAnalysis_NoStoreConfigured(t *testing.T) {
	server := newTestServer()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/some-id", nil)
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	server := newTestServer()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.router.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	server.router.ServeHTTP(w, req)
	assert.Equal(t, "caller-supplied", w.Header().Get("X-Request-ID"))
}

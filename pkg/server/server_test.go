package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beatlab/structuralmap/pkg/model"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeHandlerRequiresFileParam(t *testing.T) {
	e := newEcho(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeHandlerRejectsWithoutDecoder(t *testing.T) {
	e := newEcho(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analyze?file=track.mp3", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestAnalyzeHandlerRunsPipelineOverDecodedSamples(t *testing.T) {
	decode := func(path string) (model.PCMInput, error) {
		return silence(22050, 6.0), nil
	}
	e := newEcho(decode)

	req := httptest.NewRequest(http.MethodGet, "/api/analyze?file=track.mp3", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "sections")
}

func silence(sampleRate int, seconds float64) model.PCMInput {
	n := int(float64(sampleRate) * seconds)
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = 0 // constant silence is enough to exercise the handler's wiring
	}
	return model.PCMInput{Samples: samples, SampleRate: sampleRate, DurationSeconds: seconds}
}

package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LaCarte/internal/config"
)

func norm(vec []float32) float64 {
	var s float64
	for _, v := range vec {
		s += float64(v) * float64(v)
	}
	return math.Sqrt(s)
}

func TestHuggingFaceEmbedder_SentenceVector(t *testing.T) {
	t.Parallel()

	var got featureExtractionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sentence-transformers/all-MiniLM-L6-v2/pipeline/feature-extraction", r.URL.Path)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`[0.6, 0.8]`))
	}))
	defer server.Close()

	e := NewHuggingFaceEmbedder(server.URL, "sentence-transformers/all-MiniLM-L6-v2", "hf_test", time.Second)
	vec, err := e.Embed(context.Background(), "cats humor", DefaultOptions)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, vec, 1e-6)
	assert.Equal(t, "cats humor", got.Inputs)
	assert.True(t, got.Normalize)
}

func TestHuggingFaceEmbedder_TokenVectorsArePooled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[[1, 0], [3, 0]]]`))
	}))
	defer server.Close()

	e := NewHuggingFaceEmbedder(server.URL, "m", "", time.Second)
	vec, err := e.Embed(context.Background(), "x", DefaultOptions)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1, 0}, vec, 1e-6)
	assert.InDelta(t, 1.0, norm(vec), 1e-6)
}

func TestHuggingFaceEmbedder_ErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	e := NewHuggingFaceEmbedder(server.URL, "m", "", time.Second)
	_, err := e.Embed(context.Background(), "x", DefaultOptions)
	assert.ErrorContains(t, err, "503")
}

func TestOpenAIEmbedder(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[{"object":"embedding","index":0,"embedding":[3,4]}]}`))
	}))
	defer server.Close()

	e := NewOpenAIEmbedder(server.URL+"/v1", "", "sk", time.Second)
	vec, err := e.Embed(context.Background(), "tags", DefaultOptions)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, vec, 1e-6)
}

func TestNewFromConfig_UnknownProvider(t *testing.T) {
	t.Parallel()

	lazy := NewFromConfig(config.EmbeddingConfig{Provider: "onnx"})
	_, err := lazy.Get(context.Background())
	assert.ErrorContains(t, err, "unknown embedding provider")
}

func TestMeanPool(t *testing.T) {
	t.Parallel()

	vec, err := meanPool([][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3}, vec)

	_, err = meanPool([][]float32{{1, 2}, {3}})
	assert.Error(t, err)

	_, err = meanPool(nil)
	assert.Error(t, err)
}

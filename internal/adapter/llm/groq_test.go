package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgrag/config"
)

func TestNewRequiresAPIKey(t *testing.T) {
	cfg := config.DefaultConfig().LLM
	cfg.APIKeyEnv = "ESGRAG_TEST_MISSING_KEY"

	_, err := New(cfg)
	assert.ErrorContains(t, err, "ESGRAG_TEST_MISSING_KEY")
}

func TestGenerate(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content any `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-3.1-8b-instant", req.Model)
		if len(req.Messages) > 0 {
			raw, _ := json.Marshal(req.Messages[0].Content)
			gotPrompt = string(raw)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"llama-3.1-8b-instant",` +
			`"choices":[{"index":0,"message":{"role":"assistant","content":"  Emissions fell 12%.  "},"finish_reason":"stop"}],` +
			`"usage":{"prompt_tokens":5,"completion_tokens":4,"total_tokens":9}}`))
	}))
	defer srv.Close()

	t.Setenv("ESGRAG_TEST_KEY", "test-key")
	cfg := config.DefaultConfig().LLM
	cfg.APIKeyEnv = "ESGRAG_TEST_KEY"
	cfg.BaseURL = srv.URL

	chat, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "llama-3.1-8b-instant", chat.ModelName())

	out, err := chat.Generate(context.Background(), "What happened to emissions?", 150)
	require.NoError(t, err)
	assert.Equal(t, "Emissions fell 12%.", out)
	assert.Contains(t, gotPrompt, "What happened to emissions?")
}

package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"founder-connect/internal/infrastructure/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_SendsChatCompletion(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  A bio.  "}}]}`))
	}))
	defer srv.Close()

	c, err := New(Options{Provider: "groq", BaseURL: srv.URL, APIKey: "key"})
	require.NoError(t, err)

	out, err := c.Generate(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, "A bio.", out)
	assert.Equal(t, "llama-3.1-8b-instant", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user prompt", got.Messages[1].Content)
}

func TestGenerate_StatusErrorIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	c, err := New(Options{Provider: "openai", BaseURL: srv.URL, APIKey: "key"})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "", "p")
	require.Error(t, err)
	assert.Equal(t, ai.FailureAuth, ai.Classify(err))
}

func TestGenerate_TimeoutIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c, err := New(Options{Provider: "openrouter", BaseURL: srv.URL, APIKey: "key", Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "", "p")
	require.Error(t, err)
	assert.Equal(t, ai.FailureTimeout, ai.Classify(err))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{Provider: "mystery", APIKey: "k"})
	assert.Error(t, err)

	_, err = New(Options{Provider: "openai"})
	assert.Error(t, err)

	c, err := New(Options{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", c.Model())
}

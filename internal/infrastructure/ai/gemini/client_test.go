package gemini

import (
	"context"
	"errors"
	"testing"

	"founder-connect/internal/infrastructure/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	model  string
	config *genai.GenerateContentConfig
	prompt string

	resp *genai.GenerateContentResponse
	err  error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: genai.RoleModel}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestGenerate_JoinsPartsAndSetsSystemInstruction(t *testing.T) {
	f := &fakeModels{resp: textResponse(" first ", "", "second")}
	g := newGenerator(f, "")

	out, err := g.Generate(context.Background(), "be brief", "write a bio")
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", out)
	assert.Equal(t, defaultModel, f.model)
	assert.Equal(t, "write a bio", f.prompt)
	require.NotNil(t, f.config)
	require.NotNil(t, f.config.SystemInstruction)
	assert.Equal(t, "be brief", f.config.SystemInstruction.Parts[0].Text)
}

func TestGenerate_NoSystemInstruction(t *testing.T) {
	f := &fakeModels{resp: textResponse("ok")}
	_, err := newGenerator(f, "gemini-custom").Generate(context.Background(), " ", "p")
	require.NoError(t, err)
	assert.Nil(t, f.config)
	assert.Equal(t, "gemini-custom", f.model)
}

func TestGenerate_Errors(t *testing.T) {
	_, err := newGenerator(&fakeModels{}, "").Generate(context.Background(), "", "  ")
	assert.Error(t, err)

	_, err = newGenerator(&fakeModels{resp: textResponse("")}, "").Generate(context.Background(), "", "p")
	assert.EqualError(t, err, "gemini api returned empty response")

	f := &fakeModels{err: genai.APIError{Code: 429, Message: "Resource exhausted"}}
	_, err = newGenerator(f, "").Generate(context.Background(), "", "p")
	var se *ai.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 429, se.StatusCode)
	assert.Equal(t, ai.FailureRateLimit, ai.Classify(err))
}

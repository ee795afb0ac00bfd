package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/automation-hub/internal/config"
	"github.com/spec-kit/automation-hub/internal/domain"
	apperrors "github.com/spec-kit/automation-hub/pkg/util"
)

func geminiStub(t *testing.T, replyText string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, ":generateContent")

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Contains(t, payload, "contents")

		response := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{"text": replyText}},
				},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
}

func newAnalysisFixture(t *testing.T, baseURL string, enabled bool) (*AnalysisService, *fakeRequestRepo, *fakeAttachmentRepo) {
	t.Helper()
	requests := newFakeRequestRepo()
	attachments := newFakeAttachmentRepo()
	service := NewAnalysisService(AnalysisDependencies{
		Config: config.AIConfig{
			Enabled: enabled,
			APIKey:  "test-key",
			Model:   "gemini-2.0-flash-exp",
			BaseURL: baseURL,
		},
		Requests:    requests,
		Attachments: attachments,
	})
	return service, requests, attachments
}

func TestAnalyzeStoresResult(t *testing.T) {
	fenced := "```json\n{\"complexityScore\": 6, \"suggestedNamespaces\": [\"Autodesk.Revit.DB\"], " +
		"\"implementationStrategy\": \"Iterate rooms in a transaction.\", \"pseudoCode\": \"for room in rooms: ...\"}\n```"
	server := geminiStub(t, fenced)
	defer server.Close()

	service, requests, _ := newAnalysisFixture(t, server.URL, true)
	request := &domain.AutomationRequest{Title: "Renumber rooms", Description: "Renumber by level", Status: domain.RequestStatusPending}
	require.NoError(t, requests.Create(context.Background(), request))

	result, err := service.Analyze(context.Background(), request.ID)
	require.NoError(t, err)

	assert.Equal(t, 6, result.ComplexityScore)
	assert.Equal(t, []string{"Autodesk.Revit.DB"}, result.SuggestedNamespaces)

	stored, err := requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AIAnalysis)
	assert.NotContains(t, *stored.AIAnalysis, "```")

	var roundTrip AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(*stored.AIAnalysis), &roundTrip))
	assert.Equal(t, result.ComplexityScore, roundTrip.ComplexityScore)
}

func TestAnalyzeDisabled(t *testing.T) {
	service, requests, _ := newAnalysisFixture(t, "http://unused", false)
	request := &domain.AutomationRequest{Title: "Anything"}
	require.NoError(t, requests.Create(context.Background(), request))

	_, err := service.Analyze(context.Background(), request.ID)
	require.Error(t, err)
	assert.Equal(t, "AI_DISABLED", apperrors.ToDomainError(err).Code)

	assert.False(t, service.Enabled())
	assert.Equal(t, "gemini-2.0-flash-exp", service.Model())
}

func TestAnalyzeUnknownRequest(t *testing.T) {
	service, _, _ := newAnalysisFixture(t, "http://unused", true)

	_, err := service.Analyze(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestAnalyzeUnparseableReplyLeavesRequestUntouched(t *testing.T) {
	server := geminiStub(t, "sorry, I cannot help with that")
	defer server.Close()

	service, requests, _ := newAnalysisFixture(t, server.URL, true)
	request := &domain.AutomationRequest{Title: "Odd reply"}
	require.NoError(t, requests.Create(context.Background(), request))

	_, err := service.Analyze(context.Background(), request.ID)
	require.Error(t, err)
	assert.Equal(t, "AI_ANALYSIS_FAILED", apperrors.ToDomainError(err).Code)

	stored, err := requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AIAnalysis)
}

func TestStripMarkdownFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripMarkdownFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripMarkdownFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripMarkdownFences(`{"a":1}`))
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/automation-hub/internal/config"
	"github.com/spec-kit/automation-hub/internal/domain"
	"github.com/spec-kit/automation-hub/internal/repository"
	apperrors "github.com/spec-kit/automation-hub/pkg/util"
)

// AnalysisResult is the structured assessment produced for a request.
type AnalysisResult struct {
	ComplexityScore        int      `json:"complexityScore"`
	SuggestedNamespaces    []string `json:"suggestedNamespaces"`
	ImplementationStrategy string   `json:"implementationStrategy"`
	PseudoCode             string   `json:"pseudoCode"`
}

// AnalysisDependencies bundles analysis service collaborators.
type AnalysisDependencies struct {
	Config      config.AIConfig
	Requests    repository.RequestRepository
	Attachments repository.AttachmentRepository
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// AnalysisService calls the Gemini generateContent API to produce a
// feasibility assessment for an automation request and stores the result
// on the request. Failures leave the request untouched.
type AnalysisService struct {
	cfg         config.AIConfig
	requests    repository.RequestRepository
	attachments repository.AttachmentRepository
	client      *http.Client
	logger      *zap.Logger
	clock       func() int64
}

// NewAnalysisService wires the service.
func NewAnalysisService(deps AnalysisDependencies) *AnalysisService {
	client := deps.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisService{
		cfg:         deps.Config,
		requests:    deps.Requests,
		attachments: deps.Attachments,
		client:      client,
		logger:      logger,
		clock:       nowMillis,
	}
}

// Enabled reports whether the integration is configured.
func (s *AnalysisService) Enabled() bool {
	return s.cfg.Enabled && s.cfg.APIKey != ""
}

// Model returns the configured model identifier.
func (s *AnalysisService) Model() string {
	return s.cfg.Model
}

// Analyze runs the model against the request description plus any image
// attachments and persists the structured result as the request's
// aiAnalysis field.
func (s *AnalysisService) Analyze(ctx context.Context, requestID int64) (*AnalysisResult, error) {
	if !s.Enabled() {
		return nil, apperrors.NewDomainError("AI_DISABLED", "AI analysis is not enabled", http.StatusServiceUnavailable, nil)
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if apperrors.ToDomainError(err).Code == "NOT_FOUND" {
			return nil, apperrors.NewNotFound("Request", map[string]any{"id": requestID})
		}
		return nil, apperrors.MapError(err)
	}
	attachments, err := s.attachments.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	raw, err := s.generate(ctx, request, attachments)
	if err != nil {
		s.logger.Error("ai analysis failed", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, apperrors.NewDomainError("AI_ANALYSIS_FAILED", "AI analysis failed", http.StatusBadGateway, nil)
	}

	cleaned := StripMarkdownFences(raw)
	var result AnalysisResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		s.logger.Error("ai analysis returned unparseable payload", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, apperrors.NewDomainError("AI_ANALYSIS_FAILED", "AI analysis failed", http.StatusBadGateway, nil)
	}

	request.AIAnalysis = &cleaned
	request.UpdatedAt = s.clock()
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("ai analysis stored", zap.Int64("request_id", requestID), zap.Int("complexity", result.ComplexityScore))
	return &result, nil
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (s *AnalysisService) generate(ctx context.Context, request *domain.AutomationRequest, attachments []domain.Attachment) (string, error) {
	parts := []geminiPart{{Text: buildAnalysisPrompt(request)}}
	for _, attachment := range attachments {
		if !strings.HasPrefix(attachment.Type, "image/") {
			continue
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: attachment.Type,
			Data:     stripDataURIPrefix(attachment.Data),
		}})
	}

	body := geminiRequest{Contents: []geminiContent{{Parts: parts}}}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.Model, s.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model endpoint returned %d", resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("model returned no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func buildAnalysisPrompt(request *domain.AutomationRequest) string {
	var sb strings.Builder
	sb.WriteString("You are a senior Revit API developer reviewing an automation request.\n")
	sb.WriteString("Assess feasibility and respond with a single JSON object containing exactly these keys:\n")
	sb.WriteString(`"complexityScore" (integer 1-10), "suggestedNamespaces" (array of Revit API namespaces), `)
	sb.WriteString(`"implementationStrategy" (short paragraph), "pseudoCode" (outline of the solution).` + "\n\n")
	fmt.Fprintf(&sb, "Title: %s\n", request.Title)
	fmt.Fprintf(&sb, "Description: %s\n", request.Description)
	if request.ProjectName != "" {
		fmt.Fprintf(&sb, "Project: %s\n", request.ProjectName)
	}
	if request.RevitVersion != "" {
		fmt.Fprintf(&sb, "Revit version: %s\n", request.RevitVersion)
	}
	sb.WriteString("\nRespond with raw JSON only, no markdown fences.")
	return sb.String()
}

// StripMarkdownFences removes a surrounding ```json ... ``` (or plain ```)
// block that models frequently wrap JSON answers in.
func StripMarkdownFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func stripDataURIPrefix(data string) string {
	if strings.HasPrefix(data, "data:") {
		if idx := strings.Index(data, ","); idx >= 0 {
			return data[idx+1:]
		}
	}
	return data
}

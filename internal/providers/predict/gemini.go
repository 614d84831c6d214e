package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"givechain/internal/domain"
)

const (
	geminiDefaultTimeout = 30 * time.Second
	geminiDefaultModel   = "gemini-1.5-flash"
	geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// GeminiOptions configures the Gemini-backed forecaster.
type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiForecaster delegates forecasting to the Gemini generative model and
// normalizes its free-form output into a tagged time series.
type GeminiForecaster struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	CandidateCount   int     `json:"candidateCount,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type forecastPayload struct {
	PredictedDonations []struct {
		Date   string  `json:"date"`
		Amount float64 `json:"amount"`
	} `json:"predictedDonations"`
	GoalCompletionDate string  `json:"goalCompletionDate"`
	ConfidenceScore    float64 `json:"confidenceScore"`
}

func NewGeminiForecaster(opts GeminiOptions) (*GeminiForecaster, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = geminiDefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = geminiDefaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: geminiDefaultTimeout}
	}
	return &GeminiForecaster{
		apiKey:  opts.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

// Forecast builds a deterministic request from the history, calls the
// model, and normalizes the reply. Zero historical donations fail with
// domain.ErrNoHistory before any network call: forecasting is meaningless
// with no data, and an empty-but-successful series would be misleading.
func (g *GeminiForecaster) Forecast(ctx context.Context, req ForecastRequest) (*domain.Forecast, error) {
	if len(req.History) == 0 {
		return nil, fmt.Errorf("%w: campaign %s", domain.ErrNoHistory, req.CampaignAddress)
	}
	if req.Days <= 0 {
		return nil, fmt.Errorf("%w: daysToPredict must be positive", domain.ErrInvalidInput)
	}
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: buildForecastPrompt(req)}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      0,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode forecast request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), &buf)
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: prediction model: %v", domain.ErrProviderUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: prediction model: status %d", domain.ErrUpstreamFailure, resp.StatusCode)
	}
	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: prediction model: decode response: %v", domain.ErrUpstreamFailure, err)
	}
	text := extractText(out)
	if text == "" {
		return nil, fmt.Errorf("%w: prediction model: empty candidate", domain.ErrUpstreamFailure)
	}
	return normalizeForecast(req, text)
}

func (g *GeminiForecaster) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
}

func extractText(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

// normalizeForecast parses the first JSON object out of the model output,
// tags historical points as observed and model points as projected, and
// clamps the confidence score.
func normalizeForecast(req ForecastRequest, raw string) (*domain.Forecast, error) {
	fragment := firstJSONObject(raw)
	if fragment == "" {
		return nil, fmt.Errorf("%w: prediction model: no JSON object in output", domain.ErrUpstreamFailure)
	}
	var parsed forecastPayload
	if err := json.Unmarshal([]byte(fragment), &parsed); err != nil {
		return nil, fmt.Errorf("%w: prediction model: malformed JSON: %v", domain.ErrUpstreamFailure, err)
	}
	if len(parsed.PredictedDonations) == 0 {
		return nil, fmt.Errorf("%w: prediction model: empty series", domain.ErrUpstreamFailure)
	}

	points := make([]domain.PredictionPoint, 0, len(req.History)+len(parsed.PredictedDonations))
	for _, ev := range req.History {
		points = append(points, domain.PredictionPoint{
			Date:        ev.Date.UTC(),
			Amount:      ev.Amount,
			IsProjected: false,
		})
	}
	for _, p := range parsed.PredictedDonations {
		ts, ok := parseForecastDate(p.Date)
		if !ok {
			return nil, fmt.Errorf("%w: prediction model: bad date %q", domain.ErrUpstreamFailure, p.Date)
		}
		points = append(points, domain.PredictionPoint{
			Date:        ts,
			Amount:      p.Amount,
			IsProjected: true,
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	forecast := &domain.Forecast{
		Points:          points,
		ConfidenceScore: clampConfidence(parsed.ConfidenceScore),
		GeneratedAt:     time.Now().UTC(),
	}
	if ts, ok := parseForecastDate(parsed.GoalCompletionDate); ok {
		forecast.GoalCompletionDate = ts
	}
	return forecast, nil
}

var _ Forecaster = (*GeminiForecaster)(nil)

package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
)

// OpenAIAnalyzer classifies sentiment with a chat-completion call instead
// of the lexicon heuristic, behind the same Analyzer interface. Keyword
// detection stays lexicon-based (deterministic, free) in both analyzers.
type OpenAIAnalyzer struct {
	client   *openai.Client
	model    string
	breaker  *gobreaker.CircuitBreaker
	fallback *HeuristicAnalyzer
}

// NewOpenAIAnalyzer builds an analyzer backed by the OpenAI chat API,
// falling back to the lexicon heuristic when the circuit is open or the
// call errors.
func NewOpenAIAnalyzer(apiKey, model string) *OpenAIAnalyzer {
	st := gobreaker.Settings{
		Name:        "nlp-openai",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &OpenAIAnalyzer{
		client:   openai.NewClient(apiKey),
		model:    model,
		breaker:  gobreaker.NewCircuitBreaker(st),
		fallback: NewHeuristicAnalyzer(),
	}
}

type sentimentResponse struct {
	Polarity       float64 `json:"polarity"`
	Subjectivity   float64 `json:"subjectivity"`
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
}

// Analyze sends a truncated excerpt to the model and parses its JSON
// verdict, retrying once on transient errors before falling back.
func (a *OpenAIAnalyzer) Analyze(text string) domain.Sentiment {
	truncated := text
	if len(truncated) > maxAnalysisChars {
		truncated = truncated[:maxAnalysisChars]
	}

	result, err := a.breaker.Execute(func() (any, error) {
		return a.classify(truncated)
	})
	observability.RecordCircuitBreakerStatus("nlp-openai", "classify", int(a.breaker.State()))
	if err != nil {
		return a.fallback.Analyze(text)
	}
	return result.(domain.Sentiment)
}

func (a *OpenAIAnalyzer) classify(text string) (domain.Sentiment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	var sentiment domain.Sentiment
	retryErr := backoff.Retry(func() error {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: a.model,
			Messages: []openai.ChatCompletionMessage{{
				Role: "system",
				Content: "Clasifica el sentimiento del siguiente texto económico en español. " +
					"Responde únicamente con JSON: " +
					`{"polarity": float -1..1, "subjectivity": float 0..1, "classification": "positivo"|"neutral"|"negativo", "confidence": float 0..1}`,
			}, {
				Role:    "user",
				Content: text,
			}},
		})
		if err != nil {
			return fmt.Errorf("openai chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("openai returned no choices"))
		}
		content := strings.TrimSpace(resp.Choices[0].Message.Content)
		var parsed sentimentResponse
		if err := json.Unmarshal([]byte(content), &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("parse sentiment json: %w", err))
		}
		sentiment = domain.Sentiment{
			Polarity:       parsed.Polarity,
			Subjectivity:   parsed.Subjectivity,
			Classification: parsed.Classification,
			Confidence:     parsed.Confidence,
		}
		return nil
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1))

	if retryErr != nil {
		return domain.Sentiment{}, retryErr
	}
	return sentiment, nil
}

// DetectKeywords reuses the deterministic lexicon scan: there is no
// benefit to a model call for keyword counting.
func (a *OpenAIAnalyzer) DetectKeywords(text string) domain.KeywordReport {
	return a.fallback.DetectKeywords(text)
}

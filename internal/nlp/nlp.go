// Package nlp classifies article sentiment and scores economic-keyword
// relevance.
package nlp

import (
	"strings"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/config"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
)

// Analyzer classifies article text.
type Analyzer interface {
	Analyze(text string) domain.Sentiment
	DetectKeywords(text string) domain.KeywordReport
}

const maxAnalysisChars = 512

// positiveWords and negativeWords back the heuristic analyzer's polarity
// estimate. No Spanish sentiment model exists anywhere in the retrieved
// pack (the original relied on a transformer model with no Go port), so
// the default path is a lexicon heuristic; OpenAIAnalyzer below is the
// model-backed alternative behind the same interface.
var positiveWords = []string{
	"crece", "creció", "crecimiento", "sube", "subió", "alza", "ganancia",
	"ganancias", "récord", "fortalece", "recuperación", "positivo",
	"expansión", "auge", "repunta", "supera", "impulsa",
}

var negativeWords = []string{
	"cae", "caída", "baja", "bajó", "pérdida", "pérdidas", "crisis",
	"recesión", "desploma", "devaluación", "contracción", "desacelera",
	"riesgo", "incertidumbre", "déficit", "quiebra",
}

// HeuristicAnalyzer is the default lexicon-based analyzer: no external
// model call, deterministic, always available.
type HeuristicAnalyzer struct {
	Keywords []string
}

// NewHeuristicAnalyzer builds an analyzer over the configured economic
// keyword list.
func NewHeuristicAnalyzer() *HeuristicAnalyzer {
	return &HeuristicAnalyzer{Keywords: config.EconomicKeywords}
}

// Analyze scores polarity by counting positive/negative lexicon hits,
// mirroring the shape of the original model output (polarity,
// subjectivity, classification, confidence) without requiring a model.
func (a *HeuristicAnalyzer) Analyze(text string) domain.Sentiment {
	truncated := text
	if len(truncated) > maxAnalysisChars {
		truncated = truncated[:maxAnalysisChars]
	}
	lower := strings.ToLower(truncated)

	pos := countOccurrences(lower, positiveWords)
	neg := countOccurrences(lower, negativeWords)
	total := pos + neg

	if total == 0 {
		return domain.Sentiment{Classification: "neutral"}
	}

	polarity := float64(pos-neg) / float64(total)
	classification := "neutral"
	switch {
	case polarity > 0.15:
		classification = "positivo"
	case polarity < -0.15:
		classification = "negativo"
	}

	confidence := float64(total) / float64(total+3)
	subjectivity := 1 - 1/float64(total+1)

	return domain.Sentiment{
		Polarity:       round3(polarity),
		Subjectivity:   round3(subjectivity),
		Classification: classification,
		Confidence:     round3(confidence),
	}
}

// DetectKeywords tallies economic keyword occurrences and derives a
// relevance score, ported exactly from the original keyword-hit formula.
func (a *HeuristicAnalyzer) DetectKeywords(text string) domain.KeywordReport {
	lower := strings.ToLower(text)

	var hits []domain.KeywordHit
	totalOccurrences := 0
	for _, kw := range a.Keywords {
		count := strings.Count(lower, kw)
		if count == 0 {
			continue
		}
		hits = append(hits, domain.KeywordHit{Keyword: kw, Count: count})
		totalOccurrences += count
	}

	score := len(hits)*10 + totalOccurrences*2
	if score > 100 {
		score = 100
	}

	limited := hits
	if len(limited) > 10 {
		limited = limited[:10]
	}

	return domain.KeywordReport{
		Keywords:       limited,
		TotalKeywords:  len(hits),
		RelevanceScore: score,
	}
}

func countOccurrences(lower string, words []string) int {
	n := 0
	for _, w := range words {
		n += strings.Count(lower, w)
	}
	return n
}

func round3(v float64) float64 {
	if v < 0 {
		return -float64(int(-v*1000+0.5)) / 1000
	}
	return float64(int(v*1000+0.5)) / 1000
}

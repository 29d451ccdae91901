package nlp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeuristicAnalyzeClassifiesPositive(t *testing.T) {
	a := NewHeuristicAnalyzer()
	s := a.Analyze("La economía crece y las acciones suben con fuerte recuperación y expansión")
	require.Equal(t, "positivo", s.Classification)
	require.Greater(t, s.Polarity, 0.0)
}

func TestHeuristicAnalyzeClassifiesNegative(t *testing.T) {
	a := NewHeuristicAnalyzer()
	s := a.Analyze("El mercado cae en crisis con pérdidas y recesión profunda")
	require.Equal(t, "negativo", s.Classification)
	require.Less(t, s.Polarity, 0.0)
}

func TestHeuristicAnalyzeNeutralWhenNoLexiconHits(t *testing.T) {
	a := NewHeuristicAnalyzer()
	s := a.Analyze("El clima de hoy es templado con nubes dispersas")
	require.Equal(t, "neutral", s.Classification)
	require.Equal(t, 0.0, s.Polarity)
}

func TestDetectKeywordsScoresRelevance(t *testing.T) {
	a := &HeuristicAnalyzer{Keywords: []string{"colcap", "bolsa de valores"}}
	report := a.DetectKeywords("El colcap subió hoy y la bolsa de valores acompañó con el colcap liderando")
	require.Equal(t, 2, report.TotalKeywords)
	require.Greater(t, report.RelevanceScore, 0)
}

func TestDetectKeywordsCapsScoreAt100(t *testing.T) {
	kws := make([]string, 20)
	for i := range kws {
		kws[i] = "colcap"
	}
	a := &HeuristicAnalyzer{Keywords: kws}
	report := a.DetectKeywords("colcap colcap colcap colcap colcap")
	require.LessOrEqual(t, report.RelevanceScore, 100)
}

func TestDetectKeywordsLimitsToTen(t *testing.T) {
	kws := []string{
		"colcap", "bvc", "acciones", "dólar", "peso", "inflación", "pib",
		"finanzas", "ecopetrol", "bancolombia", "grupo sura", "grupo aval",
	}
	a := &HeuristicAnalyzer{Keywords: kws}
	text := "colcap bvc acciones dólar peso inflación pib finanzas ecopetrol bancolombia grupo sura grupo aval"
	report := a.DetectKeywords(text)
	require.Len(t, report.Keywords, 10)
}

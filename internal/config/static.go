package config

// Static discovery/extraction tables. These are not environment-tunable —
// they encode the heuristics the pipeline was designed against — but they
// live alongside Config since every package that needs one already
// depends on this package for its env-derived settings.

// CCIndexBaseURL is the Common Crawl CDX index API root.
const CCIndexBaseURL = "https://index.commoncrawl.org"

// CCDataBaseURL is the Common Crawl archive data root; WARC byte ranges
// are fetched relative to this.
const CCDataBaseURL = "https://data.commoncrawl.org/"

// QueueLowThreshold is the queue length at or below which the producer resumes
// discovery after a backpressure pause.
const QueueLowThreshold = 50

// EconomicKeywords is the keyword list the default NLP analyzer tallies
// against article text to score COLCAP relevance.
var EconomicKeywords = []string{
	"colcap", "bolsa de valores", "bvc", "acciones", "dólar", "peso colombiano",
	"inflación", "banco de la república", "tasa de interés", "pib",
	"mercado accionario", "inversionistas", "devaluación", "economía",
	"finanzas", "ecopetrol", "bancolombia", "grupo sura", "grupo aval",
	"dividendos", "índice bursátil", "tasa de cambio", "emisor", "renta fija",
	"renta variable", "recesión", "crecimiento económico", "exportaciones",
	"importaciones", "balanza comercial", "deuda pública",
}

// ExcludedURLPatterns are substrings that, when present in a candidate
// URL path, disqualify it from being a news article regardless of what
// the news-section/trailing-id heuristic says.
var ExcludedURLPatterns = []string{
	"/tag/", "/tags/", "/autor/", "/autores/", "/seccion/opinion/",
	"/multimedia/", "/video/", "/videos/", "/podcast/", "/podcasts/",
	"/suscripciones/", "/clasificados/", "/pauta/", "/publicidad/",
	".jpg", ".png", ".gif", ".pdf", "/busqueda", "/search",
}

// NewsSectionPatterns are substrings that mark a URL path as belonging
// to a news section, one half of the news-URL heuristic's OR clause.
var NewsSectionPatterns = []string{
	"/economia/", "/finanzas/", "/negocios/", "/mercados/", "/empresas/",
	"/noticias/", "/nacion/", "/politica/",
}

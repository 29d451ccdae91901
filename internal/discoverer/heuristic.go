package discoverer

import "strings"

// IsValidNewsURL applies the news-URL heuristic: the candidate is
// rejected if any excluded pattern appears, and accepted only if either
// a known news-section prefix appears or the last path segment contains
// a digit (the article-id signal).
func IsValidNewsURL(rawURL string, excludedPatterns, newsSections []string) bool {
	lower := strings.ToLower(rawURL)

	for _, pattern := range excludedPatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}

	hasSection := false
	for _, section := range newsSections {
		if strings.Contains(lower, section) {
			hasSection = true
			break
		}
	}

	hasArticleID := false
	if idx := strings.LastIndex(rawURL, "/"); idx >= 0 {
		last := rawURL[idx+1:]
		for _, r := range last {
			if r >= '0' && r <= '9' {
				hasArticleID = true
				break
			}
		}
	}

	return hasSection || hasArticleID
}

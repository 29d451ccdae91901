package discoverer

import "testing"

func TestIsValidNewsURL(t *testing.T) {
	excluded := []string{"/tag/", "/autor/"}
	sections := []string{"/economia/", "/finanzas/"}

	cases := []struct {
		url  string
		want bool
	}{
		{"https://eltiempo.com/economia/algo", true},
		{"https://eltiempo.com/tag/economia", false},
		{"https://eltiempo.com/articulo-123456", true},
		{"https://eltiempo.com/seccion-sin-numero", false},
		{"https://eltiempo.com/autor/pepito-perez-45", false},
	}

	for _, c := range cases {
		got := IsValidNewsURL(c.url, excluded, sections)
		if got != c.want {
			t.Errorf("IsValidNewsURL(%q) = %v, want %v", c.url, got, c.want)
		}
	}
}

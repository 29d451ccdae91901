package discoverer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/store"
)

// DefaultPortals is the built-in section/pagination configuration for the
// four target domains, mirroring the fallback scraper's fixed layout.
func DefaultPortals() []Portal {
	return []Portal{
		{
			Domain:  "larepublica.co",
			BaseURL: "https://www.larepublica.co",
			Sections: []string{
				"/economia", "/finanzas", "/empresas", "/globoeconomia",
				"/economia/gobierno", "/economia/macroeconomia",
				"/finanzas/bancos", "/finanzas/mercado-de-valores",
				"/empresas/energia", "/empresas/transporte",
				"/archivo/economia", "/archivo/finanzas",
			},
			MaxPages:   5,
			PagingMode: "query",
		},
		{
			Domain:  "portafolio.co",
			BaseURL: "https://www.portafolio.co",
			Sections: []string{
				"/economia", "/finanzas", "/empresas", "/negocios",
				"/economia/gobierno", "/economia/finanzas-publicas",
				"/negocios/empresas", "/internacional",
				"/tendencias", "/mis-finanzas",
			},
			MaxPages:   5,
			PagingMode: "query",
		},
		{
			Domain:  "eltiempo.com",
			BaseURL: "https://www.eltiempo.com",
			Sections: []string{
				"/economia", "/politica", "/colombia", "/bogota",
				"/economia/sectores", "/economia/finanzas-personales",
				"/mundo", "/tecnosfera",
			},
			MaxPages:   3,
			PagingMode: "path",
		},
		{
			Domain:  "elespectador.com",
			BaseURL: "https://www.elespectador.com",
			Sections: []string{
				"/economia", "/negocios", "/politica", "/colombia",
				"/economia/macroeconomia", "/economia/finanzas",
				"/mundo", "/tecnologia",
			},
			MaxPages:   3,
			PagingMode: "query",
		},
	}
}

// PortalSource is the fallback discovery strategy: it scrapes news portal
// section listing pages directly, applying the same news-URL heuristic
// the primary archive-index strategy uses.
type PortalSource struct {
	Store                *store.Store
	Client               *http.Client
	Portals              []Portal
	ExcludedPatterns     []string
	NewsSections         []string
	PauseBetweenPages    time.Duration
	PauseBetweenSections time.Duration
}

// NewPortalSource builds a PortalSource over the given store and client,
// using the default portal configuration and the given news-URL
// acceptance patterns.
func NewPortalSource(s *store.Store, client *http.Client, excludedPatterns, newsSections []string) *PortalSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &PortalSource{
		Store:                s,
		Client:               client,
		Portals:              DefaultPortals(),
		ExcludedPatterns:     excludedPatterns,
		NewsSections:         newsSections,
		PauseBetweenPages:    3 * time.Second,
		PauseBetweenSections: 2 * time.Second,
	}
}

// IndexPortal scrapes every section of one portal, paginating each until
// a page returns a non-200 status, no article hrefs, or zero new (all
// duplicate) hrefs.
func (p *PortalSource) IndexPortal(ctx context.Context, dom string) (total, duplicates int) {
	var portal *Portal
	for i := range p.Portals {
		if p.Portals[i].Domain == dom {
			portal = &p.Portals[i]
			break
		}
	}
	if portal == nil {
		return 0, 0
	}

	maxPages := portal.MaxPages
	if maxPages <= 0 {
		maxPages = 3
	}

	for _, section := range portal.Sections {
		for page := 1; page <= maxPages; page++ {
			pageURL := p.pageURL(*portal, section, page)

			hrefs, status, err := p.fetchArticleHrefs(ctx, pageURL, *portal)
			if err != nil || status != http.StatusOK {
				break
			}
			if len(hrefs) == 0 {
				break
			}

			pageNew := 0
			for _, href := range hrefs {
				added, serr := p.Store.SetAdd(ctx, store.KeySeenURLs, href)
				if serr != nil {
					slog.Warn("portal dedup failed", slog.String("url", href), slog.Any("error", serr))
					continue
				}
				if !added {
					duplicates++
					continue
				}

				task := domain.Task{
					URL:       href,
					Domain:    dom,
					Timestamp: time.Now().UTC().Format("20060102150405"),
				}
				payload, merr := json.Marshal(task)
				if merr != nil {
					continue
				}
				if perr := p.Store.PushHead(ctx, store.KeyTaskQueue, string(payload)); perr != nil {
					slog.Warn("portal enqueue failed", slog.String("url", href), slog.Any("error", perr))
					continue
				}
				total++
				pageNew++
			}

			if pageNew == 0 {
				break
			}

			select {
			case <-ctx.Done():
				return total, duplicates
			case <-time.After(p.PauseBetweenPages):
			}
		}

		select {
		case <-ctx.Done():
			return total, duplicates
		case <-time.After(p.PauseBetweenSections):
		}
	}

	return total, duplicates
}

func (p *PortalSource) pageURL(portal Portal, section string, page int) string {
	if page == 1 {
		return portal.BaseURL + section
	}
	if portal.PagingMode == "path" {
		return fmt.Sprintf("%s%s/page/%d", portal.BaseURL, section, page)
	}
	return fmt.Sprintf("%s%s?page=%d", portal.BaseURL, section, page)
}

func (p *PortalSource) fetchArticleHrefs(ctx context.Context, pageURL string, portal Portal) ([]string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "es-CO,es;q=0.9")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	seen := map[string]struct{}{}
	var hrefs []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}

		var full string
		switch {
		case strings.HasPrefix(href, "/"):
			full = portal.BaseURL + href
		case strings.HasPrefix(href, "http"):
			full = href
		default:
			return
		}

		if !strings.Contains(full, portal.Domain) {
			return
		}
		if !IsValidNewsURL(full, p.ExcludedPatterns, p.NewsSections) {
			return
		}
		if _, dup := seen[full]; dup {
			return
		}
		seen[full] = struct{}{}
		hrefs = append(hrefs, full)
	})

	return hrefs, resp.StatusCode, nil
}

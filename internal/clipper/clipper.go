package clipper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxTextLen bounds the free text kept from a page.
const maxTextLen = 4000

// Page is the recipe content extracted from a web page.
type Page struct {
	URL         string
	Title       string
	Ingredients []string
	Steps       []string
	Text        string
}

// Clipper fetches recipe pages and extracts their content.
type Clipper struct {
	httpClient *http.Client
}

// NewClipper creates a new Clipper instance.
func NewClipper() *Clipper {
	return &Clipper{httpClient: &http.Client{Timeout: 15 * time.Second}}
}

// Fetch downloads url and extracts its recipe content.
func (c *Clipper) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "weekly-meal-planner/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := extract(doc)
	page.URL = url
	return page, nil
}

func extract(doc *goquery.Document) *Page {
	// Remove noise before reading any text
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	page := &Page{}
	page.Title = collapse(doc.Find("h1").First().Text())
	if page.Title == "" {
		page.Title = collapse(doc.Find("title").First().Text())
	}

	doc.Find("h2, h3, h4").Each(func(i int, h *goquery.Selection) {
		heading := strings.ToLower(h.Text())
		switch {
		case page.Ingredients == nil && strings.Contains(heading, "ingredient"):
			page.Ingredients = listAfter(h)
		case page.Steps == nil && containsAny(heading, "instruction", "method", "direction", "step"):
			page.Steps = listAfter(h)
		}
	})

	text := collapse(doc.Find("body").Text())
	if len(text) > maxTextLen {
		text = text[:maxTextLen]
	}
	page.Text = strings.ToValidUTF8(text, "")
	return page
}

// listAfter returns the items of the first list following heading h.
func listAfter(h *goquery.Selection) []string {
	var items []string
	h.NextAllFiltered("ul, ol").First().Find("li").Each(func(i int, li *goquery.Selection) {
		if t := collapse(li.Text()); t != "" {
			items = append(items, t)
		}
	})
	return items
}

// RecipeText renders the page as a plain text recipe card. Pages without
// structured lists fall back to their body text.
func (p *Page) RecipeText() string {
	var sb strings.Builder
	if len(p.Ingredients) == 0 && len(p.Steps) == 0 {
		sb.WriteString(p.Text)
	} else {
		if len(p.Ingredients) > 0 {
			sb.WriteString("Ingredients:\n")
			for _, ing := range p.Ingredients {
				fmt.Fprintf(&sb, "- %s\n", ing)
			}
		}
		if len(p.Steps) > 0 {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString("Steps:\n")
			for i, step := range p.Steps {
				fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
			}
		}
	}
	if p.URL != "" {
		fmt.Fprintf(&sb, "\nSource: %s", p.URL)
	}
	return strings.TrimSpace(sb.String())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

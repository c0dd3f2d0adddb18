// Package detect recognises which title a media web page is about.
package detect

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/streamscout/streamscout/internal/scout"
)

var ErrNotDetected = errors.New("no title detected on page")

// Source names the page feature a detection came from.
type Source string

const (
	SourceJSONLD   Source = "json-ld"
	SourceIMDb     Source = "imdb"
	SourceTMDB     Source = "tmdb"
	SourceDocTitle Source = "document-title"
)

// Detection is a title recognised on a page.
type Detection struct {
	Title  string          `json:"title"`
	Year   string          `json:"year"`
	Type   scout.MediaType `json:"type"`
	ImdbID string          `json:"imdbId,omitempty"`
	Source Source          `json:"source"`
}

var (
	imdbURLPattern  = regexp.MustCompile(`(?i)imdb\.com/title/(tt\d{5,10})`)
	yearPattern     = regexp.MustCompile(`\d{4}`)
	docTitlePattern = regexp.MustCompile(`^(.*?)\s*\((?:[^)]*?\s)?(\d{4})[^)]*\)`)
)

// IMDbIDFromURL extracts the title id from an IMDb title URL.
func IMDbIDFromURL(rawURL string) string {
	m := imdbURLPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// FromPage detects the title of a page and attaches the IMDb id found in
// its URL. A page whose URL names an IMDb title is never ErrNotDetected.
func FromPage(rawURL string, r io.Reader) (*Detection, error) {
	id := IMDbIDFromURL(rawURL)

	d, err := FromHTML(r)
	if err != nil {
		if errors.Is(err, ErrNotDetected) && id != "" {
			return &Detection{ImdbID: id, Type: scout.MediaMovie, Source: SourceIMDb}, nil
		}
		return nil, err
	}
	if id != "" {
		d.ImdbID = id
	}
	return d, nil
}

// FromHTML tries JSON-LD metadata, the IMDb hero title block, a TMDB
// heading link and finally the document title, in that order.
func FromHTML(r io.Reader) (*Detection, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	for _, detect := range []func(*goquery.Document) *Detection{
		fromJSONLD,
		fromIMDbHero,
		fromTMDBHeading,
		fromDocumentTitle,
	} {
		if d := detect(doc); d != nil {
			return d, nil
		}
	}
	return nil, ErrNotDetected
}

type ldNode struct {
	Type          any    `json:"@type"`
	Name          string `json:"name"`
	Title         string `json:"title"`
	DatePublished string `json:"datePublished"`
	StartDate     string `json:"startDate"`
}

func (n ldNode) types() []string {
	switch v := n.Type.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (n ldNode) mediaType() (scout.MediaType, bool) {
	for _, t := range n.types() {
		switch t {
		case "Movie":
			return scout.MediaMovie, true
		case "TVSeries":
			return scout.MediaTV, true
		}
	}
	return "", false
}

func fromJSONLD(doc *goquery.Document) *Detection {
	var found *Detection
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := []byte(strings.TrimSpace(s.Text()))

		var node *ldNode
		var list []ldNode
		if err := json.Unmarshal(raw, &list); err == nil {
			for i := range list {
				if _, ok := list[i].mediaType(); ok {
					node = &list[i]
					break
				}
			}
		} else {
			var single ldNode
			if err := json.Unmarshal(raw, &single); err != nil {
				return true
			}
			if _, ok := single.mediaType(); ok {
				node = &single
			}
		}
		if node == nil {
			return true
		}

		title := node.Name
		if title == "" {
			title = node.Title
		}
		if title == "" {
			return true
		}

		t, _ := node.mediaType()
		found = &Detection{
			Title:  strings.TrimSpace(title),
			Year:   scout.YearOf(firstNonEmpty(node.DatePublished, node.StartDate)),
			Type:   t,
			Source: SourceJSONLD,
		}
		return false
	})
	return found
}

func fromIMDbHero(doc *goquery.Document) *Detection {
	h1 := doc.Find(`h1[data-testid='hero-title-block__title']`).First()
	if h1.Length() == 0 {
		h1 = doc.Find(`[data-testid='hero__pageTitle']`).First()
	}
	title := strings.TrimSpace(h1.Text())
	if title == "" {
		return nil
	}

	year := ""
	meta := doc.Find(`ul[data-testid='hero-title-block__metadata'] li`).First()
	if m := yearPattern.FindString(meta.Text()); m != "" {
		year = m
	}

	t := scout.MediaMovie
	if doc.Find(`[data-testid='episodes-header']`).Length() > 0 {
		t = scout.MediaTV
	}

	return &Detection{Title: title, Year: year, Type: t, Source: SourceIMDb}
}

func fromTMDBHeading(doc *goquery.Document) *Detection {
	a := doc.Find(`h2 a[href*='/movie/'], h2 a[href*='/tv/']`).First()
	title := strings.TrimSpace(a.Text())
	if title == "" {
		return nil
	}

	t := scout.MediaMovie
	if href, _ := a.Attr("href"); strings.Contains(href, "/tv/") {
		t = scout.MediaTV
	}

	year := ""
	if release := a.Closest("h2").Find(".release_date").First(); release.Length() > 0 {
		year = yearPattern.FindString(release.Text())
	}

	return &Detection{Title: title, Year: year, Type: t, Source: SourceTMDB}
}

// fromDocumentTitle reads titles of the form "Name (2021)" or
// "Name (TV Series 2008–2013) - IMDb".
func fromDocumentTitle(doc *goquery.Document) *Detection {
	raw := strings.TrimSpace(doc.Find("title").First().Text())
	m := docTitlePattern.FindStringSubmatch(raw)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return nil
	}

	t := scout.MediaMovie
	if strings.Contains(strings.ToLower(raw), "tv series") || strings.Contains(strings.ToLower(raw), "tv mini series") {
		t = scout.MediaTV
	}

	return &Detection{Title: strings.TrimSpace(m[1]), Year: m[2], Type: t, Source: SourceDocTitle}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

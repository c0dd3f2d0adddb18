package recommend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var ErrMalformedCompletion = errors.New("completion is not a JSON array of suggestions")

// Candidate is one suggestion as the model wrote it.
type Candidate struct {
	Title  string      `json:"title"`
	Year   looseString `json:"year"`
	Type   string      `json:"type"`
	ImdbID string      `json:"imdbId"`
	// Some models echo the field name used in the instructions' schema.
	ExternalID string `json:"externalId"`
	Reason     string `json:"reason"`
}

// ExternalIDValue returns the candidate's IMDb id, whichever field carried it.
func (c Candidate) ExternalIDValue() string {
	if id := strings.TrimSpace(c.ImdbID); id != "" {
		return id
	}
	return strings.TrimSpace(c.ExternalID)
}

// looseString accepts JSON strings, numbers and null.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return fmt.Errorf("unexpected year value %s", raw)
	}
	*s = looseString(raw)
	return nil
}

// StripFences removes a surrounding Markdown code fence, with or without a
// language tag, and surrounding whitespace.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = dropLanguageTag(rest)
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func dropLanguageTag(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_')
	})
	if end < 0 {
		return s
	}
	next := s[end]
	if next == '\n' || next == '\r' || next == ' ' || next == '\t' || next == '[' || next == '{' {
		return s[end:]
	}
	return s
}

// ParseCandidates decodes a completion into candidates. Anything other than
// a JSON array after fence stripping is rejected as a whole.
func ParseCandidates(text string) ([]Candidate, error) {
	body := StripFences(text)
	if !strings.HasPrefix(body, "[") {
		return nil, ErrMalformedCompletion
	}

	var cands []Candidate
	if err := json.Unmarshal([]byte(body), &cands); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCompletion, err)
	}
	return cands, nil
}

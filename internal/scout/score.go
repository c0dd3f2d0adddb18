package scout

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidScore is returned for scores outside 1–10 that are not "N/A".
var ErrInvalidScore = errors.New("score must be an integer from 1 to 10 or N/A")

// Score is a user-assigned rating. Zero means unset; ScoreNA is an explicit "N/A".
type Score int

// ScoreNA marks a title the user chose not to score.
const ScoreNA Score = -1

// ParseScore accepts "1".."10", "N/A" and "" (unset).
func ParseScore(s string) (Score, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return 0, nil
	case strings.EqualFold(s, "N/A"):
		return ScoreNA, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 10 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidScore, s)
	}
	return Score(n), nil
}

// Validate reports whether the score is storable.
func (s Score) Validate() error {
	if s == 0 || s == ScoreNA || (s >= 1 && s <= 10) {
		return nil
	}
	return fmt.Errorf("%w: %d", ErrInvalidScore, int(s))
}

// IsSet is true for numeric scores only.
func (s Score) IsSet() bool {
	return s >= 1 && s <= 10
}

func (s Score) String() string {
	switch {
	case s == ScoreNA:
		return "N/A"
	case s.IsSet():
		return strconv.Itoa(int(s))
	default:
		return ""
	}
}

// MarshalJSON writes numbers for real scores, "N/A" and null otherwise.
func (s Score) MarshalJSON() ([]byte, error) {
	switch {
	case s == ScoreNA:
		return []byte(`"N/A"`), nil
	case s.IsSet():
		return []byte(strconv.Itoa(int(s))), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts numbers, numeric strings (the extension stores
// select values as strings), "N/A" and null.
func (s *Score) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = 0
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		parsed, err := ParseScore(str)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidScore, string(data))
	}
	sc := Score(n)
	if err := sc.Validate(); err != nil {
		return err
	}
	*s = sc
	return nil
}

// MarshalYAML mirrors MarshalJSON for list exports.
func (s Score) MarshalYAML() (any, error) {
	switch {
	case s == ScoreNA:
		return "N/A", nil
	case s.IsSet():
		return int(s), nil
	default:
		return nil, nil
	}
}

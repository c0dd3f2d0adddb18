package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamscout/streamscout/internal/scout"
)

func TestResolveIMDbID(t *testing.T) {
	tests := []struct {
		arg     string
		want    string
		wantErr bool
	}{
		{"tt1160419", "tt1160419", false},
		{" TT1160419 ", "tt1160419", false},
		{"https://www.imdb.com/title/tt0816692/?ref_=nv_sr_1", "tt0816692", false},
		{"https://m.imdb.com/title/tt0944947/episodes", "tt0944947", false},
		{"https://www.themoviedb.org/movie/438631", "", true},
		{"dune", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := resolveIMDbID(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintItems(t *testing.T) {
	dune := scout.Item{
		Key:       "movie:438631",
		Type:      scout.MediaMovie,
		Title:     "Dune",
		Year:      "2021",
		Rating:    "8.0",
		Providers: []string{"Max", "Apple TV"},
		Score:     9,
	}

	var buf bytes.Buffer
	require.NoError(t, printItems(&buf, []scout.Item{dune}, false))
	out := buf.String()
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, "Max, Apple TV")
	assert.Contains(t, out, "movie:438631")

	buf.Reset()
	require.NoError(t, printItems(&buf, nil, false))
	assert.Equal(t, "No results.\n", buf.String())

	buf.Reset()
	require.NoError(t, printItems(&buf, nil, true))
	var items []scout.Item
	require.NoError(t, json.Unmarshal(buf.Bytes(), &items))
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

package main

import (
	"fmt"
	"regexp"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/streamscout/streamscout/internal/detect"
	"github.com/streamscout/streamscout/internal/recommend"
	"github.com/streamscout/streamscout/internal/scout"
)

var imdbIDPattern = regexp.MustCompile(`^tt\d{5,10}$`)

// resolveIMDbID accepts a bare IMDb id or any URL that contains one.
func resolveIMDbID(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if imdbIDPattern.MatchString(strings.ToLower(arg)) {
		return strings.ToLower(arg), nil
	}
	if id := detect.IMDbIDFromURL(arg); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("%q is neither an IMDb id nor an IMDb title URL", arg)
}

func newSearchCmd(opts *globalOptions) *cobra.Command {
	var (
		mediaType     string
		genres        []int
		minRating     float64
		providers     []string
		onlyAvailable bool
		page          int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search titles with ratings and streaming providers",
		Long: `Search TMDB and merge in IMDb ratings and streaming providers.
Without a query, --genre browses the catalog by genre instead.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state := scout.SearchFilterState{
				Query:         strings.Join(args, " "),
				Type:          scout.ParseMediaType(mediaType),
				Genres:        genres,
				Providers:     providers,
				OnlyAvailable: onlyAvailable,
				Page:          page,
			}
			if minRating > 0 {
				state.MinRating = &minRating
			}
			state = state.Normalized()
			if state.Query == "" && len(state.Genres) == 0 {
				return fmt.Errorf("a query or at least one --genre is required")
			}

			items, err := opts.client().Search(cmd.Context(), state)
			if err != nil {
				return err
			}
			return printItems(cmd.OutOrStdout(), items, opts.jsonOutput)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&mediaType, "type", "t", string(scout.MediaMovie), "Media type (movie or tv)")
	f.IntSliceVarP(&genres, "genre", "g", nil, "TMDB genre id (repeatable)")
	f.Float64Var(&minRating, "min-rating", 0, "Minimum IMDb rating (0-10)")
	f.StringSliceVarP(&providers, "provider", "p", nil, "Provider key such as netflix or max (repeatable)")
	f.BoolVar(&onlyAvailable, "only-available", false, "Only show titles with at least one provider")
	f.IntVar(&page, "page", 1, "Result page")
	return cmd
}

func newLookupCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <imdb-id|url>",
		Short: "Resolve an IMDb id or title URL into an enriched item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveIMDbID(args[0])
			if err != nil {
				return err
			}
			item, err := opts.client().Lookup(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printItems(cmd.OutOrStdout(), []scout.Item{*item}, opts.jsonOutput)
		},
	}
}

func newRecommendCmd(opts *globalOptions) *cobra.Command {
	var (
		mood      string
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "recommend <imdb-id|url>",
		Short: "Ask for AI suggestions similar to a title",
		Long: `Ask the gateway for titles similar to the given one. Scores from the
local watched list are sent along so suggestions follow your taste.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveIMDbID(args[0])
			if err != nil {
				return err
			}

			client := opts.client()
			anchor, err := client.Lookup(ctx, id)
			if err != nil {
				return err
			}

			req := recommend.Request{
				Key:        anchor.Key,
				NativeID:   anchor.NativeID,
				Title:      anchor.Title,
				Year:       anchor.Year,
				Type:       anchor.Type,
				ImdbRating: anchor.Rating,
				Providers:  anchor.Providers,
				Mood:       mood,
			}
			if !noHistory {
				req.WatchedProfile = watchedProfile(cmd, opts)
			}

			items, err := client.Recommend(ctx, req)
			if err != nil {
				return err
			}
			return printItems(cmd.OutOrStdout(), items, opts.jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&mood, "mood", "m", "", "What you are in the mood for")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not send the watched list")
	return cmd
}

// watchedProfile reads the local watched list. The profile is optional, so
// failures are reported and ignored.
func watchedProfile(cmd *cobra.Command, opts *globalOptions) []scout.Item {
	store, closeStore, err := openStore(cmd.Context(), opts)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: watched list unavailable: %v\n", err)
		return nil
	}
	defer closeStore()

	snap, err := store.Snapshot(cmd.Context())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: watched list unavailable: %v\n", err)
		return nil
	}
	return snap.Watched
}

func newGenresCmd(opts *globalOptions) *cobra.Command {
	var mediaType string

	cmd := &cobra.Command{
		Use:   "genres",
		Short: "List catalog genres and their ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			genres, err := opts.client().Genres(cmd.Context(), scout.ParseMediaType(mediaType))
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), genres)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, g := range genres {
				fmt.Fprintf(tw, "%d\t%s\n", g.ID, g.Name)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&mediaType, "type", "t", string(scout.MediaMovie), "Media type (movie or tv)")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/streamscout/streamscout/internal/database"
	"github.com/streamscout/streamscout/internal/lists"
	"github.com/streamscout/streamscout/internal/scout"
)

// openStore opens the list store on the configured SQLite database. Changes
// are recorded in the list history like gateway changes are.
func openStore(ctx context.Context, opts *globalOptions) (*lists.Store, func(), error) {
	store, _, closeDB, err := openStoreWithHistory(ctx, opts)
	return store, closeDB, err
}

func openStoreWithHistory(ctx context.Context, opts *globalOptions) (*lists.Store, *lists.History, func(), error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := database.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, err
	}

	log := zerolog.Nop()
	store := lists.NewStore(lists.NewSQLiteKV(db.Conn()), log)
	history := lists.NewHistory(db.Conn(), log)
	store.AddNotifier(history)

	return store, history, func() { db.Close() }, nil
}

// withStore runs fn against an open store and closes it afterwards.
func withStore(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, store *lists.Store) error) error {
	store, closeStore, err := openStore(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(cmd.Context(), store)
}

func newListCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Manage the watchlist and the watched list",
		Long: `Manage the watchlist and the watched list stored in the local database.
List names are "watchlist" and "watched"; items are addressed by key
(for example movie:438631).`,
	}

	cmd.AddCommand(
		newListShowCmd(opts),
		newListAddCmd(opts),
		newListRemoveCmd(opts),
		newListWatchCmd(opts),
		newListMoveCmd(opts),
		newListScoreCmd(opts),
		newListMembershipCmd(opts),
		newListExportCmd(opts),
		newListHistoryCmd(opts),
	)
	return cmd
}

func newListShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [watchlist|watched]",
		Short: "Print a list",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := lists.Watchlist
			if len(args) == 1 {
				name = args[0]
			}
			return withStore(cmd, opts, func(ctx context.Context, store *lists.Store) error {
				items, err := store.Items(ctx, name)
				if err != nil {
					return err
				}
				return printItems(cmd.OutOrStdout(), items, opts.jsonOutput)
			})
		},
	}
}

func newListAddCmd(opts *globalOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add <imdb-id|url>",
		Short: "Look a title up through the gateway and add it to a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := lists.ValidateName(name); err != nil {
				return err
			}
			id, err := resolveIMDbID(args[0])
			if err != nil {
				return err
			}
			item, err := opts.client().Lookup(cmd.Context(), id)
			if err != nil {
				return err
			}

			return withStore(cmd, opts, func(ctx context.Context, store *lists.Store) error {
				added, err := store.Add(ctx, name, *item)
				if err != nil {
					return err
				}
				if !added {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is already on %s\n", item.Title, name)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) to %s\n", item.Title, item.Key, name)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "list", "l", lists.Watchlist, "Target list")
	return cmd
}

func newListRemoveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <list> <key>",
		Short: "Remove an item from a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *lists.Store) error {
				removed, err := store.Remove(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("%w: %s", lists.ErrNotInList, args[1])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", args[1], args[0])
				return nil
			})
		},
	}
}

func newListWatchCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <key>",
		Short: "Mark a watchlist item as watched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			return withStore(cmd, opts, func(ctx context.Context, store *lists.Store) error {
				item, ok, err := store.Find(ctx, key)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: %s", lists.ErrNotInList, key)
				}
				if err := store.MarkWatched(ctx, item); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as watched\n", item.Title)
				return nil
			})
		},
	}
}

func newListMoveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to> <key>",
		Short: "Move an item between lists",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *lists.Store) error {
				if err := store.Move(ctx, args[0], args[1], args[2]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %s from %s to %s\n", args[2], args[0], args[1])
				return nil
			})
		},
	}
}

func newListScoreCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "score <key> <1-10|N/A|clear>",
		Short: "Set your score of a stored item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := args[1]
			if strings.EqualFold(raw, "clear") {
				raw = ""
			}
			score, err := scout.ParseScore(raw)
			if err != nil {
				return err
			}

			return withStore(cmd, opts, func(ctx context.Context, store *lists.Store) error {
				n, err := store.SetScore(ctx, args[0], score)
				if err != nil {
					return err
				}
				if n == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: nothing to update\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scored %s: %s\n", args[0], orDash(score.String()))
				return nil
			})
		},
	}
}

func newListMembershipCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "membership <key>",
		Short: "Show which lists hold an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *lists.Store) error {
				m, err := store.Membership(ctx, args[0])
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), m)
				}
				names := m.Lists()
				if len(names) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is on no list\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is on %s\n", args[0], strings.Join(names, ", "))
				return nil
			})
		},
	}
}

func newListExportCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write both lists to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *lists.Store) error {
				return store.Export(ctx, cmd.OutOrStdout(), format)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", lists.FormatJSON, "Output format (json or yaml)")
	return cmd
}

func newListHistoryCmd(opts *globalOptions) *cobra.Command {
	var (
		key   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent list changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, history, closeDB, err := openStoreWithHistory(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeDB()

			events, err := history.List(cmd.Context(), key, limit)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), events)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tLIST\tACTION\tKEY")
			for _, ev := range events {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ev.CreatedAt.Local().Format(time.DateTime), ev.List, ev.Action, ev.Key)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Only show changes of this item")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of events")
	return cmd
}

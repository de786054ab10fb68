package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/nyaya/internal/api"
	"github.com/ppiankov/nyaya/internal/bookmarks"
	"github.com/ppiankov/nyaya/internal/model"
	"github.com/spf13/cobra"
)

var (
	bookmarkType string
	bookmarkAll  bool
)

var bookmarksCmd = &cobra.Command{
	Use:     "bookmarks",
	Aliases: []string{"bm"},
	Short:   "Manage your bookmarks",
	Long: `Bookmark judgments, acts and law mappings. Requires 'nyaya login'.

Bookmark types: judgement, central_act, state_act, bns_ipc_mapping,
bsa_iea_mapping, bnss_crpc_mapping.`,
}

var bookmarksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your bookmarks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.requireLogin(); err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if bookmarkType != "" {
			t, err := model.ParseBookmarkType(bookmarkType)
			if err != nil {
				return err
			}
			page, err := a.client.GetUserBookmarks(ctx, api.BookmarkQuery{Type: t, Limit: a.refLimit(), Offset: refOffset})
			if err != nil {
				return describe(err)
			}
			return a.printer.Bookmarks(page.Data, page.HasMore())
		}

		m := a.bookmarks()
		if err := m.Load(ctx, refOffset, a.refLimit()); err != nil {
			return describe(err)
		}
		for bookmarkAll && m.HasMore() {
			if err := m.LoadMore(ctx); err != nil {
				return describe(err)
			}
		}
		return a.printer.Bookmarks(m.Items(), m.HasMore())
	},
}

var bookmarksAddCmd = &cobra.Command{
	Use:   "add <type> <item-id>",
	Short: "Bookmark an item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setBookmark(cmd, args, true)
	},
}

var bookmarksRemoveCmd = &cobra.Command{
	Use:     "remove <type> <item-id>",
	Aliases: []string{"rm"},
	Short:   "Remove the bookmark of an item",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setBookmark(cmd, args, false)
	},
}

var bookmarksToggleCmd = &cobra.Command{
	Use:   "toggle <type> <item-id>",
	Short: "Bookmark an item, or remove its bookmark if it has one",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, id, err := bookmarkArgs(args)
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.requireLogin(); err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		m := a.bookmarks()
		m.Status(ctx, t, id)
		now, err := m.Toggle(ctx, t, id)
		if err != nil {
			return describe(err)
		}
		reportBookmark(t, id, now)
		return nil
	},
}

var bookmarksStatusCmd = &cobra.Command{
	Use:   "status <type> <item-id>",
	Short: "Check whether an item is bookmarked",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, id, err := bookmarkArgs(args)
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.requireLogin(); err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		bookmarked := a.bookmarks().Status(ctx, t, id)
		if a.printer.Format() == "json" {
			return a.printer.JSON(model.BookmarkStatus{Bookmarked: bookmarked})
		}
		if bookmarked {
			fmt.Printf("%s %d is bookmarked\n", t, id)
		} else {
			fmt.Printf("%s %d is not bookmarked\n", t, id)
		}
		return nil
	},
}

func (a *app) bookmarks() *bookmarks.Manager {
	return bookmarks.NewManager(a.client,
		bookmarks.WithLogger(logger),
		bookmarks.WithPageSize(a.cfg.Listing.PageSize))
}

func bookmarkArgs(args []string) (model.BookmarkType, int64, error) {
	t, err := model.ParseBookmarkType(args[0])
	if err != nil {
		return "", 0, err
	}
	id, err := parseID(args[1])
	if err != nil {
		return "", 0, err
	}
	return t, id, nil
}

// setBookmark brings an item to the wanted state, doing nothing when the
// server already agrees
func setBookmark(cmd *cobra.Command, args []string, want bool) error {
	t, id, err := bookmarkArgs(args)
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	m := a.bookmarks()
	now, err := ensureBookmark(ctx, m, t, id, want)
	if err != nil {
		return describe(err)
	}
	reportBookmark(t, id, now)
	return nil
}

func ensureBookmark(ctx context.Context, m *bookmarks.Manager, t model.BookmarkType, id int64, want bool) (bool, error) {
	if m.Status(ctx, t, id) == want {
		return want, nil
	}
	return m.Toggle(ctx, t, id)
}

func reportBookmark(t model.BookmarkType, id int64, bookmarked bool) {
	if bookmarked {
		fmt.Fprintf(os.Stderr, "★ Bookmarked %s %d\n", t, id)
	} else {
		fmt.Fprintf(os.Stderr, "☆ Removed bookmark for %s %d\n", t, id)
	}
}

func init() {
	rootCmd.AddCommand(bookmarksCmd)
	bookmarksCmd.AddCommand(bookmarksListCmd, bookmarksAddCmd, bookmarksRemoveCmd, bookmarksToggleCmd, bookmarksStatusCmd)

	bookmarksListCmd.Flags().StringVar(&bookmarkType, "type", "", "only this bookmark type")
	bookmarksListCmd.Flags().BoolVar(&bookmarkAll, "all", false, "fetch every page")
	bookmarksListCmd.Flags().IntVar(&refLimit, "limit", 0, "page size (default: listing.page_size)")
	bookmarksListCmd.Flags().IntVar(&refOffset, "offset", 0, "skip this many bookmarks")
}

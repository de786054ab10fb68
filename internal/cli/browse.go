package cli

import (
	"github.com/ppiankov/nyaya/internal/bookmarks"
	"github.com/ppiankov/nyaya/internal/listing"
	"github.com/ppiankov/nyaya/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse judgments interactively",
	Long: `Browse opens a scrolling list of judgments. More rows load as you near
the end. Filters apply as you type, after a short pause.

Keys: j/k move, / edit filters (tab for the next field), c switch court,
x clear filters, b bookmark, enter details, r retry, q quit.

Example:
  nyaya browse --court supreme --filter search="right to privacy"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		court, q, err := judgmentQuery()
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}

		// No logging inside the full-screen view unless --verbose
		tuiLogger := zap.NewNop()
		if verbose {
			tuiLogger = logger
		}

		list := listing.New(tui.FetchJudgments(a.client), q.Filters,
			listing.WithPageSize(a.pageSize()),
			listing.WithDebounce(a.cfg.Listing.Debounce),
			listing.WithLoadMoreDistance(a.cfg.Listing.LoadMoreDistance),
			listing.WithLogger(tuiLogger.With(zap.String("court", string(court)))))

		var marks *bookmarks.Manager
		if a.session.Authenticated() {
			marks = bookmarks.NewManager(a.client,
				bookmarks.WithLogger(tuiLogger),
				bookmarks.WithPageSize(a.cfg.Listing.PageSize))
		}

		return tui.Run(cmd.Context(), list, marks, tuiLogger)
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
	browseCmd.Flags().StringVar(&courtFlag, "court", "high", "court type: high or supreme")
	browseCmd.Flags().StringArrayVarP(&filterFlags, "filter", "f", nil, "initial filter as name=value (repeatable)")
	browseCmd.Flags().IntVar(&listLimit, "limit", 0, "page size (default: listing.page_size)")
}

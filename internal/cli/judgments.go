package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/nyaya/internal/api"
	"github.com/ppiankov/nyaya/internal/download"
	"github.com/ppiankov/nyaya/internal/llm"
	"github.com/ppiankov/nyaya/internal/model"
	"github.com/spf13/cobra"
)

var (
	courtFlag   string
	filterFlags []string
	listLimit   int
	listOffset  int
	cursorFlag  string
	listPages   int
	outputDir   string
	workers     int
	briefQuery  string
	llmProvider string
	llmModel    string
)

var judgmentsCmd = &cobra.Command{
	Use:     "judgments",
	Aliases: []string{"judgements", "j"},
	Short:   "List, show, download and summarize judgments",
}

var judgmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List High Court or Supreme Court judgments",
	Long: `List judgments, newest pages first as the service orders them.

Filters are name=value pairs. High Court: search, court_name, judge,
case_title, cnr, year, decision_date_from, decision_date_to. Supreme Court:
search, judge, case_title, petitioner, respondent, year.

Example:
  nyaya judgments list --filter judge="A. Sharma" --filter year=2021
  nyaya judgments list --court supreme --filter search=bail --pages 3
  nyaya judgments list --cursor 2020-01-05:12`,
	Args: cobra.NoArgs,
	RunE: runJudgmentsList,
}

var judgmentsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one judgment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		court, err := model.ParseCourtType(courtFlag)
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		j, err := a.client.GetJudgement(ctx, court, id)
		if err != nil {
			return describe(err)
		}
		return a.printer.Judgment(*j)
	},
}

var judgmentsDownloadCmd = &cobra.Command{
	Use:   "download [id...]",
	Short: "Download judgment PDFs",
	Long: `Download saves judgment PDFs as <CNR>.pdf (or <id>.pdf) in the output
directory, several at a time. Existing files are skipped. Without ids, the
judgments matching --filter are downloaded.

Example:
  nyaya judgments download 12 13 14 --out ./pdfs
  nyaya judgments download --filter judge="R. Iyer" --limit 50 --workers 8`,
	RunE: runJudgmentsDownload,
}

var judgmentsBriefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Write an LLM research brief over matching judgments",
	Long: `Brief lists the judgments matching --filter and asks the configured LLM
for a short research brief that cites them by CNR. With strict evidence
(the default) a brief citing any other CNR is rejected.

The brief is generated content. Read the judgments themselves.

Example:
  NYAYA_LLM_PROVIDER=openai nyaya judgments brief --filter search="anticipatory bail"
  nyaya judgments brief --llm-provider ollama --llm-model llama3.1 --filter year=2022`,
	Args: cobra.NoArgs,
	RunE: runJudgmentsBrief,
}

func init() {
	rootCmd.AddCommand(judgmentsCmd)
	judgmentsCmd.AddCommand(judgmentsListCmd, judgmentsShowCmd, judgmentsDownloadCmd, judgmentsBriefCmd)

	judgmentsCmd.PersistentFlags().StringVar(&courtFlag, "court", "high", "court type: high or supreme")
	for _, c := range []*cobra.Command{judgmentsListCmd, judgmentsDownloadCmd, judgmentsBriefCmd} {
		c.Flags().StringArrayVarP(&filterFlags, "filter", "f", nil, "filter as name=value (repeatable)")
		c.Flags().IntVar(&listLimit, "limit", 0, "page size (default: listing.page_size)")
	}
	judgmentsListCmd.Flags().IntVar(&listOffset, "offset", 0, "skip this many judgments")
	judgmentsListCmd.Flags().StringVar(&cursorFlag, "cursor", "", "continue after this cursor (from a previous page)")
	judgmentsListCmd.Flags().IntVar(&listPages, "pages", 1, "number of pages to fetch")

	judgmentsDownloadCmd.Flags().StringVar(&outputDir, "out", "./judgments", "output directory")
	judgmentsDownloadCmd.Flags().IntVar(&workers, "workers", 0, "parallel downloads (default: concurrency.download_workers)")

	judgmentsBriefCmd.Flags().StringVar(&briefQuery, "query", "", "research question (default: the search filter)")
	judgmentsBriefCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider: openai, ollama (overrides llm.provider)")
	judgmentsBriefCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model (overrides llm.model)")
}

// buildFilters applies name=value pairs to the default filters of kind
func buildFilters(kind model.FilterKind, pairs []string) (model.Filters, error) {
	f := model.DefaultFilters(kind)
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("filter %q: expected name=value", pair)
		}
		next, err := f.Set(strings.TrimSpace(name), strings.Trim(strings.TrimSpace(value), `"`))
		if err != nil {
			return nil, err
		}
		f = next
	}
	return f, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func (a *app) pageSize() int {
	if listLimit > 0 {
		return listLimit
	}
	return a.cfg.Listing.PageSize
}

// judgmentQuery reads the court and filter flags
func judgmentQuery() (model.CourtType, api.JudgementQuery, error) {
	court, err := model.ParseCourtType(courtFlag)
	if err != nil {
		return "", api.JudgementQuery{}, err
	}
	filters, err := buildFilters(court.FilterKind(), filterFlags)
	if err != nil {
		return "", api.JudgementQuery{}, err
	}
	return court, api.JudgementQuery{Filters: filters}, nil
}

func courtTitle(court model.CourtType) string {
	if court == model.CourtSupreme {
		return "Supreme Court judgments"
	}
	return "High Court judgments"
}

func runJudgmentsList(cmd *cobra.Command, args []string) error {
	court, q, err := judgmentQuery()
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	q.Limit = a.pageSize()
	q.Offset = listOffset
	if cursorFlag != "" {
		c, err := model.ParseCursor(cursorFlag)
		if err != nil {
			return err
		}
		q.Cursor = &c
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	page, err := fetchPages(ctx, a, court, q, max(listPages, 1))
	if err != nil {
		return describe(err)
	}
	return a.printer.Judgments(courtTitle(court), page)
}

// fetchPages walks up to n pages by cursor (or offset where the backend
// gives no cursor) and merges them into one page
func fetchPages(ctx context.Context, a *app, court model.CourtType, q api.JudgementQuery, n int) (*model.Page[model.Judgment], error) {
	var merged *model.Page[model.Judgment]
	for i := 0; i < n; i++ {
		page, err := a.client.ListJudgements(ctx, court, q)
		if err != nil {
			return nil, err
		}
		if merged == nil {
			merged = page
		} else {
			merged.Data = append(merged.Data, page.Data...)
			merged.Pagination = page.Pagination
		}
		if !page.HasMore() || len(page.Data) == 0 {
			break
		}

		if next := page.Pagination.NextCursor; next != nil {
			c := *next
			q.Cursor = &c
		} else {
			q.Cursor = nil
			q.Offset += len(page.Data)
		}
	}
	return merged, nil
}

func runJudgmentsDownload(cmd *cobra.Command, args []string) error {
	court, q, err := judgmentQuery()
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	var judgments []model.Judgment
	if len(args) > 0 {
		for _, arg := range args {
			id, err := parseID(arg)
			if err != nil {
				return err
			}
			j, err := a.client.GetJudgement(ctx, court, id)
			if err != nil {
				return fmt.Errorf("judgment %d: %w", id, describe(err))
			}
			judgments = append(judgments, *j)
		}
	} else {
		q.Limit = a.pageSize()
		page, err := a.client.ListJudgements(ctx, court, q)
		if err != nil {
			return describe(err)
		}
		judgments = page.Data
	}
	if len(judgments) == 0 {
		fmt.Fprintln(os.Stderr, "No judgments to download")
		return nil
	}

	n := workers
	if n <= 0 {
		n = a.cfg.Concurrency.DownloadWorkers
	}

	fmt.Fprintf(os.Stderr, "Downloading %d judgments to %s (%d workers)\n", len(judgments), outputDir, n)
	start := time.Now()

	fetcher := download.NewFetcher(a.cfg, download.WithLogger(logger), download.WithLimiter(a.limiter))
	results, err := download.NewBatchDownloader(fetcher, n, outputDir, a.client.BaseURL(), logger).Download(ctx, judgments)
	if err != nil {
		return err
	}

	var saved, skipped, failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Fprintf(os.Stderr, "✗ %d %s: %v\n", r.Judgment.ID, r.Judgment.Title(), r.Err)
		case r.Skipped:
			skipped++
			if verbose {
				fmt.Fprintf(os.Stderr, "· %s (exists)\n", r.Path)
			}
		default:
			saved++
			if verbose {
				fmt.Fprintf(os.Stderr, "✓ %s (%d bytes)\n", r.Path, r.Bytes)
			}
		}
	}

	fmt.Fprintf(os.Stderr, "\n✓ Saved %d, skipped %d, failed %d in %v\n", saved, skipped, failed, time.Since(start).Round(time.Millisecond))
	if failed > 0 {
		return fmt.Errorf("%d downloads failed", failed)
	}
	return nil
}

func runJudgmentsBrief(cmd *cobra.Command, args []string) error {
	court, q, err := judgmentQuery()
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}

	cfg := llm.ConfigFromModel(a.cfg.LLM)
	if llmProvider != "" {
		cfg.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.Model = llmModel
	}
	summarizer, err := llm.NewSummarizer(cfg, logger)
	if err != nil {
		return err
	}
	if !summarizer.IsEnabled() {
		return errors.New("no LLM configured: set llm.provider (NYAYA_LLM_PROVIDER) or pass --llm-provider")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	q.Limit = a.pageSize()
	page, err := a.client.ListJudgements(ctx, court, q)
	if err != nil {
		return describe(err)
	}

	query := briefQuery
	if query == "" {
		query = q.Filters.Values()["search"]
	}

	fmt.Fprintf(os.Stderr, "⚙️  Asking %s about %d judgments...\n", summarizer.ProviderName(), len(page.Data))
	brief, err := summarizer.GenerateBrief(ctx, query, page.Data)
	if err != nil {
		return err
	}
	return a.printer.Brief(brief, llm.RenderMarkdown(brief))
}

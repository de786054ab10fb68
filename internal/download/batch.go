package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/ppiankov/nyaya/internal/model"
	"github.com/ppiankov/nyaya/internal/worker"
	"go.uber.org/zap"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

var errCancelled = errors.New("download cancelled")

// FileName is the file a judgment's PDF is saved as: its CNR when known,
// its id otherwise
func FileName(j model.Judgment) string {
	name := unsafeName.ReplaceAllString(j.CNR, "_")
	if name == "" || name == "_" {
		name = strconv.FormatInt(j.ID, 10)
	}
	return name + ".pdf"
}

// Job downloads one judgment PDF
type Job struct {
	Judgment model.Judgment
	URL      string
	Path     string
	fetcher  *Fetcher
}

// JobResult is the outcome of a Job
type JobResult struct {
	Judgment model.Judgment
	Path     string
	Bytes    int
	Skipped  bool // File already existed
	Err      error
}

func (r *JobResult) GetError() error {
	return r.Err
}

// Execute implements worker.Job
func (j *Job) Execute(ctx context.Context) worker.Result {
	res := &JobResult{Judgment: j.Judgment, Path: j.Path}

	if _, err := os.Stat(j.Path); err == nil {
		res.Skipped = true
		return res
	}

	doc, err := j.fetcher.FetchWithRetry(ctx, j.URL)
	if err != nil {
		res.Err = fmt.Errorf("download %s: %w", j.URL, err)
		return res
	}

	tmp := j.Path + ".part"
	if err := os.WriteFile(tmp, doc.Body, 0o644); err != nil {
		res.Err = fmt.Errorf("write %s: %w", tmp, err)
		return res
	}
	if err := os.Rename(tmp, j.Path); err != nil {
		_ = os.Remove(tmp)
		res.Err = fmt.Errorf("rename %s: %w", tmp, err)
		return res
	}

	res.Bytes = len(doc.Body)
	return res
}

// BatchDownloader saves the PDFs of many judgments concurrently
type BatchDownloader struct {
	fetcher *Fetcher
	workers int
	outDir  string
	baseURL string
	logger  *zap.Logger
}

// NewBatchDownloader writes into outDir; relative PDF links resolve against baseURL
func NewBatchDownloader(fetcher *Fetcher, workers int, outDir, baseURL string, logger *zap.Logger) *BatchDownloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchDownloader{
		fetcher: fetcher,
		workers: workers,
		outDir:  outDir,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Download fetches every judgment that has a PDF link. Results come back in
// input order; judgments without a link get a result carrying an error.
func (b *BatchDownloader) Download(ctx context.Context, judgments []model.Judgment) ([]*JobResult, error) {
	if err := os.MkdirAll(b.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	results := make([]*JobResult, len(judgments))
	var jobs []*Job
	var slots []int

	for i, j := range judgments {
		if j.PDFLink == "" {
			results[i] = &JobResult{Judgment: j, Err: fmt.Errorf("judgment %d has no PDF link", j.ID)}
			continue
		}
		u, err := ResolveURL(b.baseURL, j.PDFLink)
		if err != nil {
			results[i] = &JobResult{Judgment: j, Err: err}
			continue
		}
		jobs = append(jobs, &Job{
			Judgment: j,
			URL:      u,
			Path:     filepath.Join(b.outDir, FileName(j)),
			fetcher:  b.fetcher,
		})
		slots = append(slots, i)
	}

	pool := worker.NewPool(ctx, b.workers)
	pool.Start()
	for _, job := range jobs {
		if !pool.Submit(job) {
			break
		}
	}

	for k, r := range pool.Wait() {
		i := slots[k]
		res, ok := r.(*JobResult)
		if !ok {
			continue
		}
		results[i] = res

		switch {
		case res.Err != nil:
			b.logger.Warn("download failed", zap.Int64("id", res.Judgment.ID), zap.Error(res.Err))
		case res.Skipped:
			b.logger.Debug("already downloaded", zap.String("path", res.Path))
		default:
			b.logger.Debug("downloaded", zap.String("path", res.Path), zap.Int("bytes", res.Bytes))
		}
	}

	for i, res := range results {
		if res == nil {
			results[i] = &JobResult{Judgment: judgments[i], Err: errCancelled}
		}
	}
	return results, ctx.Err()
}

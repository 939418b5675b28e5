package syncer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"

	"ezsync/internal/ezshare"
	"ezsync/internal/models"
	"ezsync/pkg/utils"
)

// OSCAR expects the summary file with a lowercase extension.
const strEDFLocalName = "STR.edf"

const retryDelay = time.Second

type Action string

const (
	ActionDownload Action = "download"
	ActionReplace  Action = "replace"
	ActionSkip     Action = "skip"
)

// PlannedEntry is one remote file after filtering and local diff.
type PlannedEntry struct {
	Entry     ezshare.Entry
	RelPath   string
	LocalPath string
	Action    Action
	Reason    string
}

// Plan is the outcome of walking the card's listing tree.
type Plan struct {
	Entries      []PlannedEntry
	Dirs         []string
	Ignored      int
	FilteredDirs int
}

// Downloads returns the entries that need fetching.
func (p *Plan) Downloads() []PlannedEntry {
	return lo.Filter(p.Entries, func(e PlannedEntry, _ int) bool {
		return e.Action != ActionSkip
	})
}

func (p *Plan) SkippedCount() int {
	return lo.CountBy(p.Entries, func(e PlannedEntry) bool {
		return e.Action == ActionSkip
	})
}

type Options struct {
	TargetPath    string
	Window        Window
	Ignore        *IgnoreSet
	Overwrite     bool
	CreateMissing bool
	Retries       int
	DryRun        bool
	Verbose       bool
	Progress      bool
	Out           io.Writer
}

// Syncer mirrors the card's listing tree into the target directory.
type Syncer struct {
	client *ezshare.Client
	opts   Options
}

func New(client *ezshare.Client, opts Options) *Syncer {
	if opts.Ignore == nil {
		opts.Ignore = NewIgnoreSet()
	}
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Syncer{client: client, opts: opts}
}

// Plan walks the remote tree, applies the ignore list and date window, and
// diffs every file against the target directory. Listing failures are fatal:
// a partial plan would silently drop files.
func (s *Syncer) Plan(ctx context.Context) (*Plan, error) {
	p := &Plan{}
	if err := s.walk(ctx, s.client.RootURL(), s.opts.TargetPath, "", false, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Syncer) walk(ctx context.Context, dirURL, localDir, relDir string, inDatalog bool, p *Plan) error {
	entries, err := s.client.List(ctx, dirURL)
	if err != nil {
		if relDir == "" {
			return err
		}
		return fmt.Errorf("failed to list %s: %w", relDir, err)
	}

	for _, e := range entries {
		if s.opts.Ignore.Match(e.Name) {
			p.Ignored++
			continue
		}

		if e.IsDir {
			if inDatalog && !s.opts.Window.Includes(e.Name) {
				p.FilteredDirs++
				continue
			}
			rel := path.Join(relDir, e.Name)
			p.Dirs = append(p.Dirs, rel)
			child := inDatalog || strings.EqualFold(e.Name, "DATALOG")
			if err := s.walk(ctx, e.URL, filepath.Join(localDir, e.Name), rel, child, p); err != nil {
				return err
			}
			continue
		}

		localName := e.Name
		if localName == "STR.EDF" {
			localName = strEDFLocalName
		}
		localPath := filepath.Join(localDir, localName)
		action, reason := decide(e, localPath, s.opts.Overwrite)
		p.Entries = append(p.Entries, PlannedEntry{
			Entry:     e,
			RelPath:   path.Join(relDir, localName),
			LocalPath: localPath,
			Action:    action,
			Reason:    reason,
		})
	}
	return nil
}

// Run plans and then executes the downloads. A file that exhausts its retry
// budget is recorded as a failure and the rest of the queue keeps going.
func (s *Syncer) Run(ctx context.Context) (*models.SyncResult, error) {
	start := time.Now()

	if err := s.ensureTarget(); err != nil {
		return nil, err
	}

	plan, err := s.Plan(ctx)
	if err != nil {
		return nil, err
	}
	queue := plan.Downloads()

	result := &models.SyncResult{
		SourceURL:      s.client.RootURL(),
		TargetPath:     s.opts.TargetPath,
		Items:          []models.SyncItem{},
		SkippedFiles:   plan.SkippedCount(),
		IgnoredEntries: plan.Ignored,
		FilteredDirs:   plan.FilteredDirs,
		OperationTime:  utils.FormatTime(start),
		DryRun:         s.opts.DryRun,
	}

	if s.opts.DryRun {
		for _, f := range queue {
			result.Items = append(result.Items, s.itemFor(f, f.Entry.Size, 0))
		}
	} else {
		renderer := newProgressRenderer(s.opts.Progress && !s.opts.Verbose, len(queue))
		for _, f := range queue {
			size, attempts, err := s.fetch(ctx, f)
			renderer.Increment()
			if err != nil {
				if ctx.Err() != nil {
					renderer.Shutdown()
					return nil, err
				}
				slog.Error("download failed", "file", f.RelPath, "attempts", attempts, "error", err)
				result.Failures = append(result.Failures, models.SyncFailure{
					Name:      f.RelPath,
					RemoteURL: f.Entry.URL,
					Error:     err.Error(),
					Attempts:  attempts,
				})
				continue
			}
			result.Items = append(result.Items, s.itemFor(f, size, attempts))
			s.reportFile(f)
		}
		renderer.Wait()
	}

	result.TotalFiles = len(result.Items)
	result.TotalSizeBytes = lo.SumBy(result.Items, func(i models.SyncItem) int64 { return i.Size })
	result.TotalSizeHuman = utils.FormatBytes(result.TotalSizeBytes)
	result.SyncDuration = time.Since(start).String()
	return result, nil
}

func (s *Syncer) ensureTarget() error {
	if _, err := os.Stat(s.opts.TargetPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access target path %s: %w", s.opts.TargetPath, err)
	}
	if !s.opts.CreateMissing {
		return fmt.Errorf("target path does not exist: %s (enable create-missing to create it)", s.opts.TargetPath)
	}
	if err := os.MkdirAll(s.opts.TargetPath, 0o755); err != nil {
		return fmt.Errorf("failed to create target path %s: %w", s.opts.TargetPath, err)
	}
	return nil
}

// fetch downloads one file, retrying transient failures. Returns the bytes
// written and the number of attempts made.
func (s *Syncer) fetch(ctx context.Context, f PlannedEntry) (int64, int, error) {
	if err := os.MkdirAll(filepath.Dir(f.LocalPath), 0o755); err != nil {
		return 0, 0, fmt.Errorf("failed to create directory for %s: %w", f.RelPath, err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.opts.Retries; attempt++ {
		if attempt > 1 {
			slog.Warn("retrying download", "file", f.RelPath, "attempt", attempt)
			select {
			case <-ctx.Done():
				return 0, attempt - 1, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
		size, err := s.client.Download(ctx, f.Entry.URL, f.LocalPath, f.Entry.Modified)
		if err == nil {
			return size, attempt, nil
		}
		if ctx.Err() != nil {
			return 0, attempt, ctx.Err()
		}
		lastErr = err
	}
	return 0, s.opts.Retries, fmt.Errorf("failed after %d attempts: %w", s.opts.Retries, lastErr)
}

func (s *Syncer) itemFor(f PlannedEntry, size int64, attempts int) models.SyncItem {
	item := models.SyncItem{
		Name:      f.RelPath,
		RemoteURL: f.Entry.URL,
		LocalPath: f.LocalPath,
		Size:      size,
		Replaced:  f.Action == ActionReplace,
		Attempts:  attempts,
	}
	if !f.Entry.Modified.IsZero() {
		item.Modified = utils.FormatTime(f.Entry.Modified)
	}
	return item
}

func (s *Syncer) reportFile(f PlannedEntry) {
	if !s.opts.Verbose {
		return
	}
	if f.Action == ActionReplace {
		fmt.Fprintf(s.opts.Out, "%s replaced\n", f.RelPath)
		return
	}
	fmt.Fprintf(s.opts.Out, "%s completed\n", f.RelPath)
}

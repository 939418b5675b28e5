package syncer

import (
	"fmt"
	"os"
	"strings"
	"time"

	"ezsync/internal/ezshare"
)

const dayFolderLayout = "20060102"

// Window is the date filter applied to day folders under DATALOG.
// A zero Start means no filtering.
type Window struct {
	Start time.Time
}

// ParseWindow builds a Window from the start-from / day-count settings.
// startFrom takes precedence when both are given: it is either "all",
// the empty string, or a YYYYMMDD date. days counts back from now.
func ParseWindow(startFrom string, days int, now time.Time) (Window, error) {
	if startFrom != "" && !strings.EqualFold(startFrom, "all") {
		t, err := time.ParseInLocation(dayFolderLayout, startFrom, time.Local)
		if err != nil {
			return Window{}, fmt.Errorf("invalid start date %q: expected YYYYMMDD or 'all'", startFrom)
		}
		return Window{Start: t}, nil
	}
	if strings.EqualFold(startFrom, "all") || days <= 0 {
		return Window{}, nil
	}
	start := now.AddDate(0, 0, -days)
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.Local)
	return Window{Start: start}, nil
}

// Includes reports whether a day folder named name falls inside the window.
// Names that do not parse as YYYYMMDD are never filtered out.
func (w Window) Includes(name string) bool {
	if w.Start.IsZero() {
		return true
	}
	t, err := time.ParseInLocation(dayFolderLayout, name, time.Local)
	if err != nil {
		return true
	}
	return !t.Before(w.Start)
}

// IgnoreSet is the case-insensitive list of entry names that are never
// downloaded nor recursed into. Dotfiles are always ignored.
type IgnoreSet struct {
	names map[string]struct{}
}

// Names the card lists but OSCAR has no use for. "back to photo" is the
// navigation link on the card's photo page.
var defaultIgnores = []string{
	"back to photo",
	"ezshare.cfg",
	"JOURNAL.JNL",
	"System Volume Information",
}

func NewIgnoreSet(extra ...string) *IgnoreSet {
	s := &IgnoreSet{names: make(map[string]struct{}, len(defaultIgnores)+len(extra))}
	for _, name := range defaultIgnores {
		s.names[strings.ToLower(name)] = struct{}{}
	}
	for _, name := range extra {
		if name = strings.TrimSpace(name); name != "" {
			s.names[strings.ToLower(name)] = struct{}{}
		}
	}
	return s
}

func (s *IgnoreSet) Match(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, ok := s.names[strings.ToLower(name)]
	return ok
}

// decide compares a remote entry against the local file at localPath.
// A file is fetched when it is missing, its size differs, or the listing
// timestamp is newer than the local mtime. overwrite forces a fetch.
func decide(e ezshare.Entry, localPath string, overwrite bool) (Action, string) {
	fi, err := os.Stat(localPath)
	if err != nil {
		return ActionDownload, "missing locally"
	}
	if overwrite {
		return ActionReplace, "overwrite enabled"
	}
	if e.Size > 0 && fi.Size() != e.Size {
		return ActionReplace, "size mismatch"
	}
	// mtime granularity on FAT is two seconds, allow slack
	if !e.Modified.IsZero() && e.Modified.After(fi.ModTime().Add(2*time.Second)) {
		return ActionReplace, "remote is newer"
	}
	return ActionSkip, "up to date"
}

// Package cookie persists the counting-window state between invocations.
//
// The cookie is a tiny JSON file holding the unix timestamp of the last
// counted report. It decides two things per run: whether the current
// reporting window has already been counted, and which coarse bucket to
// report. The bucket is the privacy boundary: the server only ever sees
// an integer in 1..4, never a precise timestamp or a client identity.
package cookie

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Window is the reporting period: at most one report per window.
const Window = 7 * 24 * time.Hour

// Bucket boundaries for the window counter.
const (
	monthWindow    = 30 * 24 * time.Hour
	halfYearWindow = 180 * 24 * time.Hour
)

// Bucket values sent as the countme parameter.
const (
	BucketFirstWeek = 1 + iota
	BucketFirstMonth
	BucketFirstHalfYear
	BucketLongTerm
)

// Cookie is the persisted counting-window state.
type Cookie struct {
	// LastCounted is when a report last succeeded.
	LastCounted time.Time
}

// onDisk is the serialized form: {"epoch": <unix seconds>}.
type onDisk struct {
	Epoch int64 `json:"epoch"`
}

// CorruptError reports a cookie file that exists but cannot be parsed.
// Callers decide the policy; the reporter treats it as an open window.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt cookie file %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Store reads and writes the cookie at a fixed path.
type Store struct {
	Path string
}

// NewStore returns a Store for the given path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load reads the persisted cookie. An absent file returns (nil, nil):
// first-run behavior, window open. A present but unparseable file returns
// a *CorruptError.
func (s *Store) Load() (*Cookie, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &CorruptError{Path: s.Path, Err: err}
	}

	var d onDisk
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, &CorruptError{Path: s.Path, Err: err}
	}
	if d.Epoch <= 0 {
		return nil, &CorruptError{Path: s.Path, Err: fmt.Errorf("invalid epoch %d", d.Epoch)}
	}

	return &Cookie{LastCounted: time.Unix(d.Epoch, 0)}, nil
}

// Persist overwrites the stored timestamp with now. The write goes through
// a temp file and rename so a concurrent reader never sees a partial file.
func (s *Store) Persist(now time.Time) error {
	data, err := json.Marshal(onDisk{Epoch: now.Unix()})
	if err != nil {
		return fmt.Errorf("failed to encode cookie: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cookie directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cookie-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cookie: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cookie: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cookie: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod cookie: %w", err)
	}

	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cookie: %w", err)
	}
	return nil
}

// ExistingWindow reports whether the current window has already been
// counted, meaning the run should skip. A nil cookie (first run) always
// has an open window.
func (c *Cookie) ExistingWindow(now time.Time) bool {
	if c == nil {
		return false
	}
	return now.Sub(c.LastCounted) < Window
}

// WindowCounter returns the coarse bucket to report for this run. It is a
// pure function of elapsed time since the last counted report: monotonic,
// non-decreasing and bounded to 1..4. A nil cookie reports the base
// bucket (first ever report).
func (c *Cookie) WindowCounter(now time.Time) int {
	if c == nil {
		return BucketFirstWeek
	}
	elapsed := now.Sub(c.LastCounted)
	switch {
	case elapsed < Window:
		return BucketFirstWeek
	case elapsed < monthWindow:
		return BucketFirstMonth
	case elapsed < halfYearWindow:
		return BucketFirstHalfYear
	default:
		return BucketLongTerm
	}
}

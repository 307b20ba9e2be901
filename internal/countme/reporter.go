// Package countme implements the reporting run: decide whether a new
// counting window has opened, and if so send one anonymous counting
// request per opted-in repository.
package countme

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	clierrors "countme/internal/cli/errors"
	"countme/internal/cookie"
	"countme/internal/history"
	"countme/internal/logger"
	"countme/internal/release"
	"countme/internal/repo"
)

// Outcome classifies a completed run.
type Outcome string

const (
	OutcomeCounted Outcome = "counted"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Skip reasons.
const (
	ReasonNoEligibleRepos  = "no enabled repositories with countme=1"
	ReasonWindowNotElapsed = "not in a new counting window"
)

// RunResult describes what a run did.
type RunResult struct {
	Outcome   Outcome `json:"outcome"`
	Reason    string  `json:"reason,omitempty"`
	Successes int     `json:"successes"`
	Total     int     `json:"total"`
	Bucket    int     `json:"bucket,omitempty"`
	Err       error   `json:"-"`
}

// String renders the one-line human-readable status for this run.
func (r RunResult) String() string {
	switch r.Outcome {
	case OutcomeCounted:
		return fmt.Sprintf("Successful requests: %d/%d", r.Successes, r.Total)
	case OutcomeSkipped:
		return fmt.Sprintf("Skipping: %s", r.Reason)
	default:
		return fmt.Sprintf("Failed: %v", r.Err)
	}
}

// Recorder persists a completed run to the local journal.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Reporter orchestrates one counting run. All collaborators are injected
// so tests never touch the real filesystem or network.
type Reporter struct {
	// PlatformSupported gates the run; it reports whether the host is in
	// the supported deployment mode.
	PlatformSupported func() bool

	// MarkerPath is the filesystem marker PlatformSupported tests for;
	// it only feeds the error message when the gate fails.
	MarkerPath string

	// LoadRepos returns the full repository catalog.
	LoadRepos func() ([]repo.Repo, error)

	// LoadRelease returns the host release metadata.
	LoadRelease func() (*release.Release, error)

	// Cookies is the counting-window state store.
	Cookies *cookie.Store

	// Client dispatches counting requests.
	Client Doer

	// History records completed runs; nil disables the journal.
	History Recorder

	// Now is the clock; defaults to time.Now.
	Now func() time.Time

	Log *logger.Logger
}

// MarkerCheck returns a PlatformSupported func testing for a filesystem
// marker path.
func MarkerCheck(path string) func() bool {
	return func() bool {
		_, err := os.Stat(path)
		return err == nil
	}
}

func (r *Reporter) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run executes one counting pass.
func (r *Reporter) Run(ctx context.Context) RunResult {
	log := r.Log
	if log == nil {
		log = logger.Default()
	}

	if !r.PlatformSupported() {
		return RunResult{
			Outcome: OutcomeFailed,
			Err:     clierrors.UnsupportedPlatform(r.MarkerPath),
		}
	}

	catalog, err := r.LoadRepos()
	if err != nil {
		return RunResult{Outcome: OutcomeFailed, Err: err}
	}
	eligible := repo.Eligible(catalog)
	if len(eligible) == 0 {
		return RunResult{Outcome: OutcomeSkipped, Reason: ReasonNoEligibleRepos}
	}

	c, err := r.Cookies.Load()
	if err != nil {
		// A cookie we cannot read must not stop the host from being
		// counted. Treat it as absent; the next persist rewrites it.
		log.Warn("could not read existing cookie, treating window as open", "error", err)
		c = nil
	}

	now := r.now()
	if c.ExistingWindow(now) {
		return RunResult{Outcome: OutcomeSkipped, Reason: ReasonWindowNotElapsed}
	}

	rel, err := r.LoadRelease()
	if err != nil {
		return RunResult{Outcome: OutcomeFailed, Err: err}
	}
	ua := rel.UserAgent()
	log.Debug("using user agent", "user_agent", ua)

	// Every repository counted in this run reports the same window.
	counter := c.WindowCounter(now)

	successes := 0
	for _, rp := range eligible {
		url := rp.CountingURL(rel.VersionID, basearch(), counter)
		log.Info("sending counting request", "repo", rp.ID, "url", url)
		if err := r.Client.Get(ctx, url, ua); err != nil {
			log.Error("counting request failed", "repo", rp.ID, "url", url, "error", err)
			continue
		}
		successes++
	}

	if successes == 0 {
		// Leave the cookie untouched so the next scheduled run retries
		// the same window.
		return RunResult{
			Outcome: OutcomeFailed,
			Total:   len(eligible),
			Bucket:  counter,
			Err:     clierrors.AllRequestsFailed(len(eligible)),
		}
	}

	// The server already registered the count; local bookkeeping failures
	// must not turn the run into a failure.
	if err := r.Cookies.Persist(now); err != nil {
		log.Warn("failed to persist cookie", "error", err)
	}

	if r.History != nil {
		entry := history.Entry{
			CountedAt: now,
			Bucket:    counter,
			Successes: successes,
			Total:     len(eligible),
		}
		if err := r.History.Record(ctx, entry); err != nil {
			log.Warn("failed to record run in history", "error", err)
		}
	}

	return RunResult{
		Outcome:   OutcomeCounted,
		Successes: successes,
		Total:     len(eligible),
		Bucket:    counter,
	}
}

// basearch maps the Go architecture name to the package manager's
// $basearch convention.
func basearch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "386":
		return "i686"
	case "ppc64le":
		return "ppc64le"
	case "s390x":
		return "s390x"
	default:
		return runtime.GOARCH
	}
}

package countme

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	clierrors "countme/internal/cli/errors"
	"countme/internal/cookie"
	"countme/internal/history"
	"countme/internal/release"
	"countme/internal/repo"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// fakeClient records dispatched URLs and fails those listed in failURLs.
type fakeClient struct {
	urls     []string
	agents   []string
	failURLs map[string]bool
	failAll  bool
}

func (f *fakeClient) Get(_ context.Context, url, ua string) error {
	f.urls = append(f.urls, url)
	f.agents = append(f.agents, ua)
	if f.failAll || f.failURLs[url] {
		return errors.New("connection refused")
	}
	return nil
}

type fakeRecorder struct {
	entries []history.Entry
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, e history.Entry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func testCatalog() []repo.Repo {
	return []repo.Repo{
		{ID: "fedora", Enabled: true, CountMe: true, Metalink: "https://example/m?r=$releasever"},
		{ID: "rpmfusion", Enabled: true, CountMe: false, Metalink: "https://example/rf?r=$releasever"},
		{ID: "updates", Enabled: true, CountMe: true, Metalink: "https://example/u?r=$releasever"},
	}
}

func testRelease() *release.Release {
	return &release.Release{Name: "Fedora Linux", VersionID: "39", VariantID: "server"}
}

func newTestReporter(t *testing.T, client Doer, catalog []repo.Repo) *Reporter {
	t.Helper()
	return &Reporter{
		PlatformSupported: func() bool { return true },
		LoadRepos:         func() ([]repo.Repo, error) { return catalog, nil },
		LoadRelease:       func() (*release.Release, error) { return testRelease(), nil },
		Cookies:           cookie.NewStore(filepath.Join(t.TempDir(), "cookie.json")),
		Client:            client,
		Now:               func() time.Time { return testNow },
	}
}

func TestRun_UnsupportedPlatform(t *testing.T) {
	client := &fakeClient{}
	r := newTestReporter(t, client, testCatalog())
	r.PlatformSupported = func() bool { return false }
	r.MarkerPath = "/run/test-marker"

	result := r.Run(context.Background())

	if result.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %s, want failed", result.Outcome)
	}
	if !clierrors.HasCode(result.Err, clierrors.CodeUnsupportedPlatform) {
		t.Errorf("expected UNSUPPORTED_PLATFORM, got %v", result.Err)
	}
	if rich := clierrors.AsRich(result.Err); rich == nil || !strings.Contains(rich.Details, "/run/test-marker") {
		t.Errorf("expected error details to name the marker, got %+v", rich)
	}
	if len(client.urls) != 0 {
		t.Errorf("expected no requests, got %d", len(client.urls))
	}
}

func TestRun_NoEligibleRepos(t *testing.T) {
	client := &fakeClient{}
	catalog := []repo.Repo{
		{ID: "rpmfusion", Enabled: true, CountMe: false, Metalink: "https://example/rf"},
	}
	r := newTestReporter(t, client, catalog)

	result := r.Run(context.Background())

	if result.Outcome != OutcomeSkipped || result.Reason != ReasonNoEligibleRepos {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(client.urls) != 0 {
		t.Errorf("expected no requests, got %d", len(client.urls))
	}
}

func TestRun_WindowNotElapsed(t *testing.T) {
	client := &fakeClient{}
	r := newTestReporter(t, client, testCatalog())

	// Cookie persisted two days ago: window still fresh.
	if err := r.Cookies.Persist(testNow.Add(-2 * 24 * time.Hour)); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	result := r.Run(context.Background())

	if result.Outcome != OutcomeSkipped || result.Reason != ReasonWindowNotElapsed {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(client.urls) != 0 {
		t.Errorf("expected no requests, got %d", len(client.urls))
	}
}

func TestRun_DispatchesEligibleInOrder(t *testing.T) {
	client := &fakeClient{}
	r := newTestReporter(t, client, testCatalog())

	result := r.Run(context.Background())

	if result.Outcome != OutcomeCounted {
		t.Fatalf("outcome = %s, want counted (err: %v)", result.Outcome, result.Err)
	}
	if result.Successes != 2 || result.Total != 2 {
		t.Errorf("got %d/%d, want 2/2", result.Successes, result.Total)
	}

	// First run: bucket 1, eligible repos only, catalog order.
	want := []string{
		"https://example/m?r=39&countme=1",
		"https://example/u?r=39&countme=1",
	}
	if len(client.urls) != len(want) {
		t.Fatalf("dispatched %d requests, want %d: %v", len(client.urls), len(want), client.urls)
	}
	for i := range want {
		if client.urls[i] != want[i] {
			t.Errorf("request %d = %q, want %q", i, client.urls[i], want[i])
		}
	}

	for _, ua := range client.agents {
		if !strings.HasPrefix(ua, "countme (Fedora Linux 39; server; Linux.") {
			t.Errorf("unexpected user agent %q", ua)
		}
	}
}

func TestRun_SharedBucket(t *testing.T) {
	client := &fakeClient{}
	r := newTestReporter(t, client, testCatalog())

	// Last counted 40 days ago: bucket 3 for every request in this run.
	if err := r.Cookies.Persist(testNow.Add(-40 * 24 * time.Hour)); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	result := r.Run(context.Background())
	if result.Outcome != OutcomeCounted {
		t.Fatalf("outcome = %s, want counted", result.Outcome)
	}
	if result.Bucket != cookie.BucketFirstHalfYear {
		t.Errorf("bucket = %d, want %d", result.Bucket, cookie.BucketFirstHalfYear)
	}
	for _, u := range client.urls {
		if !strings.HasSuffix(u, fmt.Sprintf("countme=%d", cookie.BucketFirstHalfYear)) {
			t.Errorf("request %q does not share bucket %d", u, cookie.BucketFirstHalfYear)
		}
	}
}

func TestRun_AllRequestsFailed(t *testing.T) {
	client := &fakeClient{failAll: true}
	r := newTestReporter(t, client, testCatalog())

	before := testNow.Add(-10 * 24 * time.Hour)
	if err := r.Cookies.Persist(before); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	result := r.Run(context.Background())

	if result.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %s, want failed", result.Outcome)
	}
	if !clierrors.HasCode(result.Err, clierrors.CodeAllRequestsFailed) {
		t.Errorf("expected ALL_REQUESTS_FAILED, got %v", result.Err)
	}
	if len(client.urls) != 2 {
		t.Errorf("expected both repos attempted, got %d", len(client.urls))
	}

	// Cookie untouched: the next run retries the same window.
	c, err := r.Cookies.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !c.LastCounted.Equal(before) {
		t.Errorf("cookie timestamp changed: %v, want %v", c.LastCounted, before)
	}
}

func TestRun_PartialFailure(t *testing.T) {
	client := &fakeClient{failURLs: map[string]bool{
		"https://example/m?r=39&countme=1": true,
	}}
	r := newTestReporter(t, client, testCatalog())
	rec := &fakeRecorder{}
	r.History = rec

	result := r.Run(context.Background())

	if result.Outcome != OutcomeCounted {
		t.Fatalf("outcome = %s, want counted", result.Outcome)
	}
	if result.Successes != 1 || result.Total != 2 {
		t.Errorf("got %d/%d, want 1/2", result.Successes, result.Total)
	}

	// One success is enough to close the window.
	c, err := r.Cookies.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if c == nil || !c.LastCounted.Equal(testNow) {
		t.Errorf("cookie not updated to now: %+v", c)
	}

	if len(rec.entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(rec.entries))
	}
	e := rec.entries[0]
	if e.Successes != 1 || e.Total != 2 || e.Bucket != 1 {
		t.Errorf("unexpected history entry: %+v", e)
	}
}

func TestRun_CorruptCookieTreatedAsAbsent(t *testing.T) {
	client := &fakeClient{}
	r := newTestReporter(t, client, testCatalog())

	// Write garbage where the cookie should be.
	if err := writeFile(r.Cookies.Path, "not json"); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	result := r.Run(context.Background())

	if result.Outcome != OutcomeCounted {
		t.Fatalf("outcome = %s, want counted (err: %v)", result.Outcome, result.Err)
	}
	if result.Bucket != cookie.BucketFirstWeek {
		t.Errorf("bucket = %d, want base bucket", result.Bucket)
	}

	// The run self-heals the cookie.
	c, err := r.Cookies.Load()
	if err != nil {
		t.Fatalf("load after run failed: %v", err)
	}
	if c == nil || !c.LastCounted.Equal(testNow) {
		t.Errorf("cookie not rewritten: %+v", c)
	}
}

func TestRun_PersistFailureNonFatal(t *testing.T) {
	client := &fakeClient{}
	r := newTestReporter(t, client, testCatalog())

	// Put the cookie path under a plain file so Persist cannot create its
	// directory. The server-side count already registered, so the run
	// still succeeds.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	r.Cookies = cookie.NewStore(filepath.Join(blocker, "state", "cookie.json"))

	result := r.Run(context.Background())

	if result.Outcome != OutcomeCounted {
		t.Fatalf("outcome = %s, want counted (err: %v)", result.Outcome, result.Err)
	}
	if result.Successes != 2 || result.Total != 2 {
		t.Errorf("got %d/%d, want 2/2", result.Successes, result.Total)
	}
}

func TestRun_HistoryFailureIsNonFatal(t *testing.T) {
	client := &fakeClient{}
	r := newTestReporter(t, client, testCatalog())
	r.History = &fakeRecorder{err: errors.New("disk full")}

	result := r.Run(context.Background())

	if result.Outcome != OutcomeCounted {
		t.Errorf("outcome = %s, want counted", result.Outcome)
	}
}

func TestRun_CatalogErrorIsFatal(t *testing.T) {
	client := &fakeClient{}
	r := newTestReporter(t, client, nil)
	r.LoadRepos = func() ([]repo.Repo, error) {
		return nil, clierrors.CatalogUnreadable("/etc/yum.repos.d/broken.repo", errors.New("permission denied"))
	}

	result := r.Run(context.Background())

	if result.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %s, want failed", result.Outcome)
	}
	if !clierrors.HasCode(result.Err, clierrors.CodeCatalogUnreadable) {
		t.Errorf("expected CATALOG_UNREADABLE, got %v", result.Err)
	}
}

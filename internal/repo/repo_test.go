package repo

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeRepoFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestLoad_MissingDir(t *testing.T) {
	repos, err := Load([]string{"/nonexistent/path/for/countme/test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repos) != 0 {
		t.Errorf("expected empty catalog, got %d entries", len(repos))
	}
}

func TestLoad_ParsesEntries(t *testing.T) {
	dir := t.TempDir()
	writeRepoFile(t, dir, "fedora.repo", `
[fedora]
name=Fedora $releasever
metalink=https://mirrors.example.org/metalink?repo=fedora-$releasever&arch=$basearch
enabled=1
countme=1

[fedora-debuginfo]
metalink=https://mirrors.example.org/metalink?repo=fedora-debug-$releasever&arch=$basearch
enabled=0
countme=1
`)

	repos, err := Load([]string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repos) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(repos))
	}

	if repos[0].ID != "fedora" || !repos[0].Enabled || !repos[0].CountMe {
		t.Errorf("unexpected first entry: %+v", repos[0])
	}
	if repos[1].ID != "fedora-debuginfo" || repos[1].Enabled {
		t.Errorf("unexpected second entry: %+v", repos[1])
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeRepoFile(t, dir, "updates.repo", `
[updates]
metalink=https://mirrors.example.org/metalink?repo=updates-$releasever
`)

	repos, err := Load([]string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repos) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repos))
	}

	// enabled defaults to true, countme defaults to false
	if !repos[0].Enabled {
		t.Error("expected enabled to default to true")
	}
	if repos[0].CountMe {
		t.Error("expected countme to default to false")
	}
}

func TestLoad_StableOrder(t *testing.T) {
	dir := t.TempDir()
	writeRepoFile(t, dir, "b.repo", "[bravo]\nmetalink=https://b.example/m\n")
	writeRepoFile(t, dir, "a.repo", "[alpha]\nmetalink=https://a.example/m\n")

	repos, err := Load([]string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, r := range repos {
		ids = append(ids, r.ID)
	}
	want := []string{"alpha", "bravo"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("catalog order = %v, want %v", ids, want)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeRepoFile(t, dir, "broken.repo", "[unclosed\nmetalink=https://x\n")

	if _, err := Load([]string{dir}); err == nil {
		t.Fatal("expected error for malformed repo file")
	}
}

func TestEligible(t *testing.T) {
	catalog := []Repo{
		{ID: "fedora", Enabled: true, CountMe: true, Metalink: "https://example/m?r=$releasever"},
		{ID: "rpmfusion", Enabled: true, CountMe: false, Metalink: "https://example/rf"},
		{ID: "disabled", Enabled: false, CountMe: true, Metalink: "https://example/d"},
		{ID: "no-metalink", Enabled: true, CountMe: true, Metalink: ""},
		{ID: "updates", Enabled: true, CountMe: true, Metalink: "https://example/u?r=$releasever"},
	}

	got := Eligible(catalog)
	if len(got) != 2 {
		t.Fatalf("expected 2 eligible entries, got %d", len(got))
	}
	if got[0].ID != "fedora" || got[1].ID != "updates" {
		t.Errorf("eligible order = [%s %s], want [fedora updates]", got[0].ID, got[1].ID)
	}

	// Idempotent
	again := Eligible(got)
	if !reflect.DeepEqual(again, got) {
		t.Error("Eligible is not idempotent")
	}
}

func TestMetalinkURL(t *testing.T) {
	r := Repo{Metalink: "https://mirrors.example.org/metalink?repo=fedora-$releasever&arch=${basearch}"}

	got := r.MetalinkURL("39", "x86_64")
	want := "https://mirrors.example.org/metalink?repo=fedora-39&arch=x86_64"
	if got != want {
		t.Errorf("MetalinkURL = %q, want %q", got, want)
	}
}

func TestCountingURL(t *testing.T) {
	tests := []struct {
		name     string
		metalink string
		want     string
	}{
		{
			name:     "with query string",
			metalink: "https://example/m?r=$releasever",
			want:     "https://example/m?r=39&countme=2",
		},
		{
			name:     "without query string",
			metalink: "https://example/metalink",
			want:     "https://example/metalink?countme=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Repo{Metalink: tt.metalink}
			got := r.CountingURL("39", "x86_64", 2)
			if got != tt.want {
				t.Errorf("CountingURL = %q, want %q", got, tt.want)
			}
		})
	}
}

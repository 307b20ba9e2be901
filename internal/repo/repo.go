// Package repo loads repository definitions from dnf-style *.repo files
// and selects the entries eligible for usage counting.
//
// A .repo file is an INI document; every section is one repository whose
// id is the section name. Only three keys matter here: enabled, metalink
// and countme. Everything else the package manager understands is ignored.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	clierrors "countme/internal/cli/errors"

	"gopkg.in/ini.v1"
)

// Repo is one repository entry from the host catalog.
type Repo struct {
	ID       string `json:"id"`
	Enabled  bool   `json:"enabled"`
	Metalink string `json:"metalink"`
	CountMe  bool   `json:"countme"`
}

// Load reads all *.repo files from the given directories, in order.
// Files within a directory are processed in sorted name order and sections
// in file order, so the resulting catalog order is stable across runs.
//
// A missing directory yields no entries and no error. A present but
// unreadable or unparseable file is fatal for the run.
func Load(dirs []string) ([]Repo, error) {
	var repos []Repo

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, clierrors.CatalogUnreadable(dir, err)
		}

		var files []string
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".repo") {
				continue
			}
			files = append(files, e.Name())
		}
		sort.Strings(files)

		for _, name := range files {
			path := filepath.Join(dir, name)
			parsed, err := parseFile(path)
			if err != nil {
				return nil, err
			}
			repos = append(repos, parsed...)
		}
	}

	return repos, nil
}

// parseFile parses a single .repo file into its repository entries.
func parseFile(path string) ([]Repo, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, clierrors.CatalogUnreadable(path, err)
	}

	var repos []Repo
	for _, section := range f.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}

		r := Repo{
			ID: section.Name(),
			// dnf treats repos as enabled unless enabled=0
			Enabled:  boolKey(section, "enabled", true),
			Metalink: section.Key("metalink").String(),
			// counting is strictly opt-in
			CountMe: boolKey(section, "countme", false),
		}
		repos = append(repos, r)
	}

	return repos, nil
}

// boolKey reads a dnf-style boolean (1/0, true/false, yes/no) with a default.
func boolKey(section *ini.Section, name string, def bool) bool {
	if !section.HasKey(name) {
		return def
	}
	v, err := section.Key(name).Bool()
	if err != nil {
		return def
	}
	return v
}

// Eligible filters the catalog to entries that may be counted: enabled,
// explicitly opted in, and carrying a metalink template. The filter is
// pure and order-preserving.
func Eligible(repos []Repo) []Repo {
	var out []Repo
	for _, r := range repos {
		if r.Enabled && r.CountMe && r.Metalink != "" {
			out = append(out, r)
		}
	}
	return out
}

// MetalinkURL expands the repository's metalink template for the given
// release version and base architecture.
func (r Repo) MetalinkURL(releasever, basearch string) string {
	return strings.NewReplacer(
		"${releasever}", releasever,
		"$releasever", releasever,
		"${basearch}", basearch,
		"$basearch", basearch,
	).Replace(r.Metalink)
}

// CountingURL appends the window counter to the expanded metalink URL.
// Metalink templates normally already carry a query string; a '?' is used
// only when one is absent.
func (r Repo) CountingURL(releasever, basearch string, counter int) string {
	url := r.MetalinkURL(releasever, basearch)
	sep := "&"
	if !strings.Contains(url, "?") {
		sep = "?"
	}
	return fmt.Sprintf("%s%scountme=%d", url, sep, counter)
}

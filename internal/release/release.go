// Package release reads OS release metadata used for the counting
// request context and the user-agent string.
package release

import (
	"fmt"
	"runtime"

	"gopkg.in/ini.v1"
)

// DefaultVariantID is reported when the host has no VARIANT_ID set.
const DefaultVariantID = "unknown"

// Release holds the os-release fields the reporter needs.
type Release struct {
	Name      string
	VersionID string
	VariantID string
}

// Load parses an os-release file (KEY=value lines, values optionally
// quoted). Only NAME, VERSION_ID and VARIANT_ID are read.
func Load(path string) (*Release, error) {
	// os-release is a flat key=value document; ini's sectionless parse
	// handles the quoting rules.
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read os-release %s: %w", path, err)
	}

	section := f.Section(ini.DefaultSection)
	return &Release{
		Name:      section.Key("NAME").String(),
		VersionID: section.Key("VERSION_ID").String(),
		VariantID: section.Key("VARIANT_ID").String(),
	}, nil
}

// Variant returns the variant identifier, falling back to the fixed
// default when the host does not define one.
func (r *Release) Variant() string {
	if r.VariantID == "" {
		return DefaultVariantID
	}
	return r.VariantID
}

// UserAgent builds the user-agent string for counting requests. The
// format follows the package manager's convention:
//
//	countme (Fedora 39; server; Linux.amd64)
func (r *Release) UserAgent() string {
	return fmt.Sprintf("countme (%s %s; %s; %s.%s)",
		r.Name, r.VersionID, r.Variant(), "Linux", runtime.GOARCH)
}

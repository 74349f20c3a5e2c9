package brew

import (
	"slices"
	"strings"
)

// Package is one formula or cask.
type Package struct {
	Name    string  `json:"name"`
	Version *string `json:"version"`
	Kind    Kind    `json:"kind"`
}

// Status describes the located brew installation.
type Status struct {
	BrewPath string `json:"brewPath"`
	Version  string `json:"version"`
}

// parseVersioned parses "name version..." lines as printed by
// `brew list --versions`. Only the first version is kept.
func parseVersioned(out string, kind Kind) []Package {
	var pkgs []Package
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		p := Package{Name: fields[0], Kind: kind}
		if len(fields) > 1 {
			v := fields[1]
			p.Version = &v
		}
		pkgs = append(pkgs, p)
	}
	return pkgs
}

// parseNames takes the first field of each non-blank line, as printed by
// `brew outdated --verbose`.
func parseNames(out string, kind Kind) []Package {
	var pkgs []Package
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		pkgs = append(pkgs, Package{Name: fields[0], Kind: kind})
	}
	return pkgs
}

// parseSearch keeps each trimmed line except blanks and "==> Formulae"
// style headers.
func parseSearch(out string, kind Kind) []Package {
	var pkgs []Package
	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || strings.HasPrefix(name, "=") {
			continue
		}
		pkgs = append(pkgs, Package{Name: name, Kind: kind})
	}
	return pkgs
}

// parseLines returns the trimmed non-blank lines of out.
func parseLines(out string) []string {
	lines := []string{}
	for _, line := range strings.Split(out, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}

// firstLine returns the first line of out without its line ending.
func firstLine(out string) string {
	line, _, _ := strings.Cut(out, "\n")
	return strings.TrimRight(line, "\r")
}

func sortByName(pkgs []Package) {
	slices.SortStableFunc(pkgs, func(a, b Package) int {
		return strings.Compare(a.Name, b.Name)
	})
}

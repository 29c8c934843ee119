// Package template matches track datafiles to submission templates and fills
// the templates in for a genome.
package template

import (
	"path/filepath"
	"slices"
	"strings"
)

// Default skip rules: variant focus tracks and summary bigwigs are served
// through other tracks.
var (
	DefaultSkipNames    = []string{"variant-details"}
	DefaultSkipSuffixes = []string{"summary"}
)

// MatchKind records which rule selected a template.
type MatchKind int

const (
	MatchExact MatchKind = iota
	MatchForwardPrefix
	MatchReversePrefix
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchForwardPrefix:
		return "forward-prefix"
	case MatchReversePrefix:
		return "reverse-prefix"
	}
	return "unknown"
}

// Match is one template selected for a datafile. Datafile is set only for
// reverse prefix matches, where the template's own file must be replaced.
type Match struct {
	Template string
	Kind     MatchKind
	Datafile string
}

// Resolution is the outcome for one datafile. Skipped and an empty Matches
// are distinct: a skipped file is expected to have no track.
type Resolution struct {
	Stem    string
	Skipped bool
	Matches []Match
}

type Resolver struct {
	names        []string
	skipNames    []string
	skipSuffixes []string
}

type ResolverOption func(*Resolver)

func WithSkipNames(names ...string) ResolverOption {
	return func(r *Resolver) {
		r.skipNames = names
	}
}

func WithSkipSuffixes(suffixes ...string) ResolverOption {
	return func(r *Resolver) {
		r.skipSuffixes = suffixes
	}
}

// NewResolver resolves against names. The names are sorted so the reverse
// prefix fallback picks the same template on every run.
func NewResolver(names []string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		names:        slices.Sorted(slices.Values(names)),
		skipNames:    DefaultSkipNames,
		skipSuffixes: DefaultSkipSuffixes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Names() []string {
	return slices.Clone(r.names)
}

// Resolve selects the templates for datafile. Rules apply in order and the
// first rule that matches wins:
//  1. stems on the skip lists are skipped
//  2. a template named exactly like the stem
//  3. every template whose name starts with the stem (one file, many tracks)
//  4. the first template whose name the stem starts with (many files, one track)
func (r *Resolver) Resolve(datafile string) Resolution {
	stem := Stem(datafile)
	res := Resolution{Stem: stem}
	if stem == "" {
		return res
	}
	if r.skip(stem) {
		res.Skipped = true
		return res
	}
	if _, ok := slices.BinarySearch(r.names, stem); ok {
		res.Matches = []Match{{Template: stem, Kind: MatchExact}}
		return res
	}
	for _, name := range r.names {
		if strings.HasPrefix(name, stem) {
			res.Matches = append(res.Matches, Match{Template: name, Kind: MatchForwardPrefix})
		}
	}
	if len(res.Matches) > 0 {
		return res
	}
	for _, name := range r.names {
		if strings.HasPrefix(stem, name) {
			res.Matches = []Match{{Template: name, Kind: MatchReversePrefix, Datafile: datafile}}
			return res
		}
	}
	return res
}

func (r *Resolver) skip(stem string) bool {
	if slices.Contains(r.skipNames, stem) {
		return true
	}
	for _, suffix := range r.skipSuffixes {
		if strings.HasSuffix(stem, suffix) {
			return true
		}
	}
	return false
}

// Stem strips the directory and the last extension.
func Stem(datafile string) string {
	base := filepath.Base(datafile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FilterNames keeps the names starting with one of include (all names when
// include is empty) and drops those starting with one of exclude.
func FilterNames(names, include, exclude []string) []string {
	var out []string
	for _, name := range names {
		if len(include) > 0 && !hasAnyPrefix(name, include) {
			continue
		}
		if hasAnyPrefix(name, exclude) {
			continue
		}
		out = append(out, name)
	}
	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

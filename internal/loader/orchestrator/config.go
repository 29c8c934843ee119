// Package orchestrator drives track submission across genomes and datafiles.
package orchestrator

import (
	"errors"
	"slices"
	"strings"
)

// Mode selects what happens to each resolved track.
type Mode int

const (
	// ModeSubmit submits tracks and skips the ones that already exist.
	ModeSubmit Mode = iota
	// ModeDryRun logs the payloads without contacting the API.
	ModeDryRun
	// ModeOverwrite deletes the tracks of each genome before submitting.
	ModeOverwrite
)

func (m Mode) String() string {
	switch m {
	case ModeDryRun:
		return "dry-run"
	case ModeOverwrite:
		return "overwrite"
	}
	return "submit"
}

// DefaultExtensions are the datafile types picked up from a data directory.
var DefaultExtensions = []string{".bb", ".bw"}

// Config is fixed for a run. New copies it, so changing the caller's slices
// after that has no effect.
type Config struct {
	// DataDir holds one subdirectory per genome, named by genome UUID.
	DataDir string
	// Genomes limits a directory walk, or lists the genomes to load when
	// DataDir is empty.
	Genomes []string
	// Files limits a directory walk to these datafile names, or lists the
	// datafiles to resolve for each genome.
	Files []string
	// Templates keeps templates starting with one of these prefixes. Without
	// a data directory the names themselves are resolved for each genome.
	Templates []string
	// Exclude drops templates starting with one of these prefixes.
	Exclude []string
	// Resume skips genomes up to this one, in enumeration order.
	Resume     string
	Mode       Mode
	Extensions []string
}

var (
	ErrNoInput    = errors.New("provide either a data directory or a list of genomes with files or templates")
	ErrNoTemplate = errors.New("no track templates left after filtering")
)

func (c Config) clone() Config {
	c.Genomes = slices.Clone(c.Genomes)
	c.Files = slices.Clone(c.Files)
	c.Templates = trimExt(c.Templates)
	c.Exclude = slices.Clone(c.Exclude)
	c.Extensions = slices.Clone(c.Extensions)
	if len(c.Extensions) == 0 {
		c.Extensions = slices.Clone(DefaultExtensions)
	}
	return c
}

// Validate checks that the config names something to load.
func (c Config) Validate() error {
	if c.DataDir == "" && (len(c.Genomes) == 0 || (len(c.Files) == 0 && len(c.Templates) == 0)) {
		return ErrNoInput
	}
	return nil
}

// explicitList reports whether genomes and items come from the config rather
// than from walking DataDir.
func (c Config) explicitList() bool {
	return c.DataDir == ""
}

func trimExt(templates []string) []string {
	out := make([]string, 0, len(templates))
	for _, t := range templates {
		out = append(out, strings.TrimSuffix(t, ".yaml"))
	}
	return out
}

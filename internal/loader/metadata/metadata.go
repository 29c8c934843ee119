// Package metadata supplies genome specific labels, descriptions and sources
// that override the defaults of gene and variant track templates.
package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tansive/trackcatalog/pkg/api"
)

// Track kinds with genome specific metadata.
const (
	KindGene    = "gene"
	KindVariant = "variant"
)

// Record holds the overrides for one genome and track kind.
type Record struct {
	GenomeID    string
	Description string
	TrackName   string
	SourceNames []string
	SourceURLs  []string
}

// Source looks up the record of a genome. A missing record is not an error.
type Source interface {
	Lookup(ctx context.Context, kind, genomeID string) (*Record, bool, error)
}

// Prefixes decides which templates receive metadata.
type Prefixes struct {
	Gene    []string
	Variant []string
}

func DefaultPrefixes() Prefixes {
	return Prefixes{
		Gene:    []string{"transcripts"},
		Variant: []string{"variant-ensembl"},
	}
}

// KindOf returns the metadata kind of a template, or "" when none applies.
func (p Prefixes) KindOf(template string) string {
	for _, prefix := range p.Gene {
		if strings.HasPrefix(template, prefix) {
			return KindGene
		}
	}
	for _, prefix := range p.Variant {
		if strings.HasPrefix(template, prefix) {
			return KindVariant
		}
	}
	return ""
}

// Apply merges rec into req. The track name replaces the label. A gene
// description adds a provenance sentence to the template text while a
// variant description replaces it. Sources are added only when the name and
// url lists line up; pairs with an empty name or url are skipped.
func Apply(req *api.TrackRequest, kind string, rec *Record, logger zerolog.Logger) {
	if rec == nil {
		return
	}
	if rec.TrackName != "" {
		req.Label = rec.TrackName
	}
	firstSource := ""
	if len(rec.SourceNames) > 0 {
		firstSource = strings.TrimSpace(rec.SourceNames[0])
	}
	if rec.Description != "" {
		switch kind {
		case KindGene:
			if firstSource != "" {
				req.Description += fmt.Sprintf("\nGenes %s %s.", provenance(rec.Description), firstSource)
			}
		case KindVariant:
			req.Description = rec.Description
		}
	}
	if firstSource == "" {
		return
	}
	if len(rec.SourceNames) != len(rec.SourceURLs) {
		logger.Warn().
			Str("label", req.Label).
			Int("names", len(rec.SourceNames)).
			Int("urls", len(rec.SourceURLs)).
			Msg("source names and urls do not line up, no sources added")
		return
	}
	for i, name := range rec.SourceNames {
		name = strings.TrimSpace(name)
		url := strings.TrimSpace(rec.SourceURLs[i])
		if name == "" || url == "" {
			logger.Warn().Str("label", req.Label).Msg("missing source name or URL")
			continue
		}
		req.Sources = append(req.Sources, api.Source{Name: name, URL: url})
	}
}

func provenance(description string) string {
	if description == "Annotated" {
		return "annotated by"
	}
	return "imported from"
}

// splitList splits a comma separated cell. An empty cell yields one empty
// entry, the same shape as a cell with a single value.
func splitList(s string) []string {
	return strings.Split(s, ",")
}

package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	commonuuid "github.com/tansive/trackcatalog/internal/common/uuid"
	"github.com/tansive/trackcatalog/internal/loader/metadata"
	"github.com/tansive/trackcatalog/internal/loader/template"
	"github.com/tansive/trackcatalog/internal/loader/trackclient"
	"github.com/tansive/trackcatalog/pkg/api"
)

// Submitter is the part of the track API the orchestrator talks to.
type Submitter interface {
	SubmitTrack(ctx context.Context, req *api.TrackRequest) (trackclient.SubmitStatus, string, error)
	DeleteGenomeTracks(ctx context.Context, genomeID string) (trackclient.DeleteStatus, error)
}

var _ Submitter = (*trackclient.Client)(nil)

// FatalError stops a run. Any error returned by Run other than a context
// error is one.
type FatalError struct {
	GenomeID string
	Item     string
	Err      error
}

func (e *FatalError) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("genome %s: %v", e.GenomeID, e.Err)
	}
	return fmt.Sprintf("genome %s, %s: %v", e.GenomeID, e.Item, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

type Orchestrator struct {
	cfg       Config
	templates *template.Store
	resolver  *template.Resolver
	meta      metadata.Source
	prefixes  metadata.Prefixes
	client    Submitter
	summary   Summary
}

type Option func(*Orchestrator)

// WithMetadata overlays genome specific descriptions and sources on the
// templates whose names carry one of the given prefixes.
func WithMetadata(src metadata.Source, prefixes metadata.Prefixes) Option {
	return func(o *Orchestrator) {
		o.meta = src
		o.prefixes = prefixes
	}
}

// New prepares a run. The templates left after the include and exclude
// filters are the only ones datafiles resolve against.
func New(cfg Config, templates *template.Store, client Submitter, opts ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if templates == nil {
		return nil, errors.New("template store is required")
	}
	if client == nil && cfg.Mode != ModeDryRun {
		return nil, errors.New("track API client is required")
	}
	o := &Orchestrator{
		cfg:       cfg.clone(),
		templates: templates,
		client:    client,
		prefixes:  metadata.DefaultPrefixes(),
	}
	names := template.FilterNames(templates.Names(), o.cfg.Templates, o.cfg.Exclude)
	if len(names) == 0 {
		return nil, ErrNoTemplate
	}
	o.resolver = template.NewResolver(names)
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run processes every genome once. Per-item failures end up in the summary
// and the run goes on; a failed API call or metadata lookup stops it and is
// returned with the summary so far.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	o.summary = Summary{}
	var err error
	if o.cfg.explicitList() {
		err = o.processTrackList(ctx)
	} else {
		err = o.processDataDir(ctx)
	}
	return o.summary, err
}

func (o *Orchestrator) processDataDir(ctx context.Context) error {
	logger := log.Ctx(ctx)
	entries, err := os.ReadDir(o.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("unable to read data directory: %w", err)
	}
	var genomes []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if !commonuuid.IsCanonical(e.Name()) {
			logger.Warn().Str("dir", e.Name()).Msg("directory is not a genome UUID, skipping")
			continue
		}
		if len(o.cfg.Genomes) > 0 && !slices.Contains(o.cfg.Genomes, e.Name()) {
			continue
		}
		genomes = append(genomes, e.Name())
	}
	// os.ReadDir already sorts by name; keep the order explicit
	slices.Sort(genomes)

	return o.forEachGenome(ctx, genomes, func(genomeID string) error {
		files, err := o.datafiles(filepath.Join(o.cfg.DataDir, genomeID))
		if err != nil {
			o.fail(genomeID, "", "", err.Error())
			return nil
		}
		for _, f := range files {
			if len(o.cfg.Files) > 0 && len(o.cfg.Templates) == 0 && !slices.Contains(o.cfg.Files, f) {
				continue
			}
			if err := o.matchTemplates(ctx, genomeID, f); err != nil {
				return err
			}
		}
		return nil
	})
}

func (o *Orchestrator) processTrackList(ctx context.Context) error {
	items := o.cfg.Templates
	if len(items) == 0 {
		items = o.cfg.Files
	}
	return o.forEachGenome(ctx, o.cfg.Genomes, func(genomeID string) error {
		for _, item := range items {
			if err := o.matchTemplates(ctx, genomeID, item); err != nil {
				return err
			}
		}
		return nil
	})
}

// forEachGenome applies resume and overwrite around fn.
func (o *Orchestrator) forEachGenome(ctx context.Context, genomes []string, fn func(genomeID string) error) error {
	logger := log.Ctx(ctx)
	resuming := o.cfg.Resume != ""
	for i, genomeID := range genomes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if resuming {
			if genomeID != o.cfg.Resume {
				o.summary.GenomesSkipped++
				continue
			}
			resuming = false
		}
		logger.Info().
			Str("genome_id", genomeID).
			Msgf("Processing genome %d/%d", i+1, len(genomes))
		o.summary.Genomes++
		if o.cfg.Mode == ModeOverwrite {
			if err := o.deleteTracks(ctx, genomeID); err != nil {
				return err
			}
		}
		if err := fn(genomeID); err != nil {
			return err
		}
	}
	if resuming {
		logger.Warn().Str("resume", o.cfg.Resume).Msg("resume genome not found, nothing processed")
	}
	return nil
}

func (o *Orchestrator) deleteTracks(ctx context.Context, genomeID string) error {
	logger := log.Ctx(ctx)
	status, err := o.client.DeleteGenomeTracks(ctx, genomeID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// submissions upsert, so a failed delete only leaves stale tracks behind
		logger.Warn().Err(err).Str("genome_id", genomeID).Msg("unable to delete existing tracks")
		return nil
	}
	if status == trackclient.NothingToDelete {
		logger.Info().Str("genome_id", genomeID).Msg("No tracks to delete")
		return nil
	}
	o.summary.Deleted++
	logger.Info().Str("genome_id", genomeID).Msg("Deleted existing tracks")
	return nil
}

// datafiles lists the files in dir with one of the configured extensions.
func (o *Orchestrator) datafiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read genome directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(o.cfg.Extensions, filepath.Ext(e.Name())) {
			continue
		}
		files = append(files, e.Name())
	}
	return files, nil
}

func (o *Orchestrator) matchTemplates(ctx context.Context, genomeID, item string) error {
	logger := log.Ctx(ctx)
	res := o.resolver.Resolve(item)
	if res.Skipped {
		o.summary.Skipped++
		logger.Debug().Str("datafile", item).Msg("datafile skipped")
		return nil
	}
	if len(res.Matches) == 0 {
		o.summary.Unmatched++
		logger.Warn().Str("genome_id", genomeID).Str("datafile", item).Msg("No matching template")
		return nil
	}
	for _, m := range res.Matches {
		if err := o.applyTemplate(ctx, genomeID, item, m); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) applyTemplate(ctx context.Context, genomeID, item string, m template.Match) error {
	logger := log.Ctx(ctx)
	t, err := o.templates.Load(m.Template)
	if err != nil {
		o.fail(genomeID, item, m.Template, err.Error())
		return nil
	}
	req := template.Instantiate(t, genomeID, m.Datafile)

	if o.meta != nil {
		if kind := o.prefixes.KindOf(m.Template); kind != "" {
			rec, ok, err := o.meta.Lookup(ctx, kind, genomeID)
			if err != nil {
				return &FatalError{GenomeID: genomeID, Item: item, Err: err}
			}
			if !ok && kind == metadata.KindGene {
				logger.Warn().Str("genome_id", genomeID).Msg("Missing gene track descriptions.")
			}
			metadata.Apply(req, kind, rec, *logger)
		}
	}

	if msgs := api.Validate(req); len(msgs) > 0 {
		o.fail(genomeID, item, m.Template, "invalid track payload: "+strings.Join(msgs, "; "))
		return nil
	}

	if o.cfg.Mode == ModeDryRun {
		o.summary.DryRun++
		payload, _ := json.Marshal(req)
		logger.Info().
			Str("genome_id", genomeID).
			Str("template", m.Template).
			RawJSON("payload", payload).
			Msg("Dry run")
		return nil
	}

	status, trackID, err := o.client.SubmitTrack(ctx, req)
	if err != nil {
		return &FatalError{GenomeID: genomeID, Item: item, Err: err}
	}
	switch status {
	case trackclient.AlreadyExists:
		o.summary.Existing++
		logger.Info().
			Str("genome_id", genomeID).
			Str("template", m.Template).
			Msg("Track already exists, skipping.")
	default:
		o.summary.Submitted++
		logger.Info().
			Str("genome_id", genomeID).
			Str("template", m.Template).
			Str("track_id", trackID).
			Msg("Track submitted")
	}
	return nil
}

func (o *Orchestrator) fail(genomeID, item, tmpl, reason string) {
	o.summary.Failures = append(o.summary.Failures, Failure{
		GenomeID: genomeID,
		Item:     item,
		Template: tmpl,
		Reason:   reason,
	})
}

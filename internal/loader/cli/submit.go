package cli

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tansive/trackcatalog/internal/loader/metadata"
	"github.com/tansive/trackcatalog/internal/loader/orchestrator"
	"github.com/tansive/trackcatalog/internal/loader/template"
)

type submitOptions struct {
	dataDir     string
	templateDir string
	genomes     []string
	files       []string
	templates   []string
	exclude     []string
	resume      string
	dryRun      bool
	overwrite   bool
	strict      bool
	noMetadata  bool
	metadataDSN string
}

func newSubmitCmd(root *rootOptions) *cobra.Command {
	opts := &submitOptions{}
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit tracks built from templates",
		Long: `Submit tracks built from the templates in the template directory.

With a data directory, every genome subdirectory is walked in lexical order and
each datafile is matched to the templates it belongs to. Without one, the given
genomes are combined with the given template or file names.

Examples:
  trackloader submit -d /data/tracks
  trackloader submit -d /data/tracks -g 2284d28a-2cf7-41f0-bed6-0982601f7888 --overwrite
  trackloader submit -g 2284d28a-2cf7-41f0-bed6-0982601f7888 -t transcripts,repeats --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, root)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.dataDir, "data-dir", "d", "", "Directory with one subdirectory per genome (default $"+EnvDataDir+")")
	f.StringVar(&opts.templateDir, "template-dir", "templates", "Directory with the track templates and metadata extracts")
	f.StringSliceVarP(&opts.genomes, "genomes", "g", nil, "Genome UUIDs to process")
	f.StringSliceVarP(&opts.files, "files", "f", nil, "Datafile names to process")
	f.StringSliceVarP(&opts.templates, "templates", "t", nil, "Only use templates starting with these names")
	f.StringSliceVarP(&opts.exclude, "exclude", "x", nil, "Skip templates starting with these names")
	f.StringVar(&opts.resume, "resume", "", "Skip genomes until this one")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Log the payloads instead of submitting them")
	f.BoolVar(&opts.overwrite, "overwrite", false, "Delete the tracks of each genome before submitting")
	f.BoolVar(&opts.strict, "strict", false, "Exit with an error when any track could not be prepared")
	f.BoolVar(&opts.noMetadata, "no-metadata", false, "Do not overlay genome metadata on gene and variant tracks")
	f.StringVar(&opts.metadataDSN, "metadata-dsn", "", "Read genome metadata from this Postgres catalog instead of the CSV extracts")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "overwrite")
	return cmd
}

func (o *submitOptions) config(root *rootOptions) orchestrator.Config {
	cfg := orchestrator.Config{
		DataDir:    o.dataDir,
		Genomes:    o.genomes,
		Files:      o.files,
		Templates:  o.templates,
		Exclude:    o.exclude,
		Resume:     o.resume,
		Extensions: root.config.Extensions,
	}
	if cfg.DataDir == "" {
		cfg.DataDir = root.config.DataDir
	}
	switch {
	case o.dryRun:
		cfg.Mode = orchestrator.ModeDryRun
	case o.overwrite:
		cfg.Mode = orchestrator.ModeOverwrite
	}
	return cfg
}

func (o *submitOptions) run(cmd *cobra.Command, root *rootOptions) error {
	ctx := cmd.Context()
	logger := log.Ctx(ctx)
	cfg := o.config(root)

	templateDir := o.templateDir
	if !cmd.Flags().Changed("template-dir") && root.config.TemplateDir != "" {
		templateDir = root.config.TemplateDir
	}
	store, err := template.OpenStore(templateDir)
	if err != nil {
		return err
	}

	var client orchestrator.Submitter
	if cfg.Mode != orchestrator.ModeDryRun {
		c, err := root.client()
		if err != nil {
			return err
		}
		client = c
	}

	var runOpts []orchestrator.Option
	if !o.noMetadata {
		src, closeFn, err := o.metadataSource(cmd, root, templateDir)
		if err != nil {
			return err
		}
		defer closeFn()
		runOpts = append(runOpts, orchestrator.WithMetadata(src, root.prefixes()))
	}

	orch, err := orchestrator.New(cfg, store, client, runOpts...)
	if err != nil {
		return err
	}
	logger.Info().Str("mode", cfg.Mode.String()).Msg("Starting track submission")
	summary, runErr := orch.Run(ctx)
	summary.Log(logger)
	if root.jsonOutput {
		if err := root.printJSON(cmd, summary); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	if o.strict && summary.HasFailures() {
		return fmt.Errorf("%w: %d failed", errLocalFailures, len(summary.Failures))
	}
	return nil
}

// metadataSource opens the catalog when a DSN is configured, otherwise the
// CSV extracts next to the templates.
func (o *submitOptions) metadataSource(cmd *cobra.Command, root *rootOptions, templateDir string) (metadata.Source, func(), error) {
	dsn := o.metadataDSN
	if dsn == "" {
		dsn = root.config.Metadata.DSN
	}
	if dsn != "" {
		view := root.config.Metadata.View
		if view == "" {
			view = metadata.DefaultCatalogView
		}
		src, err := metadata.OpenCatalog(cmd.Context(), dsn, view)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { src.Close() }, nil
	}
	src, err := metadata.LoadCSVDir(templateDir)
	if err != nil {
		return nil, nil, fmt.Errorf("%w (expected %s and %s in %s, use --no-metadata to skip them)",
			err, metadata.GeneCSV, metadata.VariantCSV, filepath.Clean(templateDir))
	}
	return src, func() {}, nil
}

func (o *rootOptions) prefixes() metadata.Prefixes {
	p := metadata.DefaultPrefixes()
	if len(o.config.Metadata.GenePrefixes) > 0 {
		p.Gene = o.config.Metadata.GenePrefixes
	}
	if len(o.config.Metadata.VariantPrefixes) > 0 {
		p.Variant = o.config.Metadata.VariantPrefixes
	}
	return p
}

package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/trackcatalog/internal/common/httpclient"
	"github.com/tansive/trackcatalog/internal/loader/metadata"
	"github.com/tansive/trackcatalog/internal/loader/template"
	"github.com/tansive/trackcatalog/internal/loader/trackclient"
	"github.com/tansive/trackcatalog/internal/trackapi/db/memstore"
	"github.com/tansive/trackcatalog/internal/trackapi/server"
	"github.com/tansive/trackcatalog/pkg/api"
)

const (
	genomeA = "2284d28a-2cf7-41f0-bed6-0982601f7888"
	genomeB = "a7335667-93e7-11ec-a39d-005056b38ce3"
	genomeC = "f1a1b2c3-0000-4000-8000-000000000003"
)

var templates = map[string]string{
	"repeats": `
label: Repeats
type: regular
category: {track_category_id: repeats, label: Repeats, type: Genomic}
datafiles: {bigbed: repeats.bb}
`,
	"repeatmask-trf": `
label: Tandem repeats
type: regular
category: {track_category_id: repeats}
datafiles: {bigbed: repeatmask-trf.bb}
`,
	"transcripts": `
label: Transcripts
type: gene
description: GENCODE basic set.
category: {track_category_id: genes-transcripts, label: Genes & transcripts, type: Genomic}
datafiles: {bigbed: transcripts.bb}
`,
	"gc": `
label: GC content
type: regular
category: {track_category_id: gc, label: GC, type: Genomic}
datafiles: {bigwig: gc.bw}
`,
}

type submission struct {
	genomeID string
	label    string
	req      *api.TrackRequest
}

type fakeSubmitter struct {
	submitted []submission
	deleted   []string
	existing  map[string]bool
	submitErr error
}

func (f *fakeSubmitter) SubmitTrack(_ context.Context, req *api.TrackRequest) (trackclient.SubmitStatus, string, error) {
	if f.submitErr != nil {
		return trackclient.Created, "", f.submitErr
	}
	f.submitted = append(f.submitted, submission{genomeID: req.GenomeID, label: req.Label, req: req})
	if f.existing[req.Label] {
		return trackclient.AlreadyExists, "", nil
	}
	return trackclient.Created, uuid.NewString(), nil
}

func (f *fakeSubmitter) DeleteGenomeTracks(_ context.Context, genomeID string) (trackclient.DeleteStatus, error) {
	f.deleted = append(f.deleted, genomeID)
	return trackclient.Deleted, nil
}

func (f *fakeSubmitter) labels() []string {
	var out []string
	for _, s := range f.submitted {
		out = append(out, s.genomeID[:8]+"/"+s.label)
	}
	return out
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func setup(t *testing.T) (*template.Store, string) {
	t.Helper()
	root := t.TempDir()
	tdir := filepath.Join(root, "templates")
	files := map[string]string{}
	for name, body := range templates {
		files[name+template.Ext] = body
	}
	writeFiles(t, tdir, files)
	store, err := template.OpenStore(tdir)
	require.NoError(t, err)

	data := filepath.Join(root, "data")
	writeFiles(t, filepath.Join(data, genomeB), map[string]string{
		"transcripts.bb":     "",
		"repeats.trf.bb":     "",
		"variant-details.bb": "",
		"unknown.bb":         "",
		"notes.txt":          "",
	})
	writeFiles(t, filepath.Join(data, genomeA), map[string]string{"gc.bw": ""})
	writeFiles(t, filepath.Join(data, "logs"), map[string]string{"x.bb": ""})
	return store, data
}

func testContext() context.Context {
	logger := zerolog.Nop()
	return logger.WithContext(context.Background())
}

func TestRunDataDir(t *testing.T) {
	store, data := setup(t)
	client := &fakeSubmitter{}
	o, err := New(Config{DataDir: data}, store, client)
	require.NoError(t, err)

	summary, err := o.Run(testContext())
	require.NoError(t, err)
	// genomes and files in lexical order
	assert.Equal(t, []string{
		"2284d28a/GC content",
		"a7335667/Repeats",
		"a7335667/Transcripts",
	}, client.labels())
	assert.Equal(t, 2, summary.Genomes)
	assert.Equal(t, 3, summary.Submitted)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Unmatched)
	assert.False(t, summary.HasFailures())
	assert.Empty(t, client.deleted)
}

func TestRunFilters(t *testing.T) {
	store, data := setup(t)

	t.Run("genome filter", func(t *testing.T) {
		client := &fakeSubmitter{}
		o, err := New(Config{DataDir: data, Genomes: []string{genomeA}}, store, client)
		require.NoError(t, err)
		_, err = o.Run(testContext())
		require.NoError(t, err)
		assert.Equal(t, []string{"2284d28a/GC content"}, client.labels())
	})

	t.Run("file filter", func(t *testing.T) {
		client := &fakeSubmitter{}
		o, err := New(Config{DataDir: data, Files: []string{"transcripts.bb"}}, store, client)
		require.NoError(t, err)
		_, err = o.Run(testContext())
		require.NoError(t, err)
		assert.Equal(t, []string{"a7335667/Transcripts"}, client.labels())
	})

	t.Run("template include and exclude", func(t *testing.T) {
		client := &fakeSubmitter{}
		o, err := New(Config{DataDir: data, Templates: []string{"repeat", "gc.yaml"}, Exclude: []string{"repeatmask"}}, store, client)
		require.NoError(t, err)
		summary, err := o.Run(testContext())
		require.NoError(t, err)
		assert.Equal(t, []string{"2284d28a/GC content", "a7335667/Repeats"}, client.labels())
		assert.Equal(t, 2, summary.Unmatched)
		// the reverse prefix match carries the datafile into the payload
		assert.Equal(t, map[string]string{"bigbed": "repeats.trf.bb"}, client.submitted[1].req.Datafiles.Slots)
	})

	t.Run("nothing left", func(t *testing.T) {
		_, err := New(Config{DataDir: data, Templates: []string{"zzz"}}, store, &fakeSubmitter{})
		assert.ErrorIs(t, err, ErrNoTemplate)
	})
}

func TestRunResume(t *testing.T) {
	store, data := setup(t)
	client := &fakeSubmitter{}
	o, err := New(Config{DataDir: data, Resume: genomeB}, store, client)
	require.NoError(t, err)
	summary, err := o.Run(testContext())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.GenomesSkipped)
	assert.Equal(t, 1, summary.Genomes)
	assert.Len(t, client.submitted, 2)

	client = &fakeSubmitter{}
	o, err = New(Config{DataDir: data, Resume: genomeC}, store, client)
	require.NoError(t, err)
	summary, err = o.Run(testContext())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Genomes)
	assert.Empty(t, client.submitted)
}

func TestRunModes(t *testing.T) {
	store, data := setup(t)

	t.Run("dry run", func(t *testing.T) {
		o, err := New(Config{DataDir: data, Mode: ModeDryRun}, store, nil)
		require.NoError(t, err)
		summary, err := o.Run(testContext())
		require.NoError(t, err)
		assert.Equal(t, 3, summary.DryRun)
		assert.Equal(t, 0, summary.Submitted)
	})

	t.Run("overwrite deletes first", func(t *testing.T) {
		client := &fakeSubmitter{}
		o, err := New(Config{DataDir: data, Mode: ModeOverwrite}, store, client)
		require.NoError(t, err)
		summary, err := o.Run(testContext())
		require.NoError(t, err)
		assert.Equal(t, []string{genomeA, genomeB}, client.deleted)
		assert.Equal(t, 2, summary.Deleted)
		assert.Equal(t, 3, summary.Submitted)
	})

	t.Run("existing tracks are skipped", func(t *testing.T) {
		client := &fakeSubmitter{existing: map[string]bool{"Transcripts": true}}
		o, err := New(Config{DataDir: data}, store, client)
		require.NoError(t, err)
		summary, err := o.Run(testContext())
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Existing)
		assert.Equal(t, 2, summary.Submitted)
	})

	t.Run("submit errors stop the run", func(t *testing.T) {
		client := &fakeSubmitter{submitErr: trackclient.ErrNoResponse}
		o, err := New(Config{DataDir: data}, store, client)
		require.NoError(t, err)
		_, err = o.Run(testContext())
		require.Error(t, err)
		var fatal *FatalError
		require.True(t, errors.As(err, &fatal))
		assert.Equal(t, genomeA, fatal.GenomeID)
		assert.ErrorIs(t, err, trackclient.ErrNoResponse)
	})
}

func TestRunTrackList(t *testing.T) {
	store, _ := setup(t)

	client := &fakeSubmitter{}
	o, err := New(Config{Genomes: []string{genomeB, genomeA}, Templates: []string{"gc"}}, store, client)
	require.NoError(t, err)
	_, err = o.Run(testContext())
	require.NoError(t, err)
	// explicit lists keep the caller's order
	assert.Equal(t, []string{"a7335667/GC content", "2284d28a/GC content"}, client.labels())

	client = &fakeSubmitter{}
	o, err = New(Config{Genomes: []string{"not-a-genome"}, Files: []string{"gc.bw"}}, store, client)
	require.NoError(t, err)
	summary, err := o.Run(testContext())
	require.NoError(t, err)
	require.Len(t, summary.Failures, 1)
	assert.Contains(t, summary.Failures[0].Reason, "genome_id must be a valid UUID")
	assert.Empty(t, client.submitted)

	_, err = New(Config{Genomes: []string{genomeA}}, store, client)
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestRunMetadata(t *testing.T) {
	store, data := setup(t)
	meta := metadata.NewCSVSource(map[string]*metadata.Record{
		genomeB: {
			GenomeID:    genomeB,
			Description: "Annotated",
			SourceNames: []string{"Ensembl"},
			SourceURLs:  []string{"https://www.ensembl.org"},
		},
	}, nil)
	client := &fakeSubmitter{}
	o, err := New(Config{DataDir: data, Files: []string{"transcripts.bb"}}, store, client,
		WithMetadata(meta, metadata.DefaultPrefixes()))
	require.NoError(t, err)
	_, err = o.Run(testContext())
	require.NoError(t, err)
	require.Len(t, client.submitted, 1)
	req := client.submitted[0].req
	assert.Equal(t, "GENCODE basic set.\nGenes annotated by Ensembl.", req.Description)
	assert.Equal(t, []api.Source{{Name: "Ensembl", URL: "https://www.ensembl.org"}}, req.Sources)
}

func TestRunAgainstServer(t *testing.T) {
	store, data := setup(t)
	srv, err := server.CreateNewServer(memstore.New())
	require.NoError(t, err)
	srv.MountHandlers()
	client := trackclient.New(httpclient.NewHandlerClient(srv.Router))

	o, err := New(Config{DataDir: data}, store, client)
	require.NoError(t, err)
	summary, err := o.Run(testContext())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Submitted)

	// a second run upserts the same tracks
	summary, err = o.Run(testContext())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Submitted)

	status, err := client.DeleteGenomeTracks(context.Background(), genomeB)
	require.NoError(t, err)
	assert.Equal(t, trackclient.Deleted, status)
	status, err = client.DeleteGenomeTracks(context.Background(), genomeB)
	require.NoError(t, err)
	assert.Equal(t, trackclient.NothingToDelete, status)
}

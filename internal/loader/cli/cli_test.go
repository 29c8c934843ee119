package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/trackcatalog/internal/loader/orchestrator"
	"github.com/tansive/trackcatalog/internal/trackapi/db/memstore"
	"github.com/tansive/trackcatalog/internal/trackapi/server"
	"github.com/tansive/trackcatalog/pkg/api"
)

const genomeID = "2284d28a-2cf7-41f0-bed6-0982601f7888"

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--logfile", "", "--quiet"))
	err := cmd.Execute()
	return out.String(), err
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "trackloader.yaml")
	writeFile(t, file, `
api_url: localhost:8000/
template_dir: /etc/tracks/templates
timeout: 30s
metadata:
  view: track_metadata
  gene_prefixes: [transcripts, genes]
`)
	c, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "/etc/tracks/templates", c.TemplateDir)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, "track_metadata", c.Metadata.View)
	assert.Equal(t, []string{"transcripts", "genes"}, c.Metadata.GenePrefixes)
	url, err := c.ServerURL()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", url)

	t.Setenv(EnvAPIURL, "https://tracks.example.org")
	t.Setenv(EnvDataDir, "/data/tracks")
	c.applyEnv()
	// the file wins over the environment
	url, _ = c.ServerURL()
	assert.Equal(t, "http://localhost:8000", url)
	assert.Equal(t, "/data/tracks", c.DataDir)

	c, err = LoadConfig("")
	require.NoError(t, err)
	_, err = c.ServerURL()
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestMorphServer(t *testing.T) {
	assert.Equal(t, "http://localhost:8000", MorphServer("localhost:8000"))
	assert.Equal(t, "https://example.org", MorphServer("https://example.org//"))
	assert.Equal(t, "", MorphServer(""))
}

func setupLoader(t *testing.T) (templates, data, types string) {
	t.Helper()
	root := t.TempDir()
	templates = filepath.Join(root, "templates")
	writeFile(t, filepath.Join(templates, "transcripts.yaml"), `
track_types: [transcripts]
datafiles: [transcripts.bb]
description: GENCODE basic set.
`)
	writeFile(t, filepath.Join(templates, "gc.yaml"), `
label: GC content
type: regular
category: {track_category_id: gc, label: GC, type: Genomic}
datafiles: {bigwig: gc.bw}
`)
	writeFile(t, filepath.Join(templates, "gene-track-desc.csv"),
		"Genome_UUID,Description,Source_name,Source_URL\n"+genomeID+",Annotated,Ensembl,https://www.ensembl.org\n")
	writeFile(t, filepath.Join(templates, "variant-track-desc.csv"), "Genome_UUID,Description,Source_name,Source_URL\n")

	data = filepath.Join(root, "data")
	writeFile(t, filepath.Join(data, genomeID, "transcripts.bb"), "")
	writeFile(t, filepath.Join(data, genomeID, "gc.bw"), "")

	types = filepath.Join(root, "types")
	writeFile(t, filepath.Join(types, "genes.yaml"), `
types:
  - name: transcripts
    label: Transcripts
    type: gene
    file_keys: [bigbed]
    trigger: [track, gene-pc-fwd]
    display_order: 1
    on_by_default: true
    category:
      track_category_id: genes-transcripts
      label: Genes & transcripts
      type: Genomic
`)
	return templates, data, types
}

func TestSubmitAgainstServer(t *testing.T) {
	srv, err := server.CreateNewServer(memstore.New())
	require.NoError(t, err)
	srv.MountHandlers()
	ts := httptest.NewServer(srv.Router)
	defer ts.Close()

	templates, data, types := setupLoader(t)

	out, err := runCmd(t, "types", "register", types, "--api-url", ts.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Registered 1 track types")

	out, err = runCmd(t, "submit", "--api-url", ts.URL, "-d", data, "--template-dir", templates, "--json")
	require.NoError(t, err)
	var summary orchestrator.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.Submitted)
	assert.Empty(t, summary.Failures)

	rsp, err := http.Get(ts.URL + "/genomes/" + genomeID + "/tracks")
	require.NoError(t, err)
	defer rsp.Body.Close()
	require.Equal(t, http.StatusOK, rsp.StatusCode)
	var tracks api.GenomeTracksRsp
	require.NoError(t, json.NewDecoder(rsp.Body).Decode(&tracks))
	require.Len(t, tracks.TrackCategories, 2)
	// categories in submission order: gc first, then transcripts
	genes := tracks.TrackCategories[1]
	assert.Equal(t, "genes-transcripts", genes.CategoryID)
	require.Len(t, genes.TrackList, 1)
	assert.Equal(t, "Transcripts", genes.TrackList[0].Label)
	assert.Equal(t, []api.Source{{Name: "Ensembl", URL: "https://www.ensembl.org"}}, genes.TrackList[0].Sources)

	out, err = runCmd(t, "delete", genomeID, "--api-url", ts.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted tracks of genome")
	out, err = runCmd(t, "delete", genomeID, "--api-url", ts.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "No tracks found for genome")
}

func TestSubmitDryRun(t *testing.T) {
	templates, data, _ := setupLoader(t)
	out, err := runCmd(t, "submit", "-d", data, "--template-dir", templates, "--dry-run", "--no-metadata", "--json")
	require.NoError(t, err)
	var summary orchestrator.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.DryRun)

	_, err = runCmd(t, "submit", "-d", data, "--template-dir", templates, "--dry-run", "--overwrite")
	assert.Error(t, err)

	// without an API url only a dry run is possible
	_, err = runCmd(t, "submit", "-d", data, "--template-dir", templates, "--no-metadata")
	assert.Error(t, err)
}

func TestSubmitStrict(t *testing.T) {
	templates, _, _ := setupLoader(t)
	args := []string{"submit", "-g", "not-a-genome", "-t", "gc", "--template-dir", templates, "--dry-run", "--no-metadata"}
	_, err := runCmd(t, args...)
	require.NoError(t, err)
	_, err = runCmd(t, append(args, "--strict")...)
	assert.ErrorIs(t, err, errLocalFailures)
}

func TestReadTypeDefinitions(t *testing.T) {
	_, _, types := setupLoader(t)
	writeFile(t, filepath.Join(types, "repeats.json"), `[{"name": "repeats", "label": "Repeats", "type": "regular", "file_keys": ["bigbed"], "category": {"track_category_id": "repeats"}}]`)
	writeFile(t, filepath.Join(types, "README.md"), "not a definition")

	defs, err := ReadTypeDefinitions(types)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "transcripts", defs[0].Name)
	assert.Equal(t, "Genes & transcripts", defs[0].Category.Label)
	assert.Equal(t, "repeats", defs[1].Name)

	_, err = ReadTypeDefinitions(t.TempDir())
	assert.Error(t, err)
}

func TestDeployCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "my_track.bb")
	writeFile(t, src, "track data")
	dataset := "550e8400-e29b-41d4-a716-446655440000"
	input := `{"source_file": "` + src + `", "track_name": "my_track", "dataset_uuid": "` + dataset + `", "genome_uuid": "` + genomeID + `"}`
	base := filepath.Join(dir, "tracks")

	out, err := runCmd(t, "deploy", input, "--base-path", base)
	require.NoError(t, err)
	assert.Contains(t, out, "Copied: 1 files")
	_, err = os.Stat(filepath.Join(base, "22", genomeID, dataset+"_my_track.bb"))
	assert.NoError(t, err)

	out, err = runCmd(t, "deploy", input, "--base-path", base, "--skip-existing")
	require.NoError(t, err)
	assert.Contains(t, out, "Verified: 1 files")

	_, err = runCmd(t, "deploy", input, "--base-path", base)
	assert.Error(t, err)

	_, err = runCmd(t, "deploy", input)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "trackloader "+Version+"\n", out)
}

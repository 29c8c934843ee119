package metadata

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/trackcatalog/pkg/api"
)

const geneCSV = `Genome_UUID,Description,Track_name,Source_name,Source_URL
a7335667-93e7-11ec-a39d-005056b38ce3,Annotated,,Ensembl,https://www.ensembl.org
2284d28a-2cf7-41f0-bed6-0982601f7888,Imported,Dog genes,"RefSeq,VGNC","https://www.ncbi.nlm.nih.gov/refseq/,https://vertebrate.genenames.org"
3c1f8c0e-b2b1-4e4f-9d47-6a1f9a7f5b1e,Imported,,"RefSeq,VGNC",https://www.ncbi.nlm.nih.gov/refseq/
`

func TestParseCSV(t *testing.T) {
	recs, err := ParseCSV(strings.NewReader(geneCSV))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	dog := recs["2284d28a-2cf7-41f0-bed6-0982601f7888"]
	assert.Equal(t, "Dog genes", dog.TrackName)
	assert.Equal(t, []string{"RefSeq", "VGNC"}, dog.SourceNames)
	assert.Equal(t, []string{"https://www.ncbi.nlm.nih.gov/refseq/", "https://vertebrate.genenames.org"}, dog.SourceURLs)

	// Track_name is optional
	recs, err = ParseCSV(strings.NewReader("Genome_UUID,Description,Source_name,Source_URL\ng1,SNPs from dbSNP,dbSNP,https://www.ncbi.nlm.nih.gov/snp/\n"))
	require.NoError(t, err)
	assert.Empty(t, recs["g1"].TrackName)

	_, err = ParseCSV(strings.NewReader("Genome_UUID,Description\ng1,x\n"))
	assert.ErrorContains(t, err, "Source_name")
	_, err = ParseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestLoadCSVDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, GeneCSV), []byte(geneCSV), 0o644))
	_, err := LoadCSVDir(dir)
	assert.ErrorContains(t, err, VariantCSV)

	require.NoError(t, os.WriteFile(filepath.Join(dir, VariantCSV), []byte("Genome_UUID,Description,Source_name,Source_URL\n"), 0o644))
	s, err := LoadCSVDir(dir)
	require.NoError(t, err)
	rec, ok, err := s.Lookup(context.Background(), KindGene, "a7335667-93e7-11ec-a39d-005056b38ce3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Annotated", rec.Description)
	_, ok, err = s.Lookup(context.Background(), KindVariant, "a7335667-93e7-11ec-a39d-005056b38ce3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApply(t *testing.T) {
	recs, err := ParseCSV(strings.NewReader(geneCSV))
	require.NoError(t, err)
	logger := zerolog.Nop()

	t.Run("gene description is appended", func(t *testing.T) {
		req := &api.TrackRequest{Label: "Protein coding genes", Description: "Genes on the forward strand."}
		Apply(req, KindGene, recs["a7335667-93e7-11ec-a39d-005056b38ce3"], logger)
		assert.Equal(t, "Protein coding genes", req.Label)
		assert.Equal(t, "Genes on the forward strand.\nGenes annotated by Ensembl.", req.Description)
		assert.Equal(t, []api.Source{{Name: "Ensembl", URL: "https://www.ensembl.org"}}, req.Sources)
	})

	t.Run("track name replaces label", func(t *testing.T) {
		req := &api.TrackRequest{Label: "Protein coding genes", Description: "Text."}
		Apply(req, KindGene, recs["2284d28a-2cf7-41f0-bed6-0982601f7888"], logger)
		assert.Equal(t, "Dog genes", req.Label)
		assert.Equal(t, "Text.\nGenes imported from RefSeq.", req.Description)
		assert.Len(t, req.Sources, 2)
	})

	t.Run("mismatched sources are dropped", func(t *testing.T) {
		req := &api.TrackRequest{Label: "Genes"}
		Apply(req, KindGene, recs["3c1f8c0e-b2b1-4e4f-9d47-6a1f9a7f5b1e"], logger)
		assert.Empty(t, req.Sources)
	})

	t.Run("variant description is replaced", func(t *testing.T) {
		req := &api.TrackRequest{Label: "Variants", Description: "Template text."}
		Apply(req, KindVariant, &Record{
			Description: "Short variants from dbSNP release 156.",
			SourceNames: []string{"dbSNP", ""},
			SourceURLs:  []string{"https://www.ncbi.nlm.nih.gov/snp/", "https://example.org"},
		}, logger)
		assert.Equal(t, "Short variants from dbSNP release 156.", req.Description)
		assert.Equal(t, []api.Source{{Name: "dbSNP", URL: "https://www.ncbi.nlm.nih.gov/snp/"}}, req.Sources)
	})

	t.Run("no sources without a first source name", func(t *testing.T) {
		req := &api.TrackRequest{Label: "Genes", Description: "Text."}
		Apply(req, KindGene, &Record{Description: "Annotated", SourceNames: []string{""}, SourceURLs: []string{""}}, logger)
		assert.Equal(t, "Text.", req.Description)
		assert.Empty(t, req.Sources)
	})
}

func TestKindOf(t *testing.T) {
	p := DefaultPrefixes()
	assert.Equal(t, KindGene, p.KindOf("transcripts-fwd"))
	assert.Equal(t, KindVariant, p.KindOf("variant-ensembl-summary"))
	assert.Equal(t, "", p.KindOf("repeats"))
}

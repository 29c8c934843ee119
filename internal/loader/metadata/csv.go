package metadata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CSV file names looked up in the template directory.
const (
	GeneCSV    = "gene-track-desc.csv"
	VariantCSV = "variant-track-desc.csv"
)

var requiredColumns = []string{"Genome_UUID", "Description", "Source_name", "Source_URL"}

// CSVSource serves records read from the gene and variant CSV extracts.
type CSVSource struct {
	records map[string]map[string]*Record
}

// LoadCSVDir reads both extracts from dir. Both files must exist.
func LoadCSVDir(dir string) (*CSVSource, error) {
	s := &CSVSource{records: make(map[string]map[string]*Record)}
	for kind, name := range map[string]string{KindGene: GeneCSV, KindVariant: VariantCSV} {
		recs, err := LoadCSV(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		s.records[kind] = recs
	}
	return s, nil
}

// NewCSVSource builds a source from already parsed records.
func NewCSVSource(gene, variant map[string]*Record) *CSVSource {
	return &CSVSource{records: map[string]map[string]*Record{KindGene: gene, KindVariant: variant}}
}

func (s *CSVSource) Lookup(_ context.Context, kind, genomeID string) (*Record, bool, error) {
	rec, ok := s.records[kind][genomeID]
	return rec, ok, nil
}

// LoadCSV reads one extract keyed by genome id.
func LoadCSV(path string) (map[string]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("track description CSV file not found in %s: %w", path, err)
	}
	defer f.Close()
	recs, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("unexpected CSV format in %s: %w", path, err)
	}
	return recs, nil
}

// ParseCSV reads rows with the columns Genome_UUID, Description, Source_name
// and Source_URL, plus an optional Track_name. Source cells are comma lists.
func ParseCSV(r io.Reader) (map[string]*Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("missing header")
		}
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, c := range requiredColumns {
		if _, ok := col[c]; !ok {
			return nil, fmt.Errorf("missing column %s", c)
		}
	}
	nameCol, hasName := col["Track_name"]
	cell := func(row []string, i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	recs := make(map[string]*Record)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := &Record{
			GenomeID:    cell(row, col["Genome_UUID"]),
			Description: cell(row, col["Description"]),
			SourceNames: splitList(cell(row, col["Source_name"])),
			SourceURLs:  splitList(cell(row, col["Source_URL"])),
		}
		if hasName {
			rec.TrackName = cell(row, nameCol)
		}
		recs[rec.GenomeID] = rec
	}
	return recs, nil
}

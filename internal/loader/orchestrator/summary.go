package orchestrator

import (
	"github.com/rs/zerolog"
)

// Failure is a per-item problem that did not stop the run.
type Failure struct {
	GenomeID string `json:"genome_id"`
	Item     string `json:"item"`
	Template string `json:"template,omitempty"`
	Reason   string `json:"reason"`
}

// Summary counts what a run did with each resolved track.
type Summary struct {
	Genomes        int       `json:"genomes"`
	GenomesSkipped int       `json:"genomes_skipped"`
	Submitted      int       `json:"submitted"`
	Existing       int       `json:"existing"`
	DryRun         int       `json:"dry_run"`
	Deleted        int       `json:"deleted"`
	Skipped        int       `json:"skipped"`
	Unmatched      int       `json:"unmatched"`
	Failures       []Failure `json:"failures"`
}

func (s *Summary) HasFailures() bool {
	return len(s.Failures) > 0
}

// Log writes the totals and one warning per failure.
func (s *Summary) Log(logger *zerolog.Logger) {
	for _, f := range s.Failures {
		logger.Warn().
			Str("genome_id", f.GenomeID).
			Str("item", f.Item).
			Str("template", f.Template).
			Msg(f.Reason)
	}
	logger.Info().
		Int("genomes", s.Genomes).
		Int("genomes_skipped", s.GenomesSkipped).
		Int("submitted", s.Submitted).
		Int("existing", s.Existing).
		Int("dry_run", s.DryRun).
		Int("deleted", s.Deleted).
		Int("skipped", s.Skipped).
		Int("unmatched", s.Unmatched).
		Int("failed", len(s.Failures)).
		Msg("track submission finished")
}

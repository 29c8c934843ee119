package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func templateNames(res Resolution) []string {
	var names []string
	for _, m := range res.Matches {
		names = append(names, m.Template)
	}
	return names
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		templates []string
		datafile  string
		want      []string
		kind      MatchKind
		skipped   bool
	}{
		{
			name:      "exact match wins over prefixes",
			templates: []string{"ab", "a-b", "a"},
			datafile:  "a.bb",
			want:      []string{"a"},
			kind:      MatchExact,
		},
		{
			name:      "one datafile fans out to many templates",
			templates: []string{"transcripts-fwd", "transcripts-rev", "gc"},
			datafile:  "transcripts.bb",
			want:      []string{"transcripts-fwd", "transcripts-rev"},
			kind:      MatchForwardPrefix,
		},
		{
			name:      "fan out is preferred to fan in",
			templates: []string{"repeat", "repeatmask-trf"},
			datafile:  "repeatmask.bb",
			want:      []string{"repeatmask-trf"},
			kind:      MatchForwardPrefix,
		},
		{
			name:      "many datafiles fan in to one template",
			templates: []string{"repeats", "gc"},
			datafile:  "repeats.repeatmask_trf.bb",
			want:      []string{"repeats"},
			kind:      MatchReversePrefix,
		},
		{
			name:      "summary bigwig is skipped",
			templates: []string{"variant-summary"},
			datafile:  "variant-summary.bw",
			skipped:   true,
		},
		{
			name:      "variant focus track is skipped",
			templates: []string{"variant-details"},
			datafile:  "variant-details.bb",
			skipped:   true,
		},
		{
			name:      "no template",
			templates: []string{"gc"},
			datafile:  "contigs.bb",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewResolver(tt.templates).Resolve(tt.datafile)
			assert.Equal(t, tt.skipped, res.Skipped)
			assert.Equal(t, tt.want, templateNames(res))
			for _, m := range res.Matches {
				assert.Equal(t, tt.kind, m.Kind)
			}
		})
	}
}

func TestResolveReversePassesDatafile(t *testing.T) {
	res := NewResolver([]string{"repeats"}).Resolve("repeats.trf.bb")
	if assert.Len(t, res.Matches, 1) {
		assert.Equal(t, "repeats.trf.bb", res.Matches[0].Datafile)
	}
	res = NewResolver([]string{"repeats"}).Resolve("repeats.bb")
	if assert.Len(t, res.Matches, 1) {
		assert.Empty(t, res.Matches[0].Datafile)
	}
}

func TestResolveCustomSkipRules(t *testing.T) {
	r := NewResolver([]string{"variant-summary"}, WithSkipNames(), WithSkipSuffixes())
	assert.Equal(t, []string{"variant-summary"}, templateNames(r.Resolve("variant-summary.bw")))
}

func TestFilterNames(t *testing.T) {
	names := []string{"gc", "repeats", "transcripts-fwd", "transcripts-rev", "variant-ensembl"}
	assert.Equal(t, names, FilterNames(names, nil, nil))
	assert.Equal(t, []string{"transcripts-fwd", "transcripts-rev"}, FilterNames(names, []string{"transcripts"}, nil))
	assert.Equal(t, []string{"gc", "repeats"}, FilterNames(names, nil, []string{"transcripts", "variant"}))
	assert.Equal(t, []string{"transcripts-fwd"}, FilterNames(names, []string{"transcripts"}, []string{"transcripts-rev"}))
}

func TestStem(t *testing.T) {
	assert.Equal(t, "transcripts", Stem("transcripts.bb"))
	assert.Equal(t, "repeats.trf", Stem("/data/g1/repeats.trf.bb"))
	assert.Equal(t, "gc", Stem("gc"))
}

package apis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTypeDefinitions(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		names []string
		err   bool
	}{
		{
			name:  "single definition",
			body:  `{"name": "contigs", "type": "regular", "file_keys": ["bigbed"]}`,
			names: []string{"contigs"},
		},
		{
			name:  "list",
			body:  ` [{"name": "contigs"}, {"name": "gc"}]`,
			names: []string{"contigs", "gc"},
		},
		{
			name:  "types document",
			body:  `{"types": [{"name": "repeats"}]}`,
			names: []string{"repeats"},
		},
		{
			name: "malformed",
			body: `{"types": [`,
			err:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs, err := decodeTypeDefinitions([]byte(tt.body))
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			var names []string
			for _, d := range defs {
				names = append(names, d.Name)
			}
			assert.Equal(t, tt.names, names)
		})
	}
}

package template

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tansive/trackcatalog/pkg/api"
	"sigs.k8s.io/yaml"
)

// Ext is the file extension of template files.
const Ext = ".yaml"

// Store reads templates from <dir>/<name>.yaml. Every template holds a full
// track submission payload.
type Store struct {
	dir   string
	names []string
	cache map[string]*api.TrackRequest
}

// OpenStore lists the templates in dir.
func OpenStore(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read template directory: %w", err)
	}
	s := &Store{dir: dir, cache: make(map[string]*api.TrackRequest)}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Ext {
			continue
		}
		s.names = append(s.names, strings.TrimSuffix(e.Name(), Ext))
	}
	slices.Sort(s.names)
	return s, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Names returns the template names in sorted order.
func (s *Store) Names() []string {
	return slices.Clone(s.names)
}

// Load parses the named template. The result is shared, callers fill in a
// copy through Instantiate.
func (s *Store) Load(name string) (*api.TrackRequest, error) {
	if t, ok := s.cache[name]; ok {
		return t, nil
	}
	b, err := os.ReadFile(filepath.Join(s.dir, name+Ext))
	if err != nil {
		return nil, fmt.Errorf("unable to read template %s: %w", name, err)
	}
	t, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	s.cache[name] = t
	return t, nil
}

// Parse decodes a YAML template. The YAML is converted to JSON first so the
// payload decodes exactly as the API would decode it.
func Parse(b []byte) (*api.TrackRequest, error) {
	t := &api.TrackRequest{}
	if err := yaml.UnmarshalStrict(b, t); err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	if t.Datafiles.Len() == 0 {
		return nil, fmt.Errorf("invalid template: no datafiles")
	}
	return t, nil
}

// Instantiate returns a copy of t for genomeID. When datafile is set it
// replaces the template file it was matched against.
func Instantiate(t *api.TrackRequest, genomeID, datafile string) *api.TrackRequest {
	req := t.Clone()
	req.GenomeID = genomeID
	if datafile != "" {
		replaceDatafile(&req.Datafiles, datafile)
	}
	return req
}

// replaceDatafile swaps in datafile for the template entry it extends: the
// first entry whose stem is a prefix of the datafile stem, or that starts
// with the datafile stem. Without such an entry the first one is replaced.
func replaceDatafile(d *api.Datafiles, datafile string) {
	stem := Stem(datafile)
	matches := func(value string) bool {
		if value == "" {
			return false
		}
		vs := Stem(value)
		return strings.HasPrefix(stem, vs) || strings.HasPrefix(value, stem)
	}
	if d.IsSlotMap() {
		keys := d.Keys()
		if len(keys) == 0 {
			return
		}
		for _, k := range keys {
			if matches(d.Slots[k]) {
				d.Slots[k] = datafile
				return
			}
		}
		d.Slots[keys[0]] = datafile
		return
	}
	if len(d.Paths) == 0 {
		d.Paths = []string{datafile}
		return
	}
	for i, p := range d.Paths {
		if matches(p) {
			d.Paths[i] = datafile
			return
		}
	}
	d.Paths[0] = datafile
}

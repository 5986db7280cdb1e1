package bundles

import (
	_ "embed"
	"io"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed bundles.yaml
var defaultLibrary []byte

type libraryFile struct {
	Bundles []Bundle `yaml:"bundles"`
}

// Library is the process-wide table of named bundles, built at construction
// time. Load is the only method that changes it, and it is not guarded
// against concurrent use with Get or List.
type Library struct {
	byName map[string]Bundle
}

// Default returns the Library built from the four built-in bundles
// (quick_screen, full_due_diligence, geological_deep_dive, financial_review).
func Default() (*Library, error) {
	return New(defaultLibrary)
}

// New builds a Library from a bundles.yaml document.
func New(yamlDoc []byte) (*Library, error) {
	var file libraryFile
	if err := yaml.Unmarshal(yamlDoc, &file); err != nil {
		return nil, errors.Wrap(err, "bundles: parse library")
	}
	lib := &Library{byName: make(map[string]Bundle, len(file.Bundles))}
	for _, b := range file.Bundles {
		if _, err := Phases(b); err != nil {
			return nil, errors.Wrapf(err, "bundles: invalid bundle %q", b.Name)
		}
		lib.byName[b.Name] = b
	}
	return lib, nil
}

// Load merges additional bundle definitions from r into lib, overwriting any
// existing bundle with the same name.
func (l *Library) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "bundles: read library")
	}
	var file libraryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return errors.Wrap(err, "bundles: parse library")
	}
	for _, b := range file.Bundles {
		if _, err := Phases(b); err != nil {
			return errors.Wrapf(err, "bundles: invalid bundle %q", b.Name)
		}
		l.byName[b.Name] = b
	}
	return nil
}

// Get returns the named bundle.
func (l *Library) Get(name string) (Bundle, bool) {
	b, ok := l.byName[name]
	return b, ok
}

// List returns every bundle name, sorted.
func (l *Library) List() []string {
	names := make([]string, 0, len(l.byName))
	for name := range l.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

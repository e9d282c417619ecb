package classifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a forest document from path. JSON is the export format; YAML is
// accepted for hand-written fixtures.
func Load(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}

	f, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}

// Decode parses and validates a forest document. ext selects the format
// (".yaml"/".yml" for YAML, anything else for JSON).
func Decode(data []byte, ext string) (*Forest, error) {
	var f Forest
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrModelCorrupt, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrModelCorrupt, err)
		}
	}

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelCorrupt, err)
	}
	return &f, nil
}

// validate rejects documents that could index out of range or loop forever.
func (f *Forest) validate() error {
	switch {
	case len(f.Columns) == 0:
		return errors.New("no columns")
	case len(f.Classes) == 0:
		return errors.New("no classes")
	case len(f.Trees) == 0:
		return errors.New("no trees")
	}
	for i, c := range f.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("column %d has no name", i)
		}
		if c.Kind != KindNumeric && c.Kind != KindCategorical {
			return fmt.Errorf("column %q has unknown kind %q", c.Name, c.Kind)
		}
	}
	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf {
				if n.Class < 0 || n.Class >= len(f.Classes) {
					return fmt.Errorf("tree %d node %d: class %d out of range", ti, ni, n.Class)
				}
				continue
			}
			if n.Column < 0 || n.Column >= len(f.Columns) {
				return fmt.Errorf("tree %d node %d: column %d out of range", ti, ni, n.Column)
			}
			if f.Columns[n.Column].Kind == KindCategorical && n.Category == "" {
				return fmt.Errorf("tree %d node %d: categorical split without category", ti, ni)
			}
			// children after parent rules out cycles
			if n.Left <= ni || n.Left >= len(t.Nodes) || n.Right <= ni || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: child index out of order", ti, ni)
			}
		}
	}
	return nil
}

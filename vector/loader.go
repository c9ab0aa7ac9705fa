package vector

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Named is a vector together with its source file. The pair
// (File, Vector.Name) identifies a vector across the whole run.
type Named struct {
	File   string
	Vector TestVector
}

// LoadDir walks root for .json/.yaml/.yml fixture files and returns
// their vectors in deterministic order: lexical file order, then
// in-file order. A file that fails to parse is reported through warn
// and skipped; the remaining files are still loaded.
func LoadDir(root string, warn func(file string, err error)) ([]Named, error) {
	var out []Named
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			return nil
		}
		vectors, err := LoadFile(path)
		if err != nil {
			if warn != nil {
				warn(path, err)
			}
			return nil
		}
		base := filepath.Base(path)
		for _, vec := range vectors {
			out = append(out, Named{File: base, Vector: vec})
		}
		return nil
	})
	return out, err
}

// LoadFile parses one fixture file. JSON files hold a single suite
// document; YAML files hold one or more suite documents in a stream.
func LoadFile(path string) ([]TestVector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) == ".json" {
		var suite Suite
		if err := json.Unmarshal(data, &suite); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return suite.TestVectors, nil
	}
	var out []TestVector
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var suite Suite
		if err := dec.Decode(&suite); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		out = append(out, suite.TestVectors...)
	}
	return out, nil
}

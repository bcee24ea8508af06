package mapper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a mapper configuration file
type File struct {
	Mappers []Config `yaml:"mappers" json:"mappers" toml:"mappers"`
}

// Format is a configuration file encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatForPath picks the encoding from the file extension
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported mapper file extension %q", filepath.Ext(path))
	}
}

// LoadFile reads mapper configurations from a YAML, JSON or TOML file
func LoadFile(path string) ([]Config, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapper file: %w", err)
	}
	cfgs, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfgs, nil
}

// Decode parses mapper configurations in the given format
func Decode(data []byte, format Format) ([]Config, error) {
	var f File
	switch format {
	case FormatYAML:
		if err := UnmarshalYAMLStrict(data, &f); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parse toml: unknown key %s", undecoded[0])
		}
	default:
		return nil, fmt.Errorf("unsupported mapper format %q", format)
	}
	return f.Mappers, nil
}

// UnmarshalYAMLStrict decodes a YAML document into v, rejecting keys that
// v has no field for. An empty document leaves v untouched.
func UnmarshalYAMLStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Encode renders configurations in the given format
func Encode(cfgs []Config, format Format) ([]byte, error) {
	f := File{Mappers: cfgs}
	switch format {
	case FormatYAML:
		return yaml.Marshal(f)
	case FormatJSON:
		return json.MarshalIndent(f, "", "  ")
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(f); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported mapper format %q", format)
	}
}

// LoadFile reads a mapper file and registers every configuration in it
func (r *Registry) LoadFile(path string, opts ...Option) (int, error) {
	cfgs, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	if err := r.RegisterAll(cfgs, opts...); err != nil {
		return 0, err
	}
	return len(cfgs), nil
}

// LoadFiles reads all files concurrently and registers their mappers in
// path order. Nothing is registered when any file fails to load.
func (r *Registry) LoadFiles(ctx context.Context, paths []string, opts ...Option) (int, error) {
	loaded := make([][]Config, len(paths))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	for idx, path := range paths {
		idx, path := idx, path
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			cfgs, err := LoadFile(path)
			if err != nil {
				return err
			}
			loaded[idx] = cfgs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	var all []Config
	for _, cfgs := range loaded {
		all = append(all, cfgs...)
	}
	if err := r.RegisterAll(all, opts...); err != nil {
		return 0, err
	}
	return len(all), nil
}

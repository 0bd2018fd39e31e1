// Package config loads nanny instance settings from YAML, TOML or JSON
// files and turns them into nanny options.
//
// Functions cannot live in a file, so views, route updates and renderers are
// referenced by name and looked up in a Registry.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/goliatone/go-nanny/layering"
)

var (
	ErrUnknownFormat = errors.New("config: unknown format")
	ErrUnknownField  = errors.New("config: unknown field")
	ErrUnknownName   = errors.New("config: name not registered")
)

// Format is a configuration file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// File is the on-disk shape of an instance configuration.
type File struct {
	Element      string       `json:"element,omitempty" yaml:"element,omitempty" toml:"element,omitempty"`
	View         string       `json:"view,omitempty" yaml:"view,omitempty" toml:"view,omitempty"`
	Renderer     string       `json:"renderer,omitempty" yaml:"renderer,omitempty" toml:"renderer,omitempty"`
	Path         string       `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	Debug        bool         `json:"debug,omitempty" yaml:"debug,omitempty" toml:"debug,omitempty"`
	ContentField string       `json:"content_field,omitempty" yaml:"content_field,omitempty" toml:"content_field,omitempty"`
	Evaluator    string       `json:"evaluator,omitempty" yaml:"evaluator,omitempty" toml:"evaluator,omitempty"`
	ProgramCache int          `json:"program_cache,omitempty" yaml:"program_cache,omitempty" toml:"program_cache,omitempty"`
	Initial      any          `json:"initial,omitempty" yaml:"initial,omitempty" toml:"initial,omitempty"`
	Storage      Storage      `json:"storage,omitempty" yaml:"storage,omitempty" toml:"storage,omitempty"`
	Log          Log          `json:"log,omitempty" yaml:"log,omitempty" toml:"log,omitempty"`
	Activity     Activity     `json:"activity,omitempty" yaml:"activity,omitempty" toml:"activity,omitempty"`
	Routes       []Route      `json:"routes,omitempty" yaml:"routes,omitempty" toml:"routes,omitempty"`
	Expressions  []Expression `json:"expressions,omitempty" yaml:"expressions,omitempty" toml:"expressions,omitempty"`
}

// Storage selects and configures the persistence backend.
type Storage struct {
	Driver    string   `json:"driver,omitempty" yaml:"driver,omitempty" toml:"driver,omitempty"`
	Key       string   `json:"key,omitempty" yaml:"key,omitempty" toml:"key,omitempty"`
	BlackList []string `json:"blacklist,omitempty" yaml:"blacklist,omitempty" toml:"blacklist,omitempty"`
	Dir       string   `json:"dir,omitempty" yaml:"dir,omitempty" toml:"dir,omitempty"`
	DSN       string   `json:"dsn,omitempty" yaml:"dsn,omitempty" toml:"dsn,omitempty"`
	Bucket    string   `json:"bucket,omitempty" yaml:"bucket,omitempty" toml:"bucket,omitempty"`
	Region    string   `json:"region,omitempty" yaml:"region,omitempty" toml:"region,omitempty"`
	Prefix    string   `json:"prefix,omitempty" yaml:"prefix,omitempty" toml:"prefix,omitempty"`
	Endpoint  string   `json:"endpoint,omitempty" yaml:"endpoint,omitempty" toml:"endpoint,omitempty"`
	PathStyle bool     `json:"path_style,omitempty" yaml:"path_style,omitempty" toml:"path_style,omitempty"`
	Quota     int      `json:"quota,omitempty" yaml:"quota,omitempty" toml:"quota,omitempty"`
}

// Log configures diagnostics output. Format is "json" or "console".
type Log struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty" toml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty"`
}

type Activity struct {
	Channel string `json:"channel,omitempty" yaml:"channel,omitempty" toml:"channel,omitempty"`
	Actor   string `json:"actor,omitempty" yaml:"actor,omitempty" toml:"actor,omitempty"`
}

// Route mirrors nanny.Route with registry names in place of functions.
type Route struct {
	Path   string  `json:"path" yaml:"path" toml:"path"`
	Title  string  `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Update string  `json:"update,omitempty" yaml:"update,omitempty" toml:"update,omitempty"`
	View   string  `json:"view,omitempty" yaml:"view,omitempty" toml:"view,omitempty"`
	Routes []Route `json:"routes,omitempty" yaml:"routes,omitempty" toml:"routes,omitempty"`
}

// Expression declares a derived field computed by the evaluator.
type Expression struct {
	Field     string   `json:"field" yaml:"field" toml:"field"`
	Expr      string   `json:"expr" yaml:"expr" toml:"expr"`
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty" toml:"depends_on,omitempty"`
}

// Defaults returns the values used for anything a file leaves out.
func Defaults() File {
	return File{
		Element:  "body",
		Renderer: "text",
		Path:     "/",
		Storage:  Storage{Driver: "memory"},
		Log:      Log{Level: "info", Format: "json"},
	}
}

// Parse decodes data in the given format. Unknown fields are rejected.
func Parse(data []byte, format Format) (File, error) {
	var f File
	switch format {
	case FormatYAML:
		if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
			return File{}, fmt.Errorf("config: yaml: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return File{}, fmt.Errorf("config: toml: %w", err)
		}
		// Keys under initial land in an untyped value and are always
		// reported as undecoded.
		for _, key := range md.Undecoded() {
			if len(key) > 0 && key[0] == "initial" {
				continue
			}
			return File{}, fmt.Errorf("%w: %s", ErrUnknownField, key.String())
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return File{}, fmt.Errorf("config: json: %w", err)
		}
	default:
		return File{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return f, nil
}

// Load reads path, picking the format from its extension, and layers the
// result over Defaults.
func Load(path string) (File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return File{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config: read %q: %w", path, err)
	}
	f, err := Parse(data, format)
	if err != nil {
		return File{}, err
	}
	return f.WithDefaults(), nil
}

// WithDefaults fills empty fields from Defaults. A false bool cannot
// override a true default.
func (f File) WithDefaults() File {
	return layering.Overlay(f, Defaults())
}

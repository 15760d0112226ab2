package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedFormat is returned for command files with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported command file format")
	// ErrInvalidDefinition is returned when a definition lacks an id or name.
	ErrInvalidDefinition = errors.New("invalid command definition")
)

// Definition is one command entry as written in a commands file.
type Definition struct {
	ID     string            `toml:"id" yaml:"id" json:"id"`
	Name   string            `toml:"name" yaml:"name" json:"name"`
	Run    string            `toml:"run,omitempty" yaml:"run,omitempty" json:"run,omitempty"`
	Detail string            `toml:"detail,omitempty" yaml:"detail,omitempty" json:"detail,omitempty"`
	Dir    string            `toml:"dir,omitempty" yaml:"dir,omitempty" json:"dir,omitempty"`
	Env    map[string]string `toml:"env,omitempty" yaml:"env,omitempty" json:"env,omitempty"`
}

// File is the top-level document of a commands file.
type File struct {
	Commands []Definition `toml:"commands" yaml:"commands" json:"commands"`
}

// Format names a commands file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json", ".jsonc":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Parse decodes a commands document. JSON input may carry comments and
// trailing commas.
func Parse(data []byte, format Format) ([]Definition, error) {
	var file File
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &file)
	case FormatYAML:
		err = yaml.Unmarshal(data, &file)
	case FormatJSON:
		err = json.Unmarshal(jsonc.ToJSON(data), &file)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s commands: %w", format, err)
	}
	return file.Commands, nil
}

// ReadFile reads and parses the commands file at path.
func ReadFile(path string) ([]Definition, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defs, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// Validate checks that every definition has an id and a name.
func Validate(defs []Definition) error {
	var errs []error
	for i, def := range defs {
		if strings.TrimSpace(def.ID) == "" {
			errs = append(errs, fmt.Errorf("%w: entry %d has no id", ErrInvalidDefinition, i))
		}
		if strings.TrimSpace(def.Name) == "" {
			errs = append(errs, fmt.Errorf("%w: entry %d (%q) has no name", ErrInvalidDefinition, i, def.ID))
		}
	}
	return errors.Join(errs...)
}

// Duplicates returns ids that appear more than once, in first-seen order.
func Duplicates(defs []Definition) []string {
	seen := make(map[string]int, len(defs))
	var dups []string
	for _, def := range defs {
		seen[def.ID]++
		if seen[def.ID] == 2 {
			dups = append(dups, def.ID)
		}
	}
	return dups
}

// Build turns definitions into commands. Entries with a run line become
// Actionable commands executed through shell; the rest are Informational.
func Build(defs []Definition, shell Shell) []Command {
	cmds := make([]Command, 0, len(defs))
	for _, def := range defs {
		if def.Run == "" {
			cmds = append(cmds, Informational{ID: def.ID, Name: def.Name, Detail: def.Detail})
			continue
		}
		out := NewOutput(def.Run, def.Detail)
		cmds = append(cmds, Actionable{
			ID:     def.ID,
			Name:   def.Name,
			Detail: out,
			Action: shell.Action(def, out),
		})
	}
	return cmds
}

// Loaded is the result of LoadFile.
type Loaded struct {
	Path       string
	Commands   []Command
	Duplicates []string
}

// LoadFile reads, validates and builds the commands in path. Duplicate ids
// are reported, not removed.
func LoadFile(path string, shell Shell) (Loaded, error) {
	defs, err := ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	if err := Validate(defs); err != nil {
		return Loaded{}, fmt.Errorf("%s: %w", path, err)
	}
	return Loaded{
		Path:       path,
		Commands:   Build(defs, shell),
		Duplicates: Duplicates(defs),
	}, nil
}

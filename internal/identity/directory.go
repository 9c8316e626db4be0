package identity

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"pastedown/internal/domain"
	models "pastedown/internal/domain/models/paste"
)

//go:embed config/*.yaml
var configFiles embed.FS

// EntryKind tells persons apart from reserved names
type EntryKind string

const (
	KindPerson EntryKind = "person"
	KindTopic  EntryKind = "topic"
)

// Entry is one name in the directory file
type Entry struct {
	Name        string    `yaml:"name"`
	DisplayName string    `yaml:"display_name"`
	Kind        EntryKind `yaml:"kind"`
}

type directoryFile struct {
	Entries []Entry `yaml:"entries"`
}

// Directory is a YAML-backed identity directory
type Directory struct {
	entries map[string]Entry
	mu      sync.RWMutex
	logger  *slog.Logger
}

// LoadDirectory reads the directory from path, or the built-in one when
// path does not exist
func LoadDirectory(path string, logger *slog.Logger) (*Directory, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("identity file not found, using built-in directory", "path", path)
		data, err = configFiles.ReadFile("config/people.yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("read identity directory: %w", err)
	}
	return ParseDirectory(data, logger)
}

// ParseDirectory builds a directory from YAML
func ParseDirectory(data []byte, logger *slog.Logger) (*Directory, error) {
	var file directoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal identity directory: %w", err)
	}

	d := &Directory{entries: make(map[string]Entry, len(file.Entries)), logger: logger}
	for _, e := range file.Entries {
		if err := d.add(e); err != nil {
			return nil, err
		}
	}

	logger.Info("identity directory loaded", "entries", len(d.entries))
	return d, nil
}

func (d *Directory) add(e Entry) error {
	key := models.NormalizeName(e.Name)
	if key == "" {
		return fmt.Errorf("%w: identity entry without a name", domain.ErrValidation)
	}
	if e.Kind == "" {
		e.Kind = KindPerson
	}
	if e.Kind != KindPerson && e.Kind != KindTopic {
		return fmt.Errorf("%w: identity %s has unknown kind %q", domain.ErrValidation, e.Name, e.Kind)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.entries[key]; dup {
		return fmt.Errorf("identity %s: %w", e.Name, domain.ErrConflict)
	}
	d.entries[key] = e
	return nil
}

// Find resolves name to a person
func (d *Directory) Find(_ context.Context, name string) (*models.Person, error) {
	d.mu.RLock()
	e, ok := d.entries[models.NormalizeName(name)]
	d.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("identity %s: %w", name, domain.ErrNotFound)
	}
	if e.Kind != KindPerson {
		return nil, fmt.Errorf("%w: %s is a %s, not a person", domain.ErrValidation, e.Name, e.Kind)
	}
	return &models.Person{Name: e.Name, DisplayName: e.DisplayName}, nil
}

// Reserved reports whether name is taken by any entry, person or not
func (d *Directory) Reserved(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.entries[models.NormalizeName(name)]
	return ok
}

// People returns the names of all persons, sorted
func (d *Directory) People() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var names []string
	for _, e := range d.entries {
		if e.Kind == KindPerson {
			names = append(names, e.Name)
		}
	}
	sort.Strings(names)
	return names
}

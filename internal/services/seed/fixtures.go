// Package seed loads YAML fixtures into the catalog and events collections. Loading twice is
// safe: catalog names that already exist are reused, and events are only written when they
// carry an explicit id that is still free.
package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Entry is a department or category fixture
type Entry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Event is an event fixture; Department and Category name an entry by name or id
type Event struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Department  string    `yaml:"department"`
	Category    string    `yaml:"category"`
	Description string    `yaml:"description"`
	Location    string    `yaml:"location"`
	Latitude    float64   `yaml:"latitude"`
	Longitude   float64   `yaml:"longitude"`
	Start       time.Time `yaml:"start"`
	End         time.Time `yaml:"end"`
	Image       string    `yaml:"image"`
}

// Fixtures is one seed file
type Fixtures struct {
	Departments []Entry `yaml:"departments"`
	Categories  []Entry `yaml:"categories"`
	Events      []Event `yaml:"events"`
}

// Decode reads fixtures; unknown keys are an error
func Decode(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f Fixtures
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("seed: decode: %w", err)
	}
	return &f, nil
}

// Load reads fixtures from path
func Load(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return Decode(bytes.NewReader(data))
}

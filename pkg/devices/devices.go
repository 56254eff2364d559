// Package devices holds the table of supported PSU models.
//
// Device enumeration and matching is the host's job; this package only
// provides the data and the lookup predicate the host (and the hidraw
// port) use to decide whether a HID device is one of ours.
package devices

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed devices.yaml
var manifestFS embed.FS

// Model is one supported PSU model.
type Model struct {
	Vendor  uint16
	Product uint16 `yaml:"product"`
	Name    string `yaml:"name"`
}

// String returns "Name (vvvv:pppp)".
func (m Model) String() string {
	return fmt.Sprintf("%s (%04x:%04x)", m.Name, m.Vendor, m.Product)
}

type manifest struct {
	Vendor uint16  `yaml:"vendor"`
	Models []Model `yaml:"models"`
}

var (
	loadOnce sync.Once
	table    []Model
	loadErr  error
)

func load() ([]Model, error) {
	loadOnce.Do(func() {
		data, err := manifestFS.ReadFile("devices.yaml")
		if err != nil {
			loadErr = fmt.Errorf("reading device manifest: %w", err)
			return
		}
		var m manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			loadErr = fmt.Errorf("parsing device manifest: %w", err)
			return
		}
		for i := range m.Models {
			m.Models[i].Vendor = m.Vendor
		}
		table = m.Models
	})
	return table, loadErr
}

// Supported returns all supported models.
func Supported() []Model {
	models, err := load()
	if err != nil {
		// The manifest is embedded; a parse failure is a build defect.
		panic(err)
	}
	out := make([]Model, len(models))
	copy(out, models)
	return out
}

// Lookup finds the model for a vendor/product pair.
func Lookup(vendor, product uint16) (Model, bool) {
	models, err := load()
	if err != nil {
		panic(err)
	}
	for _, m := range models {
		if m.Vendor == vendor && m.Product == product {
			return m, true
		}
	}
	return Model{}, false
}

// IsSupported reports whether a vendor/product pair is in the table.
func IsSupported(vendor, product uint16) bool {
	_, ok := Lookup(vendor, product)
	return ok
}

package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DronesFile is the drone catalogue file name inside the data directory.
const DronesFile = "drones.yaml"

// DroneCatalog is the read-only list of drones available to the session.
type DroneCatalog struct {
	drones []Drone
}

// NewDroneCatalog builds a catalogue, rejecting empty or duplicate ids.
func NewDroneCatalog(drones []Drone) (*DroneCatalog, error) {
	seen := make(map[string]struct{}, len(drones))
	for _, d := range drones {
		if d.ID == "" {
			return nil, fmt.Errorf("drone %q has no id", d.Name)
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("duplicate drone id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	return &DroneCatalog{drones: append([]Drone(nil), drones...)}, nil
}

// List returns all drones in catalogue order.
func (c *DroneCatalog) List() []Drone {
	return append([]Drone(nil), c.drones...)
}

// Get returns a drone by id.
func (c *DroneCatalog) Get(id string) (Drone, bool) {
	for _, d := range c.drones {
		if d.ID == id {
			return d, true
		}
	}
	return Drone{}, false
}

// LoadDrones reads {dataDir}/drones.yaml. A missing file yields the
// built-in catalogue.
func LoadDrones(dataDir string) (*DroneCatalog, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, DronesFile))
	if errors.Is(err, os.ErrNotExist) {
		return NewDroneCatalog(DefaultDrones())
	}
	if err != nil {
		return nil, fmt.Errorf("reading drones: %w", err)
	}

	var doc struct {
		Drones []Drone `yaml:"drones"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing drones yaml: %w", err)
	}
	return NewDroneCatalog(doc.Drones)
}

// DefaultDrones is the built-in catalogue.
func DefaultDrones() []Drone {
	return []Drone{{
		ID:              "drone-1",
		Name:            "Drone 01 - T40",
		Model:           "DJI Agras T40",
		Manufacturer:    "DJI",
		ApplicationType: ApplicationLiquid,
	}}
}

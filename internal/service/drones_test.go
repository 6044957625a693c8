package service

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDrones(t *testing.T) {
	t.Run("missing file uses default", func(t *testing.T) {
		c, err := LoadDrones(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		d, ok := c.Get("drone-1")
		if !ok || d.Model != "DJI Agras T40" || d.ApplicationType != ApplicationLiquid {
			t.Fatalf("default drone = %+v, %v", d, ok)
		}
	})

	t.Run("reads yaml", func(t *testing.T) {
		dir := t.TempDir()
		doc := `drones:
  - id: t50
    name: Drone 02 - T50
    model: DJI Agras T50
    manufacturer: DJI
    tankCapacityL: 40
    swathWidthM: 11
    applicationType: both
  - id: xag
    name: XAG P100
    model: P100 Pro
    manufacturer: XAG
    applicationType: granular
`
		if err := os.WriteFile(filepath.Join(dir, DronesFile), []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		c, err := LoadDrones(dir)
		if err != nil {
			t.Fatal(err)
		}
		list := c.List()
		if len(list) != 2 || list[0].ID != "t50" || list[0].TankCapacityL != 40 || list[1].ApplicationType != ApplicationGranular {
			t.Fatalf("drones = %+v", list)
		}
	})

	t.Run("bad yaml", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, DronesFile), []byte("drones: [{"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadDrones(dir); err == nil {
			t.Fatal("LoadDrones() err = nil")
		}
	})
}

func TestNewDroneCatalog_Duplicate(t *testing.T) {
	_, err := NewDroneCatalog([]Drone{{ID: "a"}, {ID: "a"}})
	if err == nil {
		t.Fatal("NewDroneCatalog() with duplicate ids err = nil")
	}
}

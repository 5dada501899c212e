package main

import (
	"github.com/Le-Vincent56/Procedural-Generation/internal/wfc"
)

// buildDungeonCatalog assembles the demo dungeon tileset: open floor,
// solid wall, corridors that thread through the wall mass, doors that
// join corridors to rooms, and a single capped vault.
//
// Socket scheme: wall faces may show to walls and open space, open
// faces meet open and door faces, corridor faces only continue into
// corridors or doors. The flat socket pairs the vertical faces on a
// single-level grid.
func buildDungeonCatalog(name string) *wfc.CatalogFile {
	return &wfc.CatalogFile{
		Name:    name,
		Sockets: []string{"open", "wall", "corridor", "door", "flat"},
		Compatibility: []wfc.CompatRule{
			{Source: "open", Targets: []string{"open", "wall", "door"}},
			{Source: "wall", Targets: []string{"wall", "open"}},
			{Source: "corridor", Targets: []string{"corridor", "door"}},
			{Source: "door", Targets: []string{"open", "corridor"}},
			{Source: "flat", Targets: []string{"flat"}},
		},
		Tiles: []wfc.TileEntry{
			{
				ID:       "floor",
				Name:     "Stone Floor",
				Weight:   10,
				Category: "floor",
				Rotation: wfc.RotationEntry{Allow: false},
				Sockets:  horizontalSockets("open", "open", "open", "open"),
			},
			{
				ID:       "wall",
				Name:     "Solid Wall",
				Weight:   3,
				Category: "wall",
				Rotation: wfc.RotationEntry{Allow: false},
				Sockets:  horizontalSockets("wall", "wall", "wall", "wall"),
			},
			{
				ID:       "corridor_straight",
				Name:     "Corridor",
				Weight:   4,
				Category: "corridor",
				Rotation: wfc.RotationEntry{Allow: true, Steps: 2},
				Sockets:  horizontalSockets("corridor", "wall", "corridor", "wall"),
			},
			{
				ID:       "corridor_corner",
				Name:     "Corridor Corner",
				Weight:   2,
				Category: "corridor",
				Rotation: wfc.RotationEntry{Allow: true, Steps: 4},
				Sockets:  horizontalSockets("corridor", "corridor", "wall", "wall"),
			},
			{
				ID:       "corridor_tee",
				Name:     "Corridor Junction",
				Weight:   1.5,
				Category: "corridor",
				Rotation: wfc.RotationEntry{Allow: true, Steps: 4},
				Sockets:  horizontalSockets("corridor", "corridor", "wall", "corridor"),
			},
			{
				ID:       "corridor_cross",
				Name:     "Corridor Crossing",
				Weight:   1,
				Category: "corridor",
				Rotation: wfc.RotationEntry{Allow: false},
				Sockets:  horizontalSockets("corridor", "corridor", "corridor", "corridor"),
			},
			{
				ID:       "door",
				Name:     "Doorway",
				Weight:   1.5,
				Category: "door",
				Rotation: wfc.RotationEntry{Allow: true, Steps: 4},
				Sockets:  horizontalSockets("door", "wall", "corridor", "wall"),
			},
			{
				ID:            "pillar",
				Name:          "Pillar",
				Weight:        1,
				Category:      "feature",
				Rotation:      wfc.RotationEntry{Allow: false},
				Sockets:       horizontalSockets("open", "open", "open", "open"),
				AllowOnBorder: boolPtr(false),
			},
			{
				ID:                "vault",
				Name:              "Hidden Vault",
				Weight:            0.5,
				Category:          "special",
				Rotation:          wfc.RotationEntry{Allow: true, Steps: 4},
				Sockets:           horizontalSockets("door", "wall", "wall", "wall"),
				MaxInstances:      1,
				MinCenterDistance: 2,
				MaxCenterDistance: 6,
				AllowOnBorder:     boolPtr(false),
			},
		},
	}
}

// horizontalSockets fills the four cardinal faces and pairs the
// vertical faces with the flat socket.
func horizontalSockets(north, east, south, west string) wfc.SocketEntry {
	return wfc.SocketEntry{
		North:  north,
		East:   east,
		South:  south,
		West:   west,
		Top:    "flat",
		Bottom: "flat",
	}
}

func boolPtr(b bool) *bool {
	return &b
}

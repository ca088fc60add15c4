package thermal

import (
	"fmt"
	"math"
)

// Room kinds. Labels come from the locale's rooms table.
const (
	RoomLivingRoom = "living_room"
	RoomKitchen    = "kitchen"
	RoomBedroom    = "bedroom"
	RoomBathroom   = "bathroom"
)

const (
	radiatorMargin      = 1.2
	maxRadiatorsPerRoom = 2
)

type roomShare struct {
	kind     string
	fraction float64
}

// roomTiers is a rough floor-plan heuristic: the house is split into rooms by
// total floor area. Fractions in each tier sum to 1.
var roomTiers = []struct {
	maxArea float64
	rooms   []roomShare
}{
	{40, []roomShare{{RoomLivingRoom, 0.80}, {RoomBathroom, 0.20}}},
	{60, []roomShare{{RoomLivingRoom, 0.45}, {RoomBedroom, 0.35}, {RoomBathroom, 0.20}}},
	{80, []roomShare{{RoomLivingRoom, 0.35}, {RoomKitchen, 0.15}, {RoomBedroom, 0.35}, {RoomBathroom, 0.15}}},
	{120, []roomShare{{RoomLivingRoom, 0.30}, {RoomKitchen, 0.14}, {RoomBedroom, 0.24}, {RoomBedroom, 0.20}, {RoomBathroom, 0.12}}},
	{180, []roomShare{{RoomLivingRoom, 0.28}, {RoomKitchen, 0.12}, {RoomBedroom, 0.20}, {RoomBedroom, 0.16}, {RoomBedroom, 0.14}, {RoomBathroom, 0.10}}},
	{math.Inf(1), []roomShare{{RoomLivingRoom, 0.26}, {RoomKitchen, 0.11}, {RoomBedroom, 0.17}, {RoomBedroom, 0.14}, {RoomBedroom, 0.12}, {RoomBathroom, 0.10}, {RoomBathroom, 0.10}}},
}

// RadiatorPick is a catalog entry and how many units of it a room gets.
type RadiatorPick struct {
	Size       string  `json:"size"`
	Power      float64 `json:"power"`
	Dimensions string  `json:"dimensions"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
}

// RoomSizing is the radiator selection for one estimated room.
type RoomSizing struct {
	Key        string       `json:"key"`
	Kind       string       `json:"kind"`
	Label      string       `json:"label"`
	Area       float64      `json:"area"`   // m²
	Demand     float64      `json:"demand"` // W
	Radiator   RadiatorPick `json:"radiator"`
	Undersized bool         `json:"undersized,omitempty"`
}

// PartitionRooms splits a floor area into estimated rooms. Repeated kinds are
// numbered ("bedroom_1", "bedroom_2").
func PartitionRooms(floorArea float64) []RoomSizing {
	if floorArea <= 0 {
		return nil
	}
	var shares []roomShare
	for _, tier := range roomTiers {
		if floorArea <= tier.maxArea {
			shares = tier.rooms
			break
		}
	}

	counts := make(map[string]int, len(shares))
	for _, s := range shares {
		counts[s.kind]++
	}

	seen := make(map[string]int, len(shares))
	rooms := make([]RoomSizing, 0, len(shares))
	for _, s := range shares {
		key := s.kind
		if counts[s.kind] > 1 {
			seen[s.kind]++
			key = fmt.Sprintf("%s_%d", s.kind, seen[s.kind])
		}
		rooms = append(rooms, RoomSizing{Key: key, Kind: s.kind, Area: floorArea * s.fraction})
	}
	return rooms
}

func sizeRooms(lookup *LookupSet, floorArea, consumption, heightMultiplier, heatingFraction float64) []RoomSizing {
	rooms := PartitionRooms(floorArea)
	seen := make(map[string]int)
	for i := range rooms {
		r := &rooms[i]
		r.Label = lookup.RoomLabel(r.Kind)
		if r.Key != r.Kind {
			seen[r.Kind]++
			r.Label = fmt.Sprintf("%s %d", r.Label, seen[r.Kind])
		}
		daily := consumption * r.Area * heightMultiplier * heatingFraction / heatingDaysPerYear
		r.Demand = RequiredPower(daily)
		r.Radiator, r.Undersized = SelectRadiator(lookup.Radiators, r.Demand)
	}
	return rooms
}

// SelectRadiator picks radiators for a room demand in W from a catalog
// ordered by ascending power. Entries needing water hotter than the 65 °C
// storage are skipped. In order of preference:
//
//  1. the smallest entry rated at least 120% of demand;
//  2. the largest entry if it covers the demand with a tighter margin;
//  3. two units of the smallest entry that covers 120% in pairs.
//
// When even two of the largest entry fall short, those two are returned and
// undersized is true.
func SelectRadiator(catalog []Radiator, demand float64) (RadiatorPick, bool) {
	eligible := make([]Radiator, 0, len(catalog))
	for _, r := range catalog {
		if r.MinWaterTemp <= storedWaterTemp {
			eligible = append(eligible, r)
		}
	}
	if len(eligible) == 0 {
		return RadiatorPick{}, true
	}

	target := demand * radiatorMargin
	for _, r := range eligible {
		if r.Power >= target {
			return pick(r, 1), false
		}
	}

	largest := eligible[len(eligible)-1]
	if largest.Power >= demand {
		return pick(largest, 1), false
	}

	for _, r := range eligible {
		if r.Power*maxRadiatorsPerRoom >= target {
			return pick(r, maxRadiatorsPerRoom), false
		}
	}
	return pick(largest, maxRadiatorsPerRoom), largest.Power*maxRadiatorsPerRoom < demand
}

func pick(r Radiator, qty int) RadiatorPick {
	return RadiatorPick{
		Size:       r.Size,
		Power:      r.Power,
		Dimensions: r.Dimensions,
		UnitPrice:  r.Price,
		Quantity:   qty,
	}
}

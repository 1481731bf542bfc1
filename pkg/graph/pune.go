package graph

// PuneCity returns the reference network: ten Pune locations joined by main
// arteries and low-emission eco bypasses. Every road is two-way.
func PuneCity() (*Graph, error) {
	return New(puneLocations(), Bidirectional(puneRoads()))
}

func puneLocations() []Location {
	at := func(lat, lng float64) *Coordinate { return &Coordinate{Lat: lat, Lng: lng} }
	return []Location{
		{ID: "A", Name: "Katraj (South)", Coord: at(18.4088, 73.8578)},
		{ID: "B", Name: "Swargate", Coord: at(18.5018, 73.8636)},
		{ID: "C", Name: "Deccan Gymkhana", Coord: at(18.5204, 73.8567)},
		{ID: "D", Name: "Shivajinagar", Coord: at(18.5304, 73.8567)},
		{ID: "E", Name: "University Circle", Coord: at(18.5404, 73.8267)},
		{ID: "F", Name: "Kothrud Bypass", Coord: at(18.5074, 73.8077)},
		{ID: "G", Name: "Balewadi Stadium", Coord: at(18.5644, 73.7749)},
		{ID: "H", Name: "Baner", Coord: at(18.5590, 73.7770)},
		{ID: "I", Name: "Wakad", Coord: at(18.5974, 73.7662)},
		{ID: "J", Name: "Hinjawadi Ph 1", Coord: at(18.5912, 73.7394)},
	}
}

func puneRoads() []Link {
	road := func(from, to string, km, minutes float64) Link {
		return Link{From: from, To: to, DistanceKm: km, TimeMinutes: minutes, EmissionsMultiplier: 1.0, RoadType: "artery"}
	}
	eco := func(from, to string, km, minutes, mult float64) Link {
		return Link{From: from, To: to, DistanceKm: km, TimeMinutes: minutes, EmissionsMultiplier: mult, EcoPriority: true, RoadType: "eco-bypass"}
	}
	return []Link{
		road("A", "B", 10, 5),
		road("A", "C", 12, 6),
		road("B", "D", 10, 5),
		road("C", "D", 8, 4),
		road("D", "E", 5, 2),
		road("E", "J", 10, 5),
		road("I", "J", 8, 4),

		eco("C", "F", 8, 4, 0.5),
		eco("F", "H", 15, 7, 0.05),
		eco("E", "I", 10, 5, 0.4),
		eco("G", "D", 12, 5, 0.7),

		road("D", "G", 7, 3),
		road("G", "H", 5, 2),
		road("H", "I", 8, 4),
		road("D", "F", 12, 6),
		road("B", "E", 14, 7),
	}
}

package distance

import "strings"

// =============================================================================
// GEOCODER - Location name to coordinates
// =============================================================================

type Coordinates struct {
	Lat float64
	Lon float64
}

// Geocoder places a location name on the map. The haversine backstop is
// only as good as this table; an unresolvable name here is the resolver's
// single hard failure.
type Geocoder interface {
	Geocode(location string) (Coordinates, bool)
}

// StaticGeocoder is a fixed name-to-coordinates table with alias support.
type StaticGeocoder struct {
	coords  map[string]Coordinates
	aliases map[string]string
}

func NewStaticGeocoder(coords map[string]Coordinates) *StaticGeocoder {
	g := &StaticGeocoder{
		coords:  make(map[string]Coordinates, len(coords)),
		aliases: make(map[string]string),
	}
	for name, c := range coords {
		g.coords[normalizeLocation(name)] = c
	}
	return g
}

// AddAlias maps an alternate name (e.g. a renamed installation) onto an
// existing entry.
func (g *StaticGeocoder) AddAlias(alias, canonical string) {
	g.aliases[normalizeLocation(alias)] = normalizeLocation(canonical)
}

func (g *StaticGeocoder) Geocode(location string) (Coordinates, bool) {
	key := normalizeLocation(location)
	if canonical, ok := g.aliases[key]; ok {
		key = canonical
	}
	if c, ok := g.coords[key]; ok {
		return c, true
	}
	// Tolerate a trailing state qualifier, e.g. "Fort Carson, CO".
	if i := strings.IndexByte(key, ','); i > 0 {
		if c, ok := g.coords[strings.TrimSpace(key[:i])]; ok {
			return c, true
		}
	}
	return Coordinates{}, false
}

// =============================================================================
// BUILT-IN CONUS BASE DATA
// =============================================================================

// ConusBaseGeocoder returns coordinates for the major CONUS installations.
func ConusBaseGeocoder() *StaticGeocoder {
	g := NewStaticGeocoder(map[string]Coordinates{
		"fort bragg":         {35.1415, -79.0038},
		"fort carson":        {38.7375, -104.7889},
		"fort hood":          {31.1349, -97.7798},
		"fort campbell":      {36.6672, -87.4755},
		"fort benning":       {32.3538, -84.9400},
		"fort bliss":         {31.8140, -106.4215},
		"fort drum":          {44.0509, -75.7197},
		"fort lewis":         {47.0855, -122.5821},
		"fort riley":         {39.0886, -96.8133},
		"fort stewart":       {31.8691, -81.6090},
		"norfolk":            {36.9460, -76.3087},
		"san diego":          {32.6849, -117.1303},
		"camp pendleton":     {33.3853, -117.5653},
		"camp lejeune":       {34.6632, -77.3456},
		"wright-patterson":   {39.8262, -84.0483},
		"nellis":             {36.2460, -115.0577},
		"eglin":              {30.4832, -86.5254},
		"jbsa lackland":      {29.3842, -98.6211},
		"jblm":               {47.0855, -122.5821},
	})
	// Post-2023 installation renames.
	g.AddAlias("fort liberty", "fort bragg")
	g.AddAlias("fort moore", "fort benning")
	g.AddAlias("fort cavazos", "fort hood")
	g.AddAlias("joint base lewis-mcchord", "jblm")
	return g
}

// ConusBaseTable returns curated road distances between common PCS pairs.
// These are the cached tier's highest-confidence figures.
func ConusBaseTable() CacheTable {
	return NewCacheTable(map[[2]string]float64{
		{"fort bragg", "fort carson"}:    1680,
		{"fort bragg", "fort hood"}:      1230,
		{"fort bragg", "fort campbell"}:  560,
		{"fort hood", "fort carson"}:     830,
		{"fort campbell", "fort carson"}: 1080,
		{"fort drum", "fort bragg"}:      830,
		{"fort lewis", "fort carson"}:    1330,
		{"fort benning", "fort bliss"}:   1430,
		{"camp lejeune", "camp pendleton"}: 2570,
		{"norfolk", "san diego"}:         2680,
	})
}

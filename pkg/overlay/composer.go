package overlay

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sudorandom/situation-map/pkg/activity"
	"github.com/sudorandom/situation-map/pkg/catalog"
	"github.com/sudorandom/situation-map/pkg/geo"
	"github.com/sudorandom/situation-map/pkg/layers"
)

// Paint steps. Descriptors of a lower step are drawn first.
const (
	ZBackground = iota + 1
	ZBaseMap
	ZStatic
	ZChokepoints
	ZQuakes
	ZHotspots
	ZMonitors
	ZFlights
)

const (
	maxQuakes       = 10
	maxFlights      = 200
	majorQuakeMag   = 6.0
	cyberActiveOver = 0.6
)

// Composer turns the catalog plus one cycle's inputs into an overlay Set.
// The keyword automatons are built once per catalog. A Composer is safe for
// concurrent use.
type Composer struct {
	catalog *catalog.Catalog
	logger  *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time

	hotspots    *activity.Index
	chokepoints *activity.Index
	density     *activity.Index
	theaters    map[geo.View]*activity.Index
}

type Option func(*Composer)

// WithRand sets the source of the cyber-zone activity flag.
func WithRand(r *rand.Rand) Option {
	return func(c *Composer) { c.rng = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the time stamped on composed sets.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

func NewComposer(cat *catalog.Catalog, opts ...Option) *Composer {
	if cat == nil {
		cat = &catalog.Catalog{}
	}
	c := &Composer{
		catalog:  cat,
		logger:   zap.NewNop(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		theaters: make(map[geo.View]*activity.Index),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.hotspots = activity.NewIndex(catalog.Entities(cat.Hotspots))
	c.chokepoints = activity.NewIndex(catalog.Entities(cat.Chokepoints))
	c.density = activity.NewIndex(catalog.Entities(cat.NewsRegions))
	for view, th := range cat.Theaters {
		entities := append(catalog.Entities(th.Cities), catalog.Entities(th.Hotspots)...)
		c.theaters[view] = activity.NewIndex(entities)
	}
	return c
}

// Catalog returns the catalog this composer was built from.
func (c *Composer) Catalog() *catalog.Catalog { return c.catalog }

func (c *Composer) random() float64 {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return c.rng.Float64()
}

// composition accumulates descriptors for one Compose call.
type composition struct {
	in   Input
	proj *geo.Projector
	out  []Descriptor
}

func (b *composition) visible(l layers.Layer) bool {
	return layers.IsVisible(l, b.in.View, b.in.Toggles)
}

// point projects a marker position and appends d when it lands.
func (b *composition) point(lon, lat float64, d Descriptor) bool {
	pt, ok := b.proj.Project(lon, lat)
	if !ok {
		return false
	}
	d.X, d.Y = pt.X, pt.Y
	b.out = append(b.out, d)
	return true
}

// Compose builds a fresh Set for in. Entities whose projection fails are
// omitted.
func (c *Composer) Compose(in Input) Set {
	if _, err := geo.ParseView(string(in.View)); err != nil {
		in.View = geo.ViewGlobal
	}
	b := &composition{in: in, proj: geo.NewProjector(in.View, in.Width, in.Height)}

	c.composeBackground(b)
	c.composeBaseMap(b)
	c.composeStatic(b)
	c.composeChokepoints(b)
	c.composeQuakes(b)
	if in.View.IsRegional() {
		c.composeTheater(b)
	} else {
		c.composeHotspots(b)
	}
	c.composeMonitors(b)
	flights := c.composeFlights(b)

	c.logger.Debug("Composed overlay set",
		zap.String("view", string(in.View)),
		zap.Int("descriptors", len(b.out)),
		zap.Int("corpus", len(in.Corpus)))

	return Set{
		View:        in.View,
		Width:       in.Width,
		Height:      in.Height,
		ComposedAt:  c.now(),
		FlightCount: flights,
		Descriptors: b.out,
	}
}

func (c *Composer) composeBackground(b *composition) {
	b.out = append(b.out, Descriptor{
		EntityID: "background",
		Kind:     KindBackground,
		Layer:    layers.LayerCountries,
		Color:    layers.Background,
		Z:        ZBackground,
	})
	if !b.visible(layers.LayerCoordinates) {
		return
	}
	for _, lat := range []int{-60, -30, 0, 30, 60} {
		b.point(-175, float64(lat), Descriptor{
			EntityID: fmt.Sprintf("lat_%d", lat),
			Kind:     KindCoordinateLabel,
			Layer:    layers.LayerCoordinates,
			Class:    "lat",
			Label:    degreeLabel(lat, "N", "S"),
			Z:        ZBackground,
		})
	}
	for _, lon := range []int{-120, -60, 0, 60, 120} {
		b.point(float64(lon), -85, Descriptor{
			EntityID: fmt.Sprintf("lon_%d", lon),
			Kind:     KindCoordinateLabel,
			Layer:    layers.LayerCoordinates,
			Class:    "lon",
			Label:    degreeLabel(lon, "E", "W"),
			Z:        ZBackground,
		})
	}
}

func degreeLabel(v int, pos, neg string) string {
	switch {
	case v > 0:
		return fmt.Sprintf("%d°%s", v, pos)
	case v < 0:
		return fmt.Sprintf("%d°%s", -v, neg)
	}
	return "0°"
}

// rings projects every ring of a shape, dropping vertices that cannot be
// placed and rings left with fewer than three.
func (b *composition) rings(polygons [][][][]float64) [][]geo.Point {
	var out [][]geo.Point
	for _, poly := range polygons {
		for _, ring := range poly {
			pts := make([]geo.Point, 0, len(ring))
			for _, v := range ring {
				if len(v) < 2 {
					continue
				}
				if pt, ok := b.proj.Vertex(v[0], v[1]); ok {
					pts = append(pts, pt)
				}
			}
			if len(pts) >= 3 {
				out = append(out, pts)
			}
		}
	}
	return out
}

func (c *Composer) composeBaseMap(b *composition) {
	bm := b.in.BaseMap
	if bm.Empty() {
		return
	}
	var nation *geo.Shape
	for i := range bm.Countries {
		shape := &bm.Countries[i]
		rings := b.rings(shape.Polygons)
		if len(rings) == 0 {
			continue
		}
		style := layers.ShadeCountry(b.in.View, shape.ID, c.catalog.SanctionFor(shape.Numeric), b.in.Toggles)
		b.out = append(b.out, Descriptor{
			EntityID: shape.ID,
			Kind:     KindCountry,
			Layer:    layers.LayerCountries,
			Label:    shape.Name,
			Class:    string(style.Tier),
			Style:    &style,
			Rings:    rings,
			Z:        ZBaseMap,
		})
		if shape.ID == "USA" {
			nation = shape
		}
	}

	if !b.visible(layers.LayerStates) {
		return
	}
	for _, shape := range bm.States {
		rings := b.rings(shape.Polygons)
		if len(rings) == 0 {
			continue
		}
		style := layers.StateStyle
		b.out = append(b.out, Descriptor{
			EntityID: shape.ID,
			Kind:     KindState,
			Layer:    layers.LayerStates,
			Label:    shape.Name,
			Style:    &style,
			Rings:    rings,
			Z:        ZBaseMap,
		})
	}
	if nation != nil {
		style := layers.NationStyle
		b.out = append(b.out, Descriptor{
			EntityID: "nation",
			Kind:     KindState,
			Layer:    layers.LayerStates,
			Class:    "nation",
			Style:    &style,
			Rings:    b.rings(nation.Polygons),
			Z:        ZBaseMap,
		})
	}
}

func (c *Composer) composeStatic(b *composition) {
	cat := c.catalog

	if b.visible(layers.LayerCables) {
		for _, cable := range cat.Cables {
			ctrl := make([]geo.Point, 0, len(cable.Points))
			for _, p := range cable.Points {
				if pt, ok := b.proj.Project(p[0], p[1]); ok {
					ctrl = append(ctrl, pt)
				}
			}
			if len(ctrl) < 2 {
				continue
			}
			class := ""
			if cable.Major {
				class = "major"
			}
			b.out = append(b.out, Descriptor{
				EntityID: cable.ID,
				Kind:     KindCable,
				Layer:    layers.LayerCables,
				Label:    cable.Name,
				Class:    class,
				Path:     basisSpline(ctrl),
				Payload:  cable,
				Z:        ZStatic,
			})
		}
	}

	if b.visible(layers.LayerConflicts) {
		for _, zone := range cat.ConflictZones {
			ring, ok := b.conflictRing(zone)
			if !ok {
				continue
			}
			b.out = append(b.out, Descriptor{
				EntityID: zone.ID,
				Kind:     KindConflictZone,
				Layer:    layers.LayerConflicts,
				Class:    intensityClass(zone.Intensity),
				Rings:    [][]geo.Point{ring},
				Z:        ZStatic,
			})
		}
	}

	if b.visible(layers.LayerDensity) {
		scores := c.density.Score(b.in.Corpus)
		for _, region := range cat.NewsRegions {
			s := scores[region.ID]
			if s.Score <= 0 {
				continue
			}
			size := region.Radius
			switch s.Tier {
			case activity.TierHigh:
				size *= 1.5
			case activity.TierMedium:
				size *= 1.2
			}
			b.point(region.Lon, region.Lat, Descriptor{
				EntityID: region.ID,
				Kind:     KindDensity,
				Layer:    layers.LayerDensity,
				Tier:     s.Tier,
				Class:    string(s.Tier),
				Size:     size,
				Z:        ZStatic,
			})
		}
	}

	if b.visible(layers.LayerConflicts) {
		for _, zone := range cat.ConflictZones {
			b.point(zone.LabelPos.Lon, zone.LabelPos.Lat, Descriptor{
				EntityID: zone.ID,
				Kind:     KindConflictLabel,
				Layer:    layers.LayerConflicts,
				Class:    intensityClass(zone.Intensity),
				Label:    zone.Name,
				Payload:  zone,
				Z:        ZStatic,
			})
		}
	}

	if b.visible(layers.LayerBases) {
		for _, base := range cat.MilitaryBases {
			b.point(base.Lon, base.Lat, Descriptor{
				EntityID: base.ID,
				Kind:     KindBase,
				Layer:    layers.LayerBases,
				Class:    base.Type,
				Label:    base.Name,
				Payload:  base,
				Z:        ZStatic,
			})
		}
	}

	if b.visible(layers.LayerNuclear) {
		for _, f := range cat.NuclearFacilities {
			class := ""
			if f.Type == "weapons" || f.Type == "enrichment" {
				class = "weapons"
			}
			b.point(f.Lon, f.Lat, Descriptor{
				EntityID: f.ID,
				Kind:     KindNuclear,
				Layer:    layers.LayerNuclear,
				Class:    class,
				Label:    f.Name,
				Payload:  f,
				Z:        ZStatic,
			})
		}
	}

	if b.visible(layers.LayerCyber) {
		for _, region := range cat.CyberRegions {
			active := c.random() > cyberActiveOver
			class := ""
			if active {
				class = "active"
			}
			b.point(region.Lon, region.Lat, Descriptor{
				EntityID: region.ID,
				Kind:     KindCyber,
				Layer:    layers.LayerCyber,
				Class:    class,
				Label:    region.Group,
				Payload:  CyberPayload{CyberRegion: region, IsActive: active},
				Z:        ZStatic,
			})
		}
	}
}

// conflictRing projects a zone outline. Any vertex that fails drops the
// whole zone.
func (b *composition) conflictRing(zone catalog.ConflictZone) ([]geo.Point, bool) {
	ring := make([]geo.Point, 0, len(zone.Coords))
	for _, v := range zone.Coords {
		pt, ok := b.proj.Project(v[0], v[1])
		if !ok {
			return nil, false
		}
		ring = append(ring, pt)
	}
	return ring, len(ring) >= 3
}

func intensityClass(intensity string) string {
	if intensity == "high" {
		return "high-intensity"
	}
	return ""
}

func (c *Composer) composeChokepoints(b *composition) {
	if !b.visible(layers.LayerChokepoints) {
		return
	}
	scores := c.chokepoints.Score(b.in.Corpus)
	for _, cp := range c.catalog.Chokepoints {
		s := scores[cp.ID]
		alert := s.MatchCount > 0
		class := ""
		if alert {
			class = "alert"
		}
		b.point(cp.Lon, cp.Lat, Descriptor{
			EntityID: cp.ID,
			Kind:     KindChokepoint,
			Layer:    layers.LayerChokepoints,
			Tier:     s.Tier,
			Class:    class,
			Label:    cp.Name,
			Payload:  ChokepointPayload{Chokepoint: cp, IsAlert: alert, Headlines: nonNil(s.Matched)},
			Z:        ZChokepoints,
		})
	}
}

func (c *Composer) composeQuakes(b *composition) {
	if !b.visible(layers.LayerQuakes) {
		return
	}
	for i, q := range b.in.Quakes {
		if i >= maxQuakes {
			break
		}
		if q.Mag == nil {
			continue
		}
		mag := *q.Mag
		id := q.ID
		if id == "" {
			id = fmt.Sprintf("eq_%d", i)
		}
		class := ""
		if mag >= majorQuakeMag {
			class = "major"
		}
		b.point(q.Lon, q.Lat, Descriptor{
			EntityID: id,
			Kind:     KindQuake,
			Layer:    layers.LayerQuakes,
			Class:    class,
			Label:    fmt.Sprintf("M%.1f", mag),
			Payload: QuakePayload{
				ID: id, Mag: mag, Place: q.Place, Time: q.Time,
				Lat: q.Lat, Lon: q.Lon, Depth: q.Depth,
			},
			Z: ZQuakes,
		})
	}
}

func (c *Composer) composeHotspots(b *composition) {
	if !b.visible(layers.LayerHotspots) {
		return
	}
	scores := c.hotspots.Score(b.in.Corpus)
	for _, h := range c.catalog.Hotspots {
		s := scores[h.ID]
		pt, ok := b.proj.Project(h.Lon, h.Lat)
		if !ok {
			continue
		}
		if s.Tier == activity.TierHigh && len(s.Matched) > 0 {
			b.out = append(b.out, Descriptor{
				EntityID: h.ID,
				Kind:     KindPulse,
				Layer:    layers.LayerHotspots,
				X:        pt.X,
				Y:        pt.Y,
				Tier:     s.Tier,
				Label:    "Breaking",
				Z:        ZHotspots,
			})
		}
		b.out = append(b.out, Descriptor{
			EntityID: h.ID,
			Kind:     KindHotspot,
			Layer:    layers.LayerHotspots,
			X:        pt.X,
			Y:        pt.Y,
			Tier:     s.Tier,
			Class:    string(s.Tier),
			Label:    h.Name,
			Payload: HotspotPayload{
				Hotspot:    h,
				Level:      s.Tier,
				Score:      s.Score,
				MatchCount: s.MatchCount,
				Headlines:  nonNil(s.Matched),
			},
			Z: ZHotspots,
		})
	}
}

func (c *Composer) composeTheater(b *composition) {
	if !b.visible(layers.LayerTheater) {
		return
	}
	idx, ok := c.theaters[b.in.View]
	if !ok {
		return
	}
	th := c.catalog.Theater(b.in.View)
	scores := idx.Score(b.in.Corpus)

	for _, city := range th.Cities {
		s := scores[city.ID]
		class := city.Type
		if s.Tier == activity.TierHigh {
			class += " high-activity"
		}
		b.point(city.Lon, city.Lat, Descriptor{
			EntityID: city.ID,
			Kind:     KindCity,
			Layer:    layers.LayerTheater,
			Tier:     s.Tier,
			Class:    class,
			Label:    countLabel(city.Name, s.MatchCount),
			Color:    cityColor(city),
			Payload:  CityPayload{City: city, MatchCount: s.MatchCount, Headlines: nonNil(s.Matched)},
			Z:        ZHotspots,
		})
	}
	for _, h := range th.Hotspots {
		s := scores[h.ID]
		b.point(h.Lon, h.Lat, Descriptor{
			EntityID: h.ID,
			Kind:     KindRegionalHotspot,
			Layer:    layers.LayerTheater,
			Tier:     s.Tier,
			Class:    string(s.Tier),
			Label:    h.Name,
			Payload:  RegionalHotspotPayload{RegionalHotspot: h, MatchCount: s.MatchCount, Headlines: nonNil(s.Matched)},
			Z:        ZHotspots,
		})
	}
}

func cityColor(city catalog.City) string {
	switch {
	case city.Type == "capital":
		return "#ffcc00"
	case city.Color != "":
		return city.Color
	case city.Type == "major":
		return "#00ff88"
	}
	return "#00aaff"
}

func countLabel(name string, n int) string {
	if n > 0 {
		return fmt.Sprintf("%s (%d)", name, n)
	}
	return name
}

func (c *Composer) composeMonitors(b *composition) {
	if !b.visible(layers.LayerMonitors) {
		return
	}
	for _, sm := range b.in.Monitors {
		m := sm.Monitor
		b.point(m.Lon, m.Lat, Descriptor{
			EntityID: m.ID,
			Kind:     KindMonitor,
			Layer:    layers.LayerMonitors,
			Tier:     sm.Score.Tier,
			Label:    countLabel(m.Name, sm.Score.MatchCount),
			Color:    m.Color,
			Payload: MonitorPayload{
				ID: m.ID, Name: m.Name, Color: m.Color, Keywords: m.Keywords,
				Lat: m.Lat, Lon: m.Lon,
				MatchCount: sm.Score.MatchCount,
				Matches:    nonNil(sm.Score.Matched),
			},
			Z: ZMonitors,
		})
	}
}

// composeFlights returns the size of the supplied flight list.
func (c *Composer) composeFlights(b *composition) int {
	if !b.visible(layers.LayerFlights) || b.in.Flights == nil {
		return 0
	}
	for i, f := range b.in.Flights {
		if i >= maxFlights {
			break
		}
		pt, ok := b.proj.Project(f.Lon, f.Lat)
		if !ok || pt.X < 0 || pt.X > 100 || pt.Y < 0 || pt.Y > 100 {
			continue
		}
		var heading float64
		if f.Heading != nil {
			heading = *f.Heading
		}
		id := f.ICAO24
		if id == "" {
			id = fmt.Sprintf("flight_%d", i)
		}
		b.out = append(b.out, Descriptor{
			EntityID: id,
			Kind:     KindAircraft,
			Layer:    layers.LayerFlights,
			X:        pt.X,
			Y:        pt.Y,
			Class:    ClassifyAircraft(f.Callsign, f.Country),
			Label:    AircraftArrow(f.Heading),
			Rotation: heading,
			Payload:  f,
			Z:        ZFlights,
		})
	}
	b.out = append(b.out, Descriptor{
		EntityID: "flight-count",
		Kind:     KindFlightBadge,
		Layer:    layers.LayerFlights,
		Label:    fmt.Sprintf("✈ %d flights", len(b.in.Flights)),
		Z:        ZFlights,
	})
	return len(b.in.Flights)
}

func nonNil(items []activity.TextItem) []activity.TextItem {
	if items == nil {
		return []activity.TextItem{}
	}
	return items
}

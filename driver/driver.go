// Package driver implements the module registry and open_face dispatch
// loop: a small set of format drivers (TrueType glyf, OpenType/CFF, Type 1)
// tried in registration order against a font resource, plus the renderer
// registry a glyph slot's format is matched against at render time.
// Grounded on golang.org/x/image/font/sfnt's single-format Parse (which
// only ever recognizes its own sfnt wrapper) generalized to FreeType's
// actual module/driver pattern: an ordered probe list, first non-
// UnknownFileFormat response wins, per design note 9's "flat kind tag +
// class pointer" guidance in place of an inheritance hierarchy.
package driver

import (
	"sort"

	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/cff"
	"github.com/go-fontcore/fontcore/sbit"
	"github.com/go-fontcore/fontcore/sfnt"
	"github.com/go-fontcore/fontcore/stream"
	"github.com/go-fontcore/fontcore/truetype"
	"github.com/go-fontcore/fontcore/type1"
	"github.com/go-fontcore/fontcore/type1/pfb"
	"golang.org/x/exp/maps"
)

// Kind tags which glyph-outline format a successfully opened face carries.
type Kind int

const (
	KindTrueType Kind = iota
	KindCFF
	KindType1
)

// FaceData is everything a driver's InitFace produces: the tagged variant
// of whichever format matched, plus the sfnt table set both sfnt-wrapped
// formats share.
type FaceData struct {
	Kind Kind

	Tables *sfnt.Tables // non-nil for KindTrueType/KindCFF

	TTLoader  *truetype.Loader
	CFFFont   *cff.Font
	Type1Font *type1.Font

	Sbit *sbit.Engine // non-nil when the sfnt resource also carries EBLC/EBDT
}

// Module is the common identity every registered driver and renderer
// carries: a name (for set_renderer/driver-pin lookups) and a version (for
// add_module's replace-if-newer rule).
type Module struct {
	Name    string
	Version int
}

// Driver probes and opens faces of one format.
type Driver struct {
	Module
	// InitFace attempts to open s as this driver's format. It must return
	// fontcore.CodeUnknownFileFormat (and nothing else) when s is simply
	// not this format, so the dispatch loop can try the next driver; any
	// other error aborts the open.
	InitFace func(s *stream.Stream, faceIndex int) (*FaceData, error)
}

// Renderer rasterizes one outline/bitmap format into a slot's bitmap.
// Registered separately from Driver (a driver can be outline-only and rely
// on a shared renderer for its format).
type Renderer struct {
	Module
	Format string // glyph slot format this renderer accepts, e.g. "outline", "bitmap"
}

// Registry is the library's module list: registered drivers in probe
// order, and registered renderers with a settable preferred renderer per
// format.
type Registry struct {
	drivers   []*Driver
	renderers []*Renderer
	byName    map[string]*Driver
}

// NewRegistry returns an empty registry; callers add the drivers/renderers
// they want via AddModule/AddRenderer.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Driver)}
}

// AddModule registers a driver. Re-registering a name with a higher
// version replaces the existing entry; a lower version is rejected
// (CodeInvalidArgument), matching add_module's versioning rule.
func (r *Registry) AddModule(d *Driver) error {
	for i, existing := range r.drivers {
		if existing.Name != d.Name {
			continue
		}
		if d.Version < existing.Version {
			return fontcore.New(fontcore.ModuleDriver, fontcore.CodeInvalidArgument)
		}
		r.drivers[i] = d
		r.byName[d.Name] = d
		return nil
	}
	r.drivers = append(r.drivers, d)
	if r.byName == nil {
		r.byName = make(map[string]*Driver)
	}
	r.byName[d.Name] = d
	return nil
}

// DriverNames returns the names of every registered driver, sorted, for
// diagnostics and driver-pin validation.
func (r *Registry) DriverNames() []string {
	names := maps.Keys(r.byName)
	sort.Strings(names)
	return names
}

// AddRenderer registers a renderer module, same versioning rule as
// AddModule.
func (r *Registry) AddRenderer(m *Renderer) error {
	for i, existing := range r.renderers {
		if existing.Name != m.Name {
			continue
		}
		if m.Version < existing.Version {
			return fontcore.New(fontcore.ModuleDriver, fontcore.CodeInvalidArgument)
		}
		r.renderers[i] = m
		return nil
	}
	r.renderers = append(r.renderers, m)
	return nil
}

// SetRenderer moves the named renderer to the head of the list, so
// RendererFor prefers it on the next format-matching lookup, matching
// set_renderer's "subsequent lookups of the same format prefer it" rule.
func (r *Registry) SetRenderer(name string) bool {
	for i, m := range r.renderers {
		if m.Name == name {
			r.renderers = append(r.renderers[:i:i], r.renderers[i+1:]...)
			r.renderers = append([]*Renderer{m}, r.renderers...)
			return true
		}
	}
	return false
}

// RendererFor returns the first registered renderer accepting format,
// walking the list in its current (possibly SetRenderer-reordered) order.
func (r *Registry) RendererFor(format string) (*Renderer, bool) {
	for _, m := range r.renderers {
		if m.Format == format {
			return m, true
		}
	}
	return nil, false
}

// OpenFace tries drivers in registration order (or only driverPin, if
// non-empty) and returns the first one that doesn't fail with
// UnknownFileFormat. Any other error aborts the open immediately without
// trying further drivers, per open_face's propagation rule.
func (r *Registry) OpenFace(s *stream.Stream, faceIndex int, driverPin string) (*FaceData, string, error) {
	for _, d := range r.drivers {
		if driverPin != "" && d.Name != driverPin {
			continue
		}
		data, err := d.InitFace(s, faceIndex)
		if err == nil {
			return data, d.Name, nil
		}
		if fontcore.Is(err, fontcore.CodeUnknownFileFormat) {
			continue
		}
		return nil, "", err
	}
	return nil, "", fontcore.New(fontcore.ModuleDriver, fontcore.CodeUnknownFileFormat)
}

// DefaultRegistry returns a registry with the three format drivers this
// module implements, in the order FreeType itself probes them (sfnt-wrapped
// formats before the bare Type 1 text format), plus the single "raster"
// renderer module every format's outline is rasterized through (the
// render package itself stays independent of the registry, so a caller
// assembling a registry by hand can still omit it to make LoadGlyph with
// LOAD_RENDER fail fast with CannotRenderGlyph).
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.AddModule(&Driver{Module: Module{Name: "truetype", Version: 1}, InitFace: initTrueType})
	r.AddModule(&Driver{Module: Module{Name: "cff", Version: 1}, InitFace: initCFF})
	r.AddModule(&Driver{Module: Module{Name: "type1", Version: 1}, InitFace: initType1})
	r.AddRenderer(&Renderer{Module: Module{Name: "raster", Version: 1}, Format: "outline"})
	return r
}

func parseSfntFace(s *stream.Stream, faceIndex int) (*sfnt.Tables, error) {
	tables, err := sfnt.ParseTables(s, faceIndex)
	if err != nil {
		if fontcore.Is(err, fontcore.CodeUnknownFileFormat) {
			return nil, err
		}
		// Any other sfnt-layer failure (bad table, truncated resource) on a
		// resource that did look like an sfnt wrapper is a real error, not
		// "try the next driver" — but initTrueType/initCFF only get this far
		// after the version word already matched, so surfacing it directly
		// is correct per open_face's "any other error aborts the open".
		return nil, err
	}
	return tables, nil
}

func initTrueType(s *stream.Stream, faceIndex int) (*FaceData, error) {
	tables, err := parseSfntFace(s, faceIndex)
	if err != nil {
		return nil, err
	}
	if !tables.Directory.Has(sfnt.Tag("glyf")) || !tables.Directory.Has(sfnt.Tag("loca")) {
		return nil, fontcore.New(fontcore.ModuleDriver, fontcore.CodeUnknownFileFormat)
	}
	longFormat := tables.Head.IndexToLocFormat != 0
	loca, err := truetype.ParseLoca(s, tables.Directory, int(tables.Maxp.NumGlyphs), longFormat)
	if err != nil {
		return nil, err
	}
	loader := &truetype.Loader{
		Stream:               s,
		Dir:                  tables.Directory,
		Loca:                 loca,
		Hmtx:                 tables.Hmtx,
		Vmtx:                 tables.Vmtx,
		UnitsPerEm:           tables.Head.UnitsPerEm,
		MaxPoints:            int(tables.Maxp.MaxPoints),
		MaxContours:          int(tables.Maxp.MaxContours),
		MaxCompositePoints:   int(tables.Maxp.MaxCompositePoints),
		MaxCompositeContours: int(tables.Maxp.MaxCompositeContours),
	}
	if tables.Vmtx == nil {
		synthVerticalMetrics(loader, tables)
	}
	data := &FaceData{Kind: KindTrueType, Tables: tables, TTLoader: loader}
	if tables.Directory.Has(sfnt.Tag("EBLC")) && tables.Directory.Has(sfnt.Tag("EBDT")) {
		if eng, err := sbit.NewEngine(s, tables.Directory); err == nil {
			data.Sbit = eng
		}
	}
	return data, nil
}

func initCFF(s *stream.Stream, faceIndex int) (*FaceData, error) {
	tables, err := parseSfntFace(s, faceIndex)
	if err != nil {
		return nil, err
	}
	if !tables.Directory.Has(sfnt.Tag("CFF ")) {
		return nil, fontcore.New(fontcore.ModuleDriver, fontcore.CodeUnknownFileFormat)
	}
	font, err := cff.Parse(s, tables.Directory)
	if err != nil {
		return nil, err
	}
	data := &FaceData{Kind: KindCFF, Tables: tables, CFFFont: font}
	if tables.Directory.Has(sfnt.Tag("EBLC")) && tables.Directory.Has(sfnt.Tag("EBDT")) {
		if eng, err := sbit.NewEngine(s, tables.Directory); err == nil {
			data.Sbit = eng
		}
	}
	return data, nil
}

func initType1(s *stream.Stream, faceIndex int) (*FaceData, error) {
	if faceIndex != 0 {
		return nil, fontcore.New(fontcore.ModuleDriver, fontcore.CodeInvalidArgument)
	}
	raw, err := s.ReadAll()
	if err != nil {
		return nil, fontcore.New(fontcore.ModuleDriver, fontcore.CodeUnknownFileFormat)
	}
	unwrapped := pfb.Unwrap(raw)
	if !looksLikeType1(unwrapped) {
		return nil, fontcore.New(fontcore.ModuleDriver, fontcore.CodeUnknownFileFormat)
	}
	font, err := type1.Parse(unwrapped)
	if err != nil {
		return nil, err
	}
	return &FaceData{Kind: KindType1, Type1Font: font}, nil
}

// synthVerticalMetrics fills in a TrueType loader's synthetic vertical
// advance/origin for fonts that carry no vhea/vmtx, preferring OS/2's
// typographic metrics (the cross-platform-consistent choice) and falling
// back to hhea, matching ttmetrics.c's synthesis for vertical-layout
// requests against a horizontal-only font.
func synthVerticalMetrics(loader *truetype.Loader, tables *sfnt.Tables) {
	var ascender, descender, lineGap int16
	if tables.OS2 != nil && tables.OS2.HasTypoMetrics {
		ascender, descender, lineGap = tables.OS2.STypoAscender, tables.OS2.STypoDescender, tables.OS2.STypoLineGap
	} else {
		ascender, descender, lineGap = tables.Hhea.Ascender, tables.Hhea.Descender, tables.Hhea.LineGap
	}
	advance := int32(ascender) - int32(descender) + int32(lineGap)
	if advance <= 0 {
		return
	}
	loader.SynthVertAdvance = uint16(advance)
	loader.SynthVertAscender = ascender
}

func looksLikeType1(b []byte) bool {
	return len(b) > 2 && b[0] == '%' && b[1] == '!'
}

package sfnt

import "github.com/go-fontcore/fontcore/stream"

// Tables bundles every sfnt table this library loads eagerly at face-open
// time. It is the handoff point between the D/E components here and the
// format-specific glyph loaders (truetype, cff) and the L-component Face.
type Tables struct {
	Directory *Directory

	Head *Head
	Maxp *Maxp
	Hhea *Hhea
	Hmtx *Metrics
	Vhea *Hhea // nil if absent
	Vmtx *Metrics
	Cmap *Cmap
	Name *Name
	OS2  *OS2
	Post *Post
	Kern *Kern
	Hdmx *Hdmx
	Gasp *Gasp
}

// ParseTables reads the table directory and every mandatory/optional table
// this library understands. faceIndex selects a face within a TrueType
// Collection; it is ignored for bare sfnt resources.
func ParseTables(s *stream.Stream, faceIndex int) (*Tables, error) {
	dir, err := ParseDirectory(s, faceIndex)
	if err != nil {
		return nil, err
	}
	t := &Tables{Directory: dir}

	if t.Head, err = ParseHead(s, dir); err != nil {
		return nil, err
	}
	if t.Maxp, err = ParseMaxp(s, dir, dir.IsPostScript); err != nil {
		return nil, err
	}
	if t.Hhea, err = ParseHhea(s, dir); err != nil {
		return nil, err
	}
	if t.Hmtx, err = ParseHmtx(s, dir, int(t.Hhea.NumLongMetrics), int(t.Maxp.NumGlyphs)); err != nil {
		return nil, err
	}
	if vhea, err := ParseVhea(s, dir); err == nil {
		t.Vhea = vhea
		if t.Vmtx, err = ParseVmtx(s, dir, int(vhea.NumLongMetrics), int(t.Maxp.NumGlyphs)); err != nil {
			return nil, err
		}
	}
	if t.Cmap, err = ParseCmap(s, dir); err != nil {
		return nil, err
	}
	if t.Name, err = ParseName(s, dir); err != nil {
		return nil, err
	}
	if t.OS2, err = ParseOS2(s, dir); err != nil {
		return nil, err
	}
	if t.Post, err = ParsePost(s, dir, int(t.Maxp.NumGlyphs)); err != nil {
		return nil, err
	}
	if t.Kern, err = ParseKern(s, dir); err != nil {
		return nil, err
	}
	if t.Hdmx, err = ParseHdmx(s, dir, int(t.Maxp.NumGlyphs)); err != nil {
		return nil, err
	}
	if t.Gasp, err = ParseGasp(s, dir); err != nil {
		return nil, err
	}
	return t, nil
}

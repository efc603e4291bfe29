package sfnt

import "github.com/go-fontcore/fontcore/stream"

// GaspRange is one ppem-bounded behavior record of the 'gasp' table.
type GaspRange struct {
	MaxPPEM uint16
	Flags   uint16
}

const (
	GaspGridfit       = 1 << 0
	GaspDoGray        = 1 << 1
	GaspSymmetricGridfit = 1 << 2
	GaspSymmetricSmoothing = 1 << 3
)

// Gasp is the decoded optional 'gasp' table, used to decide whether
// grid-fitting should apply at a given ppem.
type Gasp struct {
	Ranges []GaspRange
}

// ParseGasp reads the optional 'gasp' table.
func ParseGasp(s *stream.Stream, d *Directory) (*Gasp, error) {
	length, err := d.GotoTable(s, Tag("gasp"))
	if err != nil {
		return &Gasp{}, nil //nolint:nilerr // absence is not an error
	}
	if err := s.EnterFrame(4); err != nil {
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // version
		s.ExitFrame()
		return nil, err
	}
	numRanges, err := s.GetU16()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	s.ExitFrame()
	_ = length

	g := &Gasp{Ranges: make([]GaspRange, numRanges)}
	if err := s.EnterFrame(int(numRanges) * 4); err != nil {
		return nil, err
	}
	defer s.ExitFrame()
	for i := range g.Ranges {
		maxPPEM, err := s.GetU16()
		if err != nil {
			return nil, err
		}
		flags, err := s.GetU16()
		if err != nil {
			return nil, err
		}
		g.Ranges[i] = GaspRange{MaxPPEM: maxPPEM, Flags: flags}
	}
	return g, nil
}

// Behavior returns the flags for the first range whose MaxPPEM covers ppem,
// or 0 if gasp is absent or ppem exceeds every range (matching the "assume
// default" fallback FreeType's ttload.c uses).
func (g *Gasp) Behavior(ppem int) uint16 {
	for _, r := range g.Ranges {
		if ppem <= int(r.MaxPPEM) {
			return r.Flags
		}
	}
	return 0
}

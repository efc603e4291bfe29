package sfnt

import (
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/stream"
)

// NameRecord is one decoded entry of the 'name' table.
type NameRecord struct {
	PlatformID uint16
	EncodingID uint16
	LanguageID uint16
	NameID     uint16
	Value      string
}

// Name is the decoded 'name' table. FreeType loads these strings into one
// pooled storage with each record pointing into the pool; here the pool is
// simply the decoded Value strings themselves, since Go strings are already
// immutable, reference-counted views — there is no separate arena to
// manage.
type Name struct {
	Records []NameRecord
}

const (
	platMacintosh = 1
	platWindows   = 3
)

// ParseName reads the mandatory 'name' table and decodes every record's raw
// bytes into a string, using the platform/encoding-specific codec: Mac
// Roman for platform 1 (via golang.org/x/text/encoding/charmap), UTF-16BE
// for platform 3 (via golang.org/x/text/encoding/unicode), and a raw-byte
// passthrough for anything else.
func ParseName(s *stream.Stream, d *Directory) (*Name, error) {
	length, err := d.GotoTable(s, Tag("name"))
	if err != nil {
		return nil, err
	}
	if length < 6 {
		return nil, fontcore.New(fontcore.ModuleSfnt, fontcore.CodeInvalidTable)
	}
	tableStart := s.Pos()

	if err := s.EnterFrame(6); err != nil {
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // format
		s.ExitFrame()
		return nil, err
	}
	count, err := s.GetU16()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	stringOffset, err := s.GetU16()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	s.ExitFrame()

	type rec struct {
		plat, enc, lang, name uint16
		off, len              uint16
	}
	recs := make([]rec, count)
	if err := s.EnterFrame(int(count) * 12); err != nil {
		return nil, err
	}
	for i := range recs {
		var r rec
		if r.plat, err = s.GetU16(); err != nil {
			s.ExitFrame()
			return nil, err
		}
		if r.enc, err = s.GetU16(); err != nil {
			s.ExitFrame()
			return nil, err
		}
		if r.lang, err = s.GetU16(); err != nil {
			s.ExitFrame()
			return nil, err
		}
		if r.name, err = s.GetU16(); err != nil {
			s.ExitFrame()
			return nil, err
		}
		if r.len, err = s.GetU16(); err != nil {
			s.ExitFrame()
			return nil, err
		}
		if r.off, err = s.GetU16(); err != nil {
			s.ExitFrame()
			return nil, err
		}
		recs[i] = r
	}
	s.ExitFrame()

	pool := tableStart + int64(stringOffset)
	out := &Name{Records: make([]NameRecord, count)}
	for i, r := range recs {
		if err := s.Seek(pool + int64(r.off)); err != nil {
			return nil, err
		}
		if err := s.EnterFrame(int(r.len)); err != nil {
			return nil, err
		}
		raw, err := s.GetBytes(int(r.len))
		s.ExitFrame()
		if err != nil {
			return nil, err
		}
		out.Records[i] = NameRecord{
			PlatformID: r.plat,
			EncodingID: r.enc,
			LanguageID: r.lang,
			NameID:     r.name,
			Value:      decodeNameBytes(r.plat, r.enc, raw),
		}
	}
	return out, nil
}

func decodeNameBytes(platformID, encodingID uint16, raw []byte) string {
	switch platformID {
	case platWindows:
		dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
		if s, err := dec.String(string(raw)); err == nil {
			return s
		}
	case platMacintosh:
		if encodingID == 0 { // Roman
			if s, err := charmap.Macintosh.NewDecoder().String(string(raw)); err == nil {
				return s
			}
		}
	}
	return string(raw)
}

// NameByID returns the first record matching nameID, preferring a Windows
// platform record (the common case for modern fonts), or "" if absent.
func (n *Name) NameByID(nameID uint16) string {
	var fallback string
	for _, r := range n.Records {
		if r.NameID != nameID {
			continue
		}
		if r.PlatformID == platWindows {
			return r.Value
		}
		if fallback == "" {
			fallback = r.Value
		}
	}
	return fallback
}

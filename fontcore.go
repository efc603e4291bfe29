// Package fontcore is a font-rasterization library: it ingests font
// resources in several scalable and bitmap binary formats, exposes a
// uniform model of faces, sizes, character maps, and glyph slots, and
// produces either bitmapped renderings or vector outlines on demand.
package fontcore

import "fmt"

// Module identifies which subsystem an Error originated in, mirroring the
// two-level (module, kind) error tag of the format this library decodes.
type Module string

// The modules that can report an Error.
const (
	ModuleStream    Module = "stream"
	ModuleMemory    Module = "memory"
	ModuleOutline   Module = "outline"
	ModuleSfnt      Module = "sfnt"
	ModuleTrueType  Module = "truetype"
	ModuleInterp    Module = "interp"
	ModuleSbit      Module = "sbit"
	ModuleCharstring Module = "charstring"
	ModulePSHint    Module = "pshinter"
	ModuleDriver    Module = "driver"
	ModuleFace      Module = "face"
)

// Code is a kind within a Module.
type Code int

// The recognized error kinds, spanning all modules. Not every Module uses
// every Code.
const (
	CodeOK Code = iota
	CodeCannotOpenResource
	CodeUnknownFileFormat
	CodeInvalidFileFormat
	CodeInvalidArgument
	CodeInvalidHandle
	CodeOutOfMemory
	CodeInvalidStreamRead
	CodeInvalidStreamSeek
	CodeInvalidStreamOperation
	CodeInvalidGlyphIndex
	CodeInvalidGlyphFormat
	CodeCannotRenderGlyph
	CodeInvalidOutline
	CodeTooManyHints
	CodeTooManyPoints
	CodeTooManyContours
	CodeTooManyCaches
	CodeInvalidComposite
	CodeInvalidTable
	CodeTableMissing
	CodeInvalidCodeRange
	CodeInvalidOpcode
	CodeStackOverflow
	CodeStackUnderflow
	CodeDivideByZero
	CodeInvalidReferencePoint
	CodeInvalidCVTIndex
	CodeUnlistedObject
)

var codeNames = map[Code]string{
	CodeOK:                     "ok",
	CodeCannotOpenResource:     "cannot open resource",
	CodeUnknownFileFormat:      "unknown file format",
	CodeInvalidFileFormat:      "invalid file format",
	CodeInvalidArgument:        "invalid argument",
	CodeInvalidHandle:          "invalid handle",
	CodeOutOfMemory:            "out of memory",
	CodeInvalidStreamRead:      "invalid stream read",
	CodeInvalidStreamSeek:      "invalid stream seek",
	CodeInvalidStreamOperation: "invalid stream operation",
	CodeInvalidGlyphIndex:      "invalid glyph index",
	CodeInvalidGlyphFormat:     "invalid glyph format",
	CodeCannotRenderGlyph:      "cannot render glyph",
	CodeInvalidOutline:         "invalid outline",
	CodeTooManyHints:           "too many hints",
	CodeTooManyPoints:          "too many points",
	CodeTooManyContours:        "too many contours",
	CodeTooManyCaches:          "too many caches",
	CodeInvalidComposite:       "invalid composite",
	CodeInvalidTable:           "invalid table",
	CodeTableMissing:           "table missing",
	CodeInvalidCodeRange:       "invalid code range",
	CodeInvalidOpcode:          "invalid opcode",
	CodeStackOverflow:          "stack overflow",
	CodeStackUnderflow:         "stack underflow",
	CodeDivideByZero:           "divide by zero",
	CodeInvalidReferencePoint:  "invalid reference point",
	CodeInvalidCVTIndex:        "invalid CVT index",
	CodeUnlistedObject:         "unlisted object",
}

// Error is the error type returned throughout fontcore. It carries a module
// tag and a kind, following FreeType's two-level (module, code) error
// design, plus an optional human-readable detail for dynamic failures
// (malformed opcode numbers, missing table tags, and so on).
type Error struct {
	Module Module
	Code   Code
	Detail string
}

func (e *Error) Error() string {
	msg := codeNames[e.Code]
	if msg == "" {
		msg = "unknown error"
	}
	if e.Detail == "" {
		return fmt.Sprintf("fontcore: %s: %s", e.Module, msg)
	}
	return fmt.Sprintf("fontcore: %s: %s: %s", e.Module, msg, e.Detail)
}

// New builds an Error with no detail string.
func New(m Module, c Code) error {
	return &Error{Module: m, Code: c}
}

// Newf builds an Error with a formatted detail string.
func Newf(m Module, c Code, format string, args ...any) error {
	return &Error{Module: m, Code: c, Detail: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a fontcore Error with the given code, regardless
// of module. It lets callers branch on "was this a TableMissing?" without
// caring which loader raised it — missing optional tables are not failures,
// just absence, and downstream code queries for that explicitly.
func Is(err error, c Code) bool {
	fe, ok := err.(*Error)
	return ok && fe.Code == c
}

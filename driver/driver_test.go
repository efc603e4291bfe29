package driver

import (
	"testing"

	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/stream"
)

func unknownFormat(s *stream.Stream, faceIndex int) (*FaceData, error) {
	return nil, fontcore.New(fontcore.ModuleDriver, fontcore.CodeUnknownFileFormat)
}

func okFace(kind Kind) func(s *stream.Stream, faceIndex int) (*FaceData, error) {
	return func(s *stream.Stream, faceIndex int) (*FaceData, error) {
		return &FaceData{Kind: kind}, nil
	}
}

func TestAddModuleVersionReplacement(t *testing.T) {
	r := NewRegistry()
	if err := r.AddModule(&Driver{Module: Module{Name: "x", Version: 1}, InitFace: unknownFormat}); err != nil {
		t.Fatalf("AddModule v1: %v", err)
	}
	if err := r.AddModule(&Driver{Module: Module{Name: "x", Version: 0}, InitFace: unknownFormat}); err == nil {
		t.Fatalf("AddModule lower version: want error, got nil")
	}
	if err := r.AddModule(&Driver{Module: Module{Name: "x", Version: 2}, InitFace: okFace(KindTrueType)}); err != nil {
		t.Fatalf("AddModule higher version: %v", err)
	}
	if len(r.drivers) != 1 {
		t.Fatalf("drivers: got %d, want 1 (replaced in place)", len(r.drivers))
	}
	if r.drivers[0].Version != 2 {
		t.Fatalf("drivers[0].Version: got %d, want 2", r.drivers[0].Version)
	}
}

func TestOpenFaceTriesNextDriverOnUnknownFormat(t *testing.T) {
	r := NewRegistry()
	r.AddModule(&Driver{Module: Module{Name: "a", Version: 1}, InitFace: unknownFormat})
	r.AddModule(&Driver{Module: Module{Name: "b", Version: 1}, InitFace: okFace(KindCFF)})

	s := stream.NewMemory([]byte("irrelevant"))
	data, name, err := r.OpenFace(s, 0, "")
	if err != nil {
		t.Fatalf("OpenFace: %v", err)
	}
	if name != "b" {
		t.Fatalf("OpenFace driver: got %q, want %q", name, "b")
	}
	if data.Kind != KindCFF {
		t.Fatalf("OpenFace kind: got %v, want KindCFF", data.Kind)
	}
}

func TestOpenFaceAbortsOnNonUnknownFormatError(t *testing.T) {
	r := NewRegistry()
	boom := func(s *stream.Stream, faceIndex int) (*FaceData, error) {
		return nil, fontcore.New(fontcore.ModuleDriver, fontcore.CodeInvalidTable)
	}
	r.AddModule(&Driver{Module: Module{Name: "a", Version: 1}, InitFace: boom})
	r.AddModule(&Driver{Module: Module{Name: "b", Version: 1}, InitFace: okFace(KindCFF)})

	s := stream.NewMemory([]byte("irrelevant"))
	if _, _, err := r.OpenFace(s, 0, ""); err == nil {
		t.Fatalf("OpenFace: want the first driver's real error to abort, got nil")
	} else if fontcore.Is(err, fontcore.CodeUnknownFileFormat) {
		t.Fatalf("OpenFace: want the underlying error preserved, got UnknownFileFormat")
	}
}

func TestOpenFaceNoDriverMatches(t *testing.T) {
	r := NewRegistry()
	r.AddModule(&Driver{Module: Module{Name: "a", Version: 1}, InitFace: unknownFormat})
	s := stream.NewMemory([]byte("irrelevant"))
	if _, _, err := r.OpenFace(s, 0, ""); !fontcore.Is(err, fontcore.CodeUnknownFileFormat) {
		t.Fatalf("OpenFace with no matching driver: want UnknownFileFormat, got %v", err)
	}
}

func TestOpenFaceDriverPin(t *testing.T) {
	r := NewRegistry()
	r.AddModule(&Driver{Module: Module{Name: "a", Version: 1}, InitFace: okFace(KindTrueType)})
	r.AddModule(&Driver{Module: Module{Name: "b", Version: 1}, InitFace: okFace(KindCFF)})
	s := stream.NewMemory([]byte("irrelevant"))
	_, name, err := r.OpenFace(s, 0, "b")
	if err != nil {
		t.Fatalf("OpenFace pinned to b: %v", err)
	}
	if name != "b" {
		t.Fatalf("OpenFace pinned driver: got %q, want %q", name, "b")
	}
}

func TestSetRendererReordersLookup(t *testing.T) {
	r := NewRegistry()
	r.AddRenderer(&Renderer{Module: Module{Name: "raster", Version: 1}, Format: "outline"})
	r.AddRenderer(&Renderer{Module: Module{Name: "fancy", Version: 1}, Format: "outline"})

	m, ok := r.RendererFor("outline")
	if !ok || m.Name != "raster" {
		t.Fatalf("RendererFor before SetRenderer: got %v, want raster first", m)
	}
	if !r.SetRenderer("fancy") {
		t.Fatalf("SetRenderer: want true")
	}
	m, ok = r.RendererFor("outline")
	if !ok || m.Name != "fancy" {
		t.Fatalf("RendererFor after SetRenderer(fancy): got %v, want fancy first", m)
	}
	if r.SetRenderer("nonexistent") {
		t.Fatalf("SetRenderer on unknown name: want false")
	}
}

func TestDriverNamesSortedAndReplacedInPlace(t *testing.T) {
	r := NewRegistry()
	r.AddModule(&Driver{Module: Module{Name: "b", Version: 1}, InitFace: unknownFormat})
	r.AddModule(&Driver{Module: Module{Name: "a", Version: 1}, InitFace: unknownFormat})
	if got := r.DriverNames(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("DriverNames: got %v, want [a b]", got)
	}
	r.AddModule(&Driver{Module: Module{Name: "a", Version: 2}, InitFace: unknownFormat})
	if got := r.DriverNames(); len(got) != 2 {
		t.Fatalf("DriverNames after replace: got %v, want 2 names", got)
	}
}

func TestDefaultRegistryHasExpectedModules(t *testing.T) {
	r := DefaultRegistry()
	if len(r.drivers) != 3 {
		t.Fatalf("DefaultRegistry drivers: got %d, want 3", len(r.drivers))
	}
	if _, ok := r.RendererFor("outline"); !ok {
		t.Fatalf("DefaultRegistry: want an outline renderer registered")
	}
}

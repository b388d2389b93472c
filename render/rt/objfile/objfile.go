// Package objfile loads Wavefront-style geometry (.obj) and material
// library (.mtl) files into a core.Scene.
//
// Only the directives needed by the device model are understood: v, vn,
// vt, f (triangles and quads), o, g, mtllib and usemtl in geometry files;
// newmtl, Ke, Ka, Kd, Ks, Ns, Ni, d, Tr, map_Kd and map_refl in material
// libraries. Everything else is skipped. Faces are flattened into
// non-indexed vertex streams, one mesh per object or group.
package objfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gekko3d/eqemu/render/rt/core"
	"github.com/gekko3d/eqemu/render/rt/texture"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrNoObjects is returned when a geometry file produced no objects.
var ErrNoObjects = errors.New("objfile: no objects loaded")

// Logger is the subset of eqemu.Logger the loader writes to.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// TextureLoader resolves a texture file name to an id, returning
// texture.None when the file cannot be loaded.
type TextureLoader interface {
	LoadTexture(fname string) texture.AssetId
}

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any) {}
func (nopLogger) Infof(format string, args ...any)  {}
func (nopLogger) Warnf(format string, args ...any)  {}

type noTextures struct{}

func (noTextures) LoadTexture(string) texture.AssetId { return texture.None }

// Session is one loading session. Materials from every library loaded
// through it stay resolvable for later geometry files. Not safe for
// concurrent use.
type Session struct {
	materials map[string]core.Material
	textures  TextureLoader
	log       Logger
	seq       int
}

type Option func(*Session)

func WithLogger(l Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func WithTextures(t TextureLoader) Option {
	return func(s *Session) {
		if t != nil {
			s.textures = t
		}
	}
}

func NewSession(opts ...Option) *Session {
	s := &Session{
		materials: make(map[string]core.Material),
		textures:  noTextures{},
		log:       nopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Material returns the named library material, or a default material if
// the name is unknown or empty.
func (s *Session) Material(name string) core.Material {
	if m, ok := s.materials[name]; ok {
		return m
	}
	return core.NewMaterial()
}

// HasMaterial reports whether name was defined by a loaded library.
func (s *Session) HasMaterial(name string) bool {
	_, ok := s.materials[name]
	return ok
}

// MaterialNames lists the library in sorted order.
func (s *Session) MaterialNames() []string {
	names := make([]string, 0, len(s.materials))
	for name := range s.materials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFile parses the geometry file at path and appends its objects to sc.
// Relative material library references are looked up next to the file.
func (s *Session) LoadFile(path string, sc *core.Scene) (int, error) {
	fp, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("objfile: opening scene file: %w", err)
	}
	defer fp.Close()

	n, err := s.Load(fp, filepath.Dir(path), sc)
	if err != nil {
		return n, fmt.Errorf("objfile: %s: %w", path, err)
	}
	return n, nil
}

// geometry accumulates the pools and the face list of the object being
// built.
type geometry struct {
	curObj string
	curMat string
	v, vn  []mgl32.Vec3
	vt     []mgl32.Vec2
	faces  []face // triangles only
}

// Load parses geometry from r. dir is used to resolve relative material
// library names. Objects are appended to sc only if at least one object
// was produced; otherwise ErrNoObjects is returned and sc is untouched.
func (s *Session) Load(r io.Reader, dir string, sc *core.Scene) (int, error) {
	geo := &geometry{curObj: s.nextDefaultName()}

	var objects []*core.Object
	flush := func() {
		if len(geo.faces) == 0 {
			return
		}
		if obj := s.consObject(geo); obj != nil {
			obj.Mtl = s.Material(geo.curMat)
			objects = append(objects, obj)
		}
		geo.faces = geo.faces[:0]
	}

	prevCmd := cmdUnknown
	err := readLines(r, func(lineNo int, fields []string) {
		cmd := lookupCommand(fields[0])
		args := fields[1:]

		switch cmd {
		case cmdV, cmdVN:
			vec, ok := parseVec(args)
			if !ok {
				s.log.Warnf("line %d: malformed %s, skipped", lineNo, fields[0])
				return
			}
			if cmd == cmdV {
				geo.v = append(geo.v, vec)
			} else {
				geo.vn = append(geo.vn, vec)
			}

		case cmdVT:
			vec, ok := parseVec(args)
			if !ok {
				s.log.Warnf("line %d: malformed %s, skipped", lineNo, fields[0])
				return
			}
			// file texture space has v pointing up
			geo.vt = append(geo.vt, mgl32.Vec2{vec.X(), 1.0 - vec.Y()})

		case cmdO, cmdG:
			if prevCmd == cmdO || prevCmd == cmdG {
				// "o name" followed by "g name" is one boundary
				break
			}
			flush()
			if len(args) > 0 {
				geo.curObj = args[0]
			} else {
				geo.curObj = s.nextDefaultName()
			}

		case cmdMtllib:
			if len(args) == 0 {
				break
			}
			loaded := false
			for _, name := range args {
				path := resolvePath(dir, name)
				if err := s.LoadMaterialLibrary(path); err != nil {
					s.log.Warnf("failed to open material library: %s: %v", name, err)
					continue
				}
				loaded = true
			}
			if !loaded {
				return
			}

		case cmdUsemtl:
			if len(args) > 0 {
				geo.curMat = args[0]
			} else {
				geo.curMat = ""
			}

		case cmdF:
			f, ok := parseFace(args)
			if !ok {
				s.log.Warnf("line %d: face with fewer than 3 vertices, skipped", lineNo)
				return
			}
			for i := 0; i < 4; i++ {
				f.v[i] = resolve(f.v[i], len(geo.v))
				f.n[i] = resolve(f.n[i], len(geo.vn))
				f.t[i] = resolve(f.t[i], len(geo.vt))
			}

			geo.faces = append(geo.faces, f)
			if f.elem == 4 {
				// split the quad along the 0-2 diagonal
				f.v[1], f.n[1], f.t[1] = f.v[2], f.n[2], f.t[2]
				f.v[2], f.n[2], f.t[2] = f.v[3], f.n[3], f.t[3]
				geo.faces = append(geo.faces, f)
			}
		}
		prevCmd = cmd
	})
	if err != nil {
		return 0, fmt.Errorf("reading geometry: %w", err)
	}

	flush()

	if len(objects) == 0 {
		return 0, ErrNoObjects
	}
	for _, obj := range objects {
		sc.AddObject(obj)
	}
	return len(objects), nil
}

func (s *Session) nextDefaultName() string {
	name := fmt.Sprintf("default%02d", s.seq)
	s.seq++
	return name
}

// resolvePath prefers name relative to dir when that file exists.
func resolvePath(dir, name string) string {
	if dir == "" || filepath.IsAbs(name) {
		return name
	}
	candidate := filepath.Join(dir, name)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return name
}

package objfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gekko3d/eqemu/render/rt/core"
	"github.com/gekko3d/eqemu/render/rt/mesh"
	"github.com/gekko3d/eqemu/render/rt/texture"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warnings []string
	infos    []string
}

func (l *recordingLogger) Debugf(format string, args ...any) {}
func (l *recordingLogger) Infof(format string, args ...any) {
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}
func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

type fakeTextures struct {
	requested []string
}

func (f *fakeTextures) LoadTexture(fname string) texture.AssetId {
	f.requested = append(f.requested, fname)
	if strings.Contains(fname, "missing") {
		return texture.None
	}
	return texture.AssetId("tex:" + filepath.Base(fname))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func load(t *testing.T, s *Session, src string) (*core.Scene, int, error) {
	t.Helper()
	sc := core.NewScene()
	n, err := s.Load(strings.NewReader(src), "", sc)
	return sc, n, err
}

func positions(m *mesh.Mesh) []mgl32.Vec3 {
	v := m.AttribView(mesh.AttribVertex)
	out := make([]mgl32.Vec3, m.VertexCount())
	for i := range out {
		out[i] = mgl32.Vec3{v[i*3], v[i*3+1], v[i*3+2]}
	}
	return out
}

func TestQuadIsSplitIntoTwoTriangles(t *testing.T) {
	src := `# quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0.25 0.25
vn 0 0 1
f 1/1/1 2/1/1 3/1/1 4/1/1
`
	sc, n, err := load(t, NewSession(), src)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 1, sc.NumObjects())

	m := sc.Object(0).Mesh()
	require.NotNil(t, m)
	assert.Equal(t, 6, m.VertexCount())
	assert.Len(t, m.AttribView(mesh.AttribVertex), 18)
	assert.Len(t, m.AttribView(mesh.AttribNormal), 18)
	assert.Len(t, m.AttribView(mesh.AttribTexCoord), 12)
	assert.Equal(t, 3, m.ElemSize(mesh.AttribNormal))
	assert.Equal(t, 2, m.ElemSize(mesh.AttribTexCoord))

	// corners (0,1,2) then (0,2,3)
	want := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	assert.Equal(t, want, positions(m))

	nrm := m.AttribView(mesh.AttribNormal)
	tc := m.AttribView(mesh.AttribTexCoord)
	for i := 0; i < 6; i++ {
		assert.Equal(t, []float32{0, 0, 1}, nrm[i*3:i*3+3])
		// v is flipped on load
		assert.Equal(t, []float32{0.25, 0.75}, tc[i*2:i*2+2])
	}
}

func TestNegativeIndices(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
f -1 -2 -3
`
	sc, _, err := load(t, NewSession(), src)
	require.NoError(t, err)
	got := positions(sc.Object(0).Mesh())
	assert.Equal(t, []mgl32.Vec3{{0, 1, 0}, {1, 0, 0}, {0, 0, 0}}, got)
}

func TestNegativeIndicesResolveAtParseTime(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
v 5 5 5
v 6 6 6
v 7 7 7
f -3 -2 -1
`
	sc, _, err := load(t, NewSession(), src)
	require.NoError(t, err)
	got := positions(sc.Object(0).Mesh())
	require.Len(t, got, 6)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, got[0])
	assert.Equal(t, mgl32.Vec3{5, 5, 5}, got[3])
}

func TestPlaceholdersForMissingAttributes(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
vn 1 0 0
vt 0.5 0.5
f 1 2 3
f 1//1 2//1 3//1
`
	sc, _, err := load(t, NewSession(), src)
	require.NoError(t, err)
	m := sc.Object(0).Mesh()
	require.Equal(t, 6, m.VertexCount())

	nrm := m.AttribView(mesh.AttribNormal)
	tc := m.AttribView(mesh.AttribTexCoord)
	// first triangle has no references: zeros, never the first pool entry
	assert.Equal(t, []float32{0, 0, 0}, nrm[0:3])
	assert.Equal(t, []float32{0, 0}, tc[0:2])
	// second triangle references normal 1 but no texcoord
	assert.Equal(t, []float32{1, 0, 0}, nrm[9:12])
	assert.Equal(t, []float32{0, 0}, tc[6:8])
}

func TestNoNormalsAnywhere(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1/1 2/1/1 3/1/1\n"
	sc, _, err := load(t, NewSession(), src)
	require.NoError(t, err)
	m := sc.Object(0).Mesh()
	for _, f := range m.AttribView(mesh.AttribNormal) {
		assert.Zero(t, f)
	}
	for _, f := range m.AttribView(mesh.AttribTexCoord) {
		assert.Zero(t, f)
	}
}

func TestObjectBoundaries(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
o button1
g button1_grp
f 1 2 3
f 3 2 1
g
f 1 2 3
o empty
o
o named_late
`
	log := &recordingLogger{}
	sc, n, err := load(t, NewSession(WithLogger(log)), src)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	assert.Equal(t, "default00", sc.Object(0).Name())
	assert.Equal(t, "button1", sc.Object(1).Name(), "consecutive o/g collapse, second name ignored")
	assert.Equal(t, 6, sc.Object(1).Mesh().VertexCount())
	assert.Equal(t, "default01", sc.Object(2).Name())
	assert.Nil(t, sc.ObjectByName("button1_grp"))
	assert.Nil(t, sc.ObjectByName("empty"), "boundaries without faces produce nothing")

	assert.Contains(t, log.infos, "loaded object button1: 2 faces")
}

func TestDefaultNamesIncrementAcrossLoads(t *testing.T) {
	s := NewSession()
	tri := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"

	sc1, _, err := load(t, s, tri)
	require.NoError(t, err)
	sc2, _, err := load(t, s, tri)
	require.NoError(t, err)

	assert.Equal(t, "default00", sc1.Object(0).Name())
	assert.Equal(t, "default01", sc2.Object(0).Name())
}

func TestMalformedLinesAreSkipped(t *testing.T) {
	src := `v 0 0 0
v 1
v x y z
v 1 0
V 0 1 0
vt 0.5
vn 0 0
s off
usemtl
f 1 2
f 1 2 x
F 1 2 3 bogus
`
	log := &recordingLogger{}
	sc, _, err := load(t, NewSession(WithLogger(log)), src)
	require.NoError(t, err)

	got := positions(sc.Object(0).Mesh())
	// "v 1 0" has a missing z that defaults to 0; "F" is case-insensitive
	assert.Equal(t, []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, got)
	assert.NotEmpty(t, log.warnings)
}

func TestOutOfRangePositionDropsTriangle(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\nf 1 2 9\nf -9 1 2\n"
	log := &recordingLogger{}
	sc, _, err := load(t, NewSession(WithLogger(log)), src)
	require.NoError(t, err)
	assert.Equal(t, 3, sc.Object(0).Mesh().VertexCount())
	assert.NotEmpty(t, log.warnings)

	_, _, err = load(t, NewSession(), "v 0 0 0\nf 4 5 6\n")
	assert.ErrorIs(t, err, ErrNoObjects, "an object whose faces all fail is skipped")
}

func TestNoObjects(t *testing.T) {
	sc := core.NewScene()
	sc.AddObject(core.NewObject("existing"))

	n, err := NewSession().Load(strings.NewReader("v 0 0 0\nv 1 0 0\n"), "", sc)
	assert.ErrorIs(t, err, ErrNoObjects)
	assert.Zero(t, n)
	assert.Equal(t, 1, sc.NumObjects())
}

func TestLoadFileMissing(t *testing.T) {
	_, err := NewSession().LoadFile(filepath.Join(t.TempDir(), "nope.obj"), core.NewScene())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMissingMaterialLibraryIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	obj := writeFile(t, dir, "dev.obj", "mtllib nothere.mtl\nusemtl body\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")

	log := &recordingLogger{}
	sc := core.NewScene()
	n, err := NewSession(WithLogger(log)).LoadFile(obj, sc)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, core.NewMaterial(), sc.Object(0).Mtl, "unknown material falls back to defaults")
	require.NotEmpty(t, log.warnings)
	assert.Contains(t, log.warnings[0], "failed to open material library")
}

func TestMaterialAssignment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dev.mtl", `newmtl red
Kd 1 0 0
newmtl blue
Kd 0 0 1
`)
	obj := writeFile(t, dir, "dev.obj", `mtllib dev.mtl
v 0 0 0
v 1 0 0
v 0 1 0
o first
usemtl red
f 1 2 3
o second
usemtl blue
f 1 2 3
usemtl red
o third
f 1 2 3
usemtl nosuch
`)

	sc := core.NewScene()
	_, err := NewSession().LoadFile(obj, sc)
	require.NoError(t, err)
	require.Equal(t, 3, sc.NumObjects())

	assert.Equal(t, mgl32.Vec3{1, 0, 0}, sc.ObjectByName("first").Mtl.Diffuse)
	// the material current at the boundary applies
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, sc.ObjectByName("second").Mtl.Diffuse)
	assert.Equal(t, core.NewMaterial(), sc.ObjectByName("third").Mtl)
}

func TestMaterialLibraryMergeAcrossLoads(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	writeFile(t, dirA, "a.mtl", "newmtl shared\nKd 1 0 0\nnewmtl onlyA\nKd 0 1 0\n")
	writeFile(t, dirB, "b.mtl", "newmtl shared\nKd 0 0 1\n")
	tri := "v 0 0 0\nv 1 0 0\nv 0 1 0\n"
	objA := writeFile(t, dirA, "a.obj", "mtllib a.mtl\n"+tri+"usemtl shared\nf 1 2 3\n")
	objB := writeFile(t, dirB, "b.obj", "mtllib b.mtl\n"+tri+
		"o s\nusemtl shared\nf 1 2 3\no a\nusemtl onlyA\nf 1 2 3\n")

	s := NewSession()
	scA := core.NewScene()
	_, err := s.LoadFile(objA, scA)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, scA.Object(0).Mtl.Diffuse)

	scB := core.NewScene()
	_, err = s.LoadFile(objB, scB)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, scB.ObjectByName("s").Mtl.Diffuse, "second definition wins")
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, scB.ObjectByName("a").Mtl.Diffuse, "first library still resolvable")

	assert.Equal(t, []string{"onlyA", "shared"}, s.MaterialNames())
	assert.True(t, s.HasMaterial("onlyA"))
	// the first load keeps its own copy
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, scA.Object(0).Mtl.Diffuse)
}

func TestReadMaterials(t *testing.T) {
	src := `Kd 0.9 0.9 0.9
newmtl panel
Ka 0.1
Kd 0.2 0.3 0.4
Ks 1 1
Ke 0 2 0
Ns 96.5
Ni 1.45
d 0.8
map_Kd -s 1 1 1 -o 0 0 0 digits.png
map_refl -type sphere chrome.png
newmtl glass
Tr 0.25
KD 0 0 0
ns bogus
newmtl
Kd 1 1 1
newmtl led
refl -type sphere led_env.png
`
	defs, err := ReadMaterials(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, defs, 3)

	panel := defs[0]
	assert.Equal(t, "panel", panel.Name)
	assert.Equal(t, mgl32.Vec3{0.1, 0.1, 0.1}, panel.Ambient)
	assert.Equal(t, mgl32.Vec3{0.2, 0.3, 0.4}, panel.Diffuse)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, panel.Specular)
	assert.Equal(t, mgl32.Vec3{0, 2, 0}, panel.Emissive)
	assert.Equal(t, float32(96.5), panel.Shininess)
	assert.Equal(t, float32(1.45), panel.IOR)
	assert.Equal(t, float32(0.8), panel.Alpha)
	assert.Equal(t, "digits.png", panel.TexDiffuse)
	assert.Equal(t, "chrome.png", panel.TexRefl)

	glass := defs[1]
	assert.Equal(t, float32(0.75), glass.Alpha)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, glass.Diffuse)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, glass.Ambient)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, glass.Specular)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, glass.Emissive)
	assert.Zero(t, glass.Shininess)

	assert.Equal(t, "led", defs[2].Name, "unnamed record is discarded")
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, defs[2].Ambient)
	assert.Equal(t, "led_env.png", defs[2].TexRefl)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, defs[2].Diffuse)
}

func TestMaterialTextures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "digits.png", "")
	writeFile(t, dir, "dev.mtl", `newmtl lcd
map_Kd digits.png
newmtl chrome
map_refl missing.png
`)
	obj := writeFile(t, dir, "dev.obj", "mtllib dev.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl lcd\nf 1 2 3\n")

	tex := &fakeTextures{}
	s := NewSession(WithTextures(tex))
	sc := core.NewScene()
	_, err := s.LoadFile(obj, sc)
	require.NoError(t, err)

	lcd := sc.Object(0).Mtl
	assert.Equal(t, texture.AssetId("tex:digits.png"), lcd.Tex[core.TexDiffuse])
	assert.False(t, lcd.HasTexture(core.TexEnvMap))

	chrome := s.Material("chrome")
	assert.False(t, chrome.HasTexture(core.TexEnvMap), "failed loads leave the slot empty")
	assert.Zero(t, chrome.Shininess, "library records start with zero shininess")

	require.Len(t, tex.requested, 2)
	assert.Equal(t, filepath.Join(dir, "digits.png"), tex.requested[0], "resolved next to the library")
	assert.Equal(t, "missing.png", tex.requested[1])
}

func TestLongLines(t *testing.T) {
	pad := strings.Repeat(" ", 4096)
	src := "v 0 0 0" + pad + "\nv 1 0 0\nv 0 1 0\nf 1 2 3" + pad
	sc, _, err := load(t, NewSession(), src)
	require.NoError(t, err)
	assert.Equal(t, 3, sc.Object(0).Mesh().VertexCount())
}

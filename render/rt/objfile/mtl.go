package objfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gekko3d/eqemu/render/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// MaterialDef is one newmtl record as written in a material library.
// Texture fields hold file names, not loaded textures.
type MaterialDef struct {
	Name      string
	Ambient   mgl32.Vec3 // Ka
	Diffuse   mgl32.Vec3 // Kd
	Specular  mgl32.Vec3 // Ks
	Emissive  mgl32.Vec3 // Ke
	Shininess float32    // Ns
	IOR       float32    // Ni
	Alpha     float32    // d, Tr

	TexDiffuse   string // map_Kd
	TexRefl      string // map_refl, refl
	TexSpecular  string // map_Ks
	TexShininess string // map_Ns
	TexAlpha     string // map_d
	TexBump      string // map_bump, bump
}

func newMaterialDef() MaterialDef {
	return MaterialDef{
		Ambient:  mgl32.Vec3{0.5, 0.5, 0.5},
		Diffuse:  mgl32.Vec3{0.5, 0.5, 0.5},
		Specular: mgl32.Vec3{0, 0, 0},
		IOR:      1,
		Alpha:    1,
	}
}

// ReadMaterials parses a material library. A record ends at the next
// newmtl or at end of input; unnamed records are discarded.
func ReadMaterials(r io.Reader) ([]MaterialDef, error) {
	var defs []MaterialDef
	mat := newMaterialDef()

	err := readLines(r, func(lineNo int, fields []string) {
		args := fields[1:]

		switch cmd := lookupCommand(fields[0]); cmd {
		case cmdNewmtl:
			if mat.Name != "" {
				defs = append(defs, mat)
			}
			mat = newMaterialDef()
			if len(args) > 0 {
				mat.Name = args[0]
			}

		case cmdKe:
			if c, ok := parseColor(args); ok {
				mat.Emissive = c
			}
		case cmdKa:
			if c, ok := parseColor(args); ok {
				mat.Ambient = c
			}
		case cmdKd:
			if c, ok := parseColor(args); ok {
				mat.Diffuse = c
			}
		case cmdKs:
			if c, ok := parseColor(args); ok {
				mat.Specular = c
			}

		case cmdNs:
			if len(args) > 0 {
				if f, ok := parseFloat(args[0]); ok {
					mat.Shininess = f
				}
			}
		case cmdNi:
			if len(args) > 0 {
				if f, ok := parseFloat(args[0]); ok {
					mat.IOR = f
				}
			}

		case cmdD, cmdTr:
			if c, ok := parseColor(args); ok {
				if cmd == cmdD {
					mat.Alpha = c.X()
				} else {
					mat.Alpha = 1.0 - c.X()
				}
			}

		case cmdMapKd:
			mat.TexDiffuse = lastField(args)
		case cmdMapRefl, cmdRefl:
			mat.TexRefl = lastField(args)
		case cmdMapKs:
			mat.TexSpecular = lastField(args)
		case cmdMapNs:
			mat.TexShininess = lastField(args)
		case cmdMapD:
			mat.TexAlpha = lastField(args)
		case cmdMapBump, cmdBump:
			mat.TexBump = lastField(args)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("reading material library: %w", err)
	}

	if mat.Name != "" {
		defs = append(defs, mat)
	}
	return defs, nil
}

// LoadMaterialLibrary reads the library at path and merges it into the
// session. Texture names are resolved next to the library file.
func (s *Session) LoadMaterialLibrary(path string) error {
	fp, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fp.Close()

	defs, err := ReadMaterials(fp)
	if err != nil {
		return err
	}
	s.AddMaterials(filepath.Dir(path), defs)
	s.log.Debugf("material library %s: %d materials", path, len(defs))
	return nil
}

// AddMaterials converts defs and stores them under their names, replacing
// existing entries. Diffuse and reflection maps are loaded through the
// session's TextureLoader; a failed load leaves the slot empty.
func (s *Session) AddMaterials(dir string, defs []MaterialDef) {
	for _, def := range defs {
		mat := core.NewMaterial()
		mat.Ambient = def.Ambient
		mat.Diffuse = def.Diffuse
		mat.Specular = def.Specular
		mat.Shininess = def.Shininess
		mat.Emissive = def.Emissive
		mat.Alpha = def.Alpha
		mat.IOR = def.IOR

		if def.TexDiffuse != "" {
			mat.Tex[core.TexDiffuse] = s.textures.LoadTexture(resolvePath(dir, def.TexDiffuse))
		}
		if def.TexRefl != "" {
			mat.Tex[core.TexEnvMap] = s.textures.LoadTexture(resolvePath(dir, def.TexRefl))
		}

		s.materials[def.Name] = mat
	}
}

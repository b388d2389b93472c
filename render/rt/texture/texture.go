// Package texture decodes image files into RGBA texel arrays and hands out
// opaque asset ids for them.
package texture

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// AssetId identifies a loaded texture. The empty id means "no texture".
type AssetId string

const None AssetId = ""

type Format uint32

// Matches wgpu.TextureFormatRGBA8Unorm.
const FormatRGBA8Unorm Format = 0x00000012

// Texture is decoded texel data ready for upload.
type Texture struct {
	Name   string
	Path   string
	Texels []uint8
	Width  uint32
	Height uint32
	Format Format
}

type logger interface {
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warnf(format string, args ...any)  {}
func (nopLogger) Debugf(format string, args ...any) {}

// Server caches decoded textures by resolved path, so every material that
// names the same file shares one id. Not safe for concurrent use.
type Server struct {
	textures map[AssetId]*Texture
	byPath   map[string]AssetId
	log      logger
	// Dirs are extra directories searched for relative file names.
	Dirs []string
}

func NewServer() *Server {
	return &Server{
		textures: make(map[AssetId]*Texture),
		byPath:   make(map[string]AssetId),
		log:      nopLogger{},
	}
}

// SetLogger routes load failures to l.
func (s *Server) SetLogger(l logger) {
	if l == nil {
		s.log = nopLogger{}
		return
	}
	s.log = l
}

// Load decodes fname and returns its id.
func (s *Server) Load(fname string) (AssetId, error) {
	path := s.FindPath(fname)
	if id, ok := s.byPath[path]; ok {
		return id, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return None, fmt.Errorf("texture: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return None, fmt.Errorf("texture: decoding %s: %w", path, err)
	}

	bounds := img.Bounds()
	rgbaImg, ok := img.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) {
		rgbaImg = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		xdraw.Draw(rgbaImg, rgbaImg.Bounds(), img, bounds.Min, xdraw.Src)
	}

	id := makeAssetId()
	s.textures[id] = &Texture{
		Name:   filepath.Base(path),
		Path:   path,
		Texels: rgbaImg.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Format: FormatRGBA8Unorm,
	}
	s.byPath[path] = id
	s.log.Debugf("loaded texture %s (%dx%d) as %s", path, bounds.Dx(), bounds.Dy(), id)
	return id, nil
}

// LoadTexture is Load for callers that treat failure as "no texture bound".
func (s *Server) LoadTexture(fname string) AssetId {
	id, err := s.Load(fname)
	if err != nil {
		s.log.Warnf("failed to load texture: %s: %v", fname, err)
		return None
	}
	return id
}

func (s *Server) Get(id AssetId) (*Texture, bool) {
	tex, ok := s.textures[id]
	return tex, ok
}

// Release forgets a texture. Materials still holding id see it as missing.
func (s *Server) Release(id AssetId) {
	tex, ok := s.textures[id]
	if !ok {
		return
	}
	delete(s.byPath, tex.Path)
	delete(s.textures, id)
}

func (s *Server) Len() int { return len(s.textures) }

// FindPath locates fname on disk. Exporters often write absolute paths
// from the authoring machine, so the shortest path suffix is tried first
// (the bare file name), then longer ones, in the working directory and
// in each of Dirs. If nothing exists fname is returned unchanged.
func (s *Server) FindPath(fname string) string {
	clean := filepath.ToSlash(fname)
	parts := strings.Split(clean, "/")

	for i := len(parts) - 1; i >= 0; i-- {
		suffix := filepath.FromSlash(strings.Join(parts[i:], "/"))
		if suffix == "" {
			continue
		}
		for _, dir := range s.searchDirs() {
			candidate := suffix
			if dir != "" && !filepath.IsAbs(suffix) {
				candidate = filepath.Join(dir, suffix)
			}
			if fileExists(candidate) {
				return candidate
			}
		}
	}
	return fname
}

func (s *Server) searchDirs() []string {
	return append([]string{""}, s.Dirs...)
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

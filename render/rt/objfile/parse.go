package objfile

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

type command int

const (
	cmdV command = iota
	cmdVN
	cmdVT
	cmdF
	cmdO
	cmdG
	cmdMtllib
	cmdUsemtl
	cmdNewmtl
	cmdKe
	cmdKa
	cmdKd
	cmdKs
	cmdNs
	cmdNi
	cmdD
	cmdTr
	cmdMapKd
	cmdMapRefl
	cmdMapBump
	cmdMapKs
	cmdMapNs
	cmdMapD
	cmdRefl
	cmdBump

	cmdUnknown
)

// Keys are upper case; lookups fold the token first.
var commands = map[string]command{
	"V":        cmdV,
	"VN":       cmdVN,
	"VT":       cmdVT,
	"F":        cmdF,
	"O":        cmdO,
	"G":        cmdG,
	"MTLLIB":   cmdMtllib,
	"USEMTL":   cmdUsemtl,
	"NEWMTL":   cmdNewmtl,
	"KE":       cmdKe,
	"KA":       cmdKa,
	"KD":       cmdKd,
	"KS":       cmdKs,
	"NS":       cmdNs,
	"NI":       cmdNi,
	"D":        cmdD,
	"TR":       cmdTr,
	"MAP_KD":   cmdMapKd,
	"MAP_REFL": cmdMapRefl,
	"MAP_BUMP": cmdMapBump,
	"MAP_KS":   cmdMapKs,
	"MAP_NS":   cmdMapNs,
	"MAP_D":    cmdMapD,
	"REFL":     cmdRefl,
	"BUMP":     cmdBump,
}

func lookupCommand(tok string) command {
	if c, ok := commands[strings.ToUpper(tok)]; ok {
		return c
	}
	return cmdUnknown
}

// noIndex marks a face corner without a texcoord or normal reference. It
// can never be produced by resolving a file index.
const noIndex = math.MinInt32

// face holds up to four corners; elem is 3 or 4. Indices are 0-based or
// noIndex.
type face struct {
	elem    int
	v, t, n [4]int
}

// readLines calls fn with the fields of every non-empty line. Lines may be
// of any length.
func readLines(r io.Reader, fn func(lineNo int, fields []string)) error {
	bufin := bufio.NewReader(r)
	lineNo := 0
	for {
		line, err := bufin.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		lineNo++
		if fields := strings.Fields(line); len(fields) > 0 {
			fn(lineNo, fields)
		}
		if err == io.EOF {
			return nil
		}
	}
}

func parseFloat(tok string) (float32, bool) {
	f, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return 0, false
	}
	return float32(f), true
}

func parseInt(tok string) (int, bool) {
	i, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(i), true
}

// parseVec reads x y [z]. A missing or malformed z is 0; x and y are
// required.
func parseVec(args []string) (mgl32.Vec3, bool) {
	var vec mgl32.Vec3
	for i := 0; i < 3; i++ {
		var f float32
		ok := i < len(args)
		if ok {
			f, ok = parseFloat(args[i])
		}
		if !ok {
			if i < 2 {
				return vec, false
			}
			vec[2] = 0
			break
		}
		vec[i] = f
	}
	return vec, true
}

// parseColor reads r [g b]. With fewer than three components the first
// is used for all channels.
func parseColor(args []string) (mgl32.Vec3, bool) {
	var col mgl32.Vec3
	n := 0
	for ; n < 3 && n < len(args); n++ {
		f, ok := parseFloat(args[n])
		if !ok {
			break
		}
		col[n] = f
	}
	if n == 0 {
		return col, false
	}
	if n < 3 {
		col[1], col[2] = col[0], col[0]
	}
	return col, true
}

// parseFace reads 3 or 4 corners of the form p, p/t, p//n or p/t/n.
// Positive indices become 0-based; negative ones are left for the caller
// to resolve against the current pools.
func parseFace(args []string) (face, bool) {
	var f face
	for i := 0; i < 4; i++ {
		f.v[i], f.t[i], f.n[i] = noIndex, noIndex, noIndex
		if i >= len(args) {
			if i < 3 {
				return f, false
			}
			continue
		}

		parts := strings.Split(args[i], "/")
		v, ok := parseInt(parts[0])
		if !ok {
			if i < 3 {
				return f, false
			}
			continue
		}
		f.v[i] = toZeroBased(v)
		f.elem++

		if len(parts) > 1 {
			if t, ok := parseInt(parts[1]); ok {
				f.t[i] = toZeroBased(t)
			}
		}
		if len(parts) > 2 {
			if n, ok := parseInt(parts[2]); ok {
				f.n[i] = toZeroBased(n)
			}
		}
	}
	return f, true
}

func toZeroBased(idx int) int {
	if idx > 0 {
		return idx - 1
	}
	return idx
}

// resolve turns a negative (relative) index into an absolute one given the
// current pool size.
func resolve(idx, poolSize int) int {
	if idx < 0 && idx != noIndex {
		return poolSize + idx
	}
	return idx
}

// lastField returns the last token, so option flags before a map file name
// are skipped.
func lastField(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[len(args)-1]
}

package eqemu

import (
	"errors"
	"fmt"

	"github.com/gekko3d/eqemu/render/rt/core"
	"github.com/gekko3d/eqemu/render/rt/mesh"
	"github.com/gekko3d/eqemu/render/rt/objfile"
	"github.com/gekko3d/eqemu/render/rt/texture"
	"github.com/gekko3d/eqemu/render/rt/vmath"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidModel is returned by Panel.Load when the device model lacks
// one of the objects the panel binds to.
var ErrInvalidModel = errors.New("eqemu: invalid device model")

type Button int

const (
	ButtonTicket Button = iota
	ButtonNext

	NumButtons
)

func (b Button) String() string {
	switch b {
	case ButtonTicket:
		return "ticket"
	case ButtonNext:
		return "next"
	}
	return fmt.Sprintf("Button(%d)", int(b))
}

// Panel is the front of the queue-ticket device: two push buttons, a
// 7-segment number display and status LEDs, bound to objects of a loaded
// model.
type Panel struct {
	cfg      Config
	log      Logger
	textures *texture.Server
	session  *objfile.Session

	scene   *core.Scene
	buttons [NumButtons]*core.Object
	digits  []*core.Object
	leds    []*core.Object

	ledOnEmissive mgl32.Vec3
	ledState      []bool
	number        int

	OnTicket func()
	OnNext   func()
}

type PanelOption func(*Panel)

func WithLogger(l Logger) PanelOption {
	return func(p *Panel) {
		if l != nil {
			p.log = l
		}
	}
}

func WithTextureServer(s *texture.Server) PanelOption {
	return func(p *Panel) {
		if s != nil {
			p.textures = s
		}
	}
}

func NewPanel(cfg Config, opts ...PanelOption) *Panel {
	p := &Panel{
		cfg: cfg,
		log: NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.textures == nil {
		p.textures = texture.NewServer()
		p.textures.Dirs = append(p.textures.Dirs, cfg.Model.TextureDirs...)
	}
	p.textures.SetLogger(p.log)
	return p
}

// Load reads the device model and binds the panel to its objects. The
// display and LED objects are taken out of the scene; Render draws them
// after it with their state applied.
func (p *Panel) Load() error {
	if err := p.cfg.Validate(); err != nil {
		return err
	}

	p.session = objfile.NewSession(objfile.WithLogger(p.log), objfile.WithTextures(p.textures))
	sc := core.NewScene()
	n, err := p.session.LoadFile(p.cfg.Model.Path, sc)
	if err != nil {
		return fmt.Errorf("eqemu: loading device model: %w", err)
	}
	p.log.Infof("device model %s: %d objects", p.cfg.Model.Path, n)

	names := [NumButtons]string{p.cfg.Model.TicketButton, p.cfg.Model.NextButton}
	var buttons [NumButtons]*core.Object
	for i, name := range names {
		obj, err := find(sc, name)
		if err != nil {
			return err
		}
		obj.Mesh().Bounds().Scale(p.cfg.Model.BoundsScale)
		buttons[i] = obj
	}

	digits, err := detach(sc, p.cfg.Model.Digits)
	if err != nil {
		return err
	}
	leds, err := detach(sc, p.cfg.Model.LEDs)
	if err != nil {
		return err
	}

	p.scene = sc
	p.buttons = buttons
	p.digits = digits
	p.leds = leds
	p.ledState = make([]bool, len(leds))
	if len(leds) > 0 {
		p.ledOnEmissive = leds[0].Mtl.Emissive
	}
	p.applyState()
	return nil
}

func find(sc *core.Scene, name string) (*core.Object, error) {
	obj := sc.ObjectByName(name)
	if obj == nil || obj.Mesh() == nil {
		return nil, fmt.Errorf("%w: no object %q", ErrInvalidModel, name)
	}
	return obj, nil
}

func detach(sc *core.Scene, names []string) ([]*core.Object, error) {
	objs := make([]*core.Object, len(names))
	for i, name := range names {
		obj, err := find(sc, name)
		if err != nil {
			return nil, err
		}
		objs[i] = obj
	}
	for _, obj := range objs {
		sc.RemoveObject(obj)
	}
	return objs, nil
}

// Scene returns the loaded scene, without the display and LED objects.
func (p *Panel) Scene() *core.Scene { return p.scene }

func (p *Panel) Material(name string) core.Material {
	if p.session == nil {
		return core.NewMaterial()
	}
	return p.session.Material(name)
}

func (p *Panel) ButtonObject(b Button) *core.Object { return p.buttons[b] }

func (p *Panel) Digits() []*core.Object { return p.digits }

func (p *Panel) LEDs() []*core.Object { return p.leds }

// Objects lists every drawable object: the scene followed by digits and
// LEDs.
func (p *Panel) Objects() []*core.Object {
	var objs []*core.Object
	if p.scene != nil {
		objs = p.scene.Objects()
	}
	objs = append(objs, p.digits...)
	return append(objs, p.leds...)
}

// Pick returns the button whose inflated bounds the ray hits nearest.
func (p *Panel) Pick(ray vmath.Ray) (Button, bool) {
	if p.buttons[0] == nil {
		return 0, false
	}
	idx, _, ok := core.PickNearest(ray, p.buttons[:])
	if !ok {
		return 0, false
	}
	return Button(idx), true
}

// Click picks a button and runs its handler. It reports whether a button
// was hit.
func (p *Panel) Click(ray vmath.Ray) bool {
	bn, ok := p.Pick(ray)
	if !ok {
		return false
	}
	p.log.Debugf("button %s pressed", bn)

	switch bn {
	case ButtonTicket:
		if p.OnTicket != nil {
			p.OnTicket()
		}
	case ButtonNext:
		if p.OnNext != nil {
			p.OnNext()
		}
	}
	return true
}

func (p *Panel) DisplayNumber() int { return p.number }

// SetDisplayNumber shows n on the display, least significant digit on the
// first digit object. Digits beyond the display are lost.
func (p *Panel) SetDisplayNumber(n int) {
	if n < 0 {
		n = -n
	}
	p.number = n
	p.applyState()
}

func (p *Panel) LED(i int) bool {
	if i < 0 || i >= len(p.ledState) {
		return false
	}
	return p.ledState[i]
}

func (p *Panel) SetLED(i int, on bool) {
	if i < 0 || i >= len(p.ledState) {
		p.log.Warnf("led %d out of range", i)
		return
	}
	p.ledState[i] = on
	p.applyState()
}

func (p *Panel) applyState() {
	cell := p.cfg.Model.DigitCell
	n := p.number
	for _, obj := range p.digits {
		digit := n % 10
		n /= 10
		obj.Mtl.TexOffset[core.TexDiffuse] = mgl32.Vec2{cell + cell*float32(digit), 0}
	}

	for i, obj := range p.leds {
		if p.ledState[i] {
			obj.Mtl.Emissive = p.ledOnEmissive
		} else {
			obj.Mtl.Emissive = mgl32.Vec3{}
		}
	}
}

// Render draws the scene, then each digit and LED.
func (p *Panel) Render(r core.Renderer) {
	if p.scene == nil {
		return
	}
	p.scene.Render(r)
	for i := 0; i < len(p.digits) || i < len(p.leds); i++ {
		if i < len(p.digits) {
			p.digits[i].Render(r)
		}
		if i < len(p.leds) {
			p.leds[i].Render(r)
		}
	}
}

// Sync uploads the stale channels of every drawable object.
func (p *Panel) Sync(uploader func(o *core.Object) mesh.Uploader) error {
	for _, obj := range p.Objects() {
		m := obj.Mesh()
		if m == nil || !m.AnyStale() {
			continue
		}
		if err := m.Sync(uploader(obj)); err != nil {
			return fmt.Errorf("eqemu: syncing %s: %w", obj.Name(), err)
		}
	}
	return nil
}

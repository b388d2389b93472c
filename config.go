package eqemu

import (
	"errors"
	"fmt"
	"os"

	"github.com/gekko3d/eqemu/render/rt/core"

	"github.com/pelletier/go-toml/v2"
)

// Config describes the device model and the viewer. Zero-valued fields in
// a config file keep their defaults.
type Config struct {
	Model     ModelConfig  `toml:"model"`
	Camera    CameraConfig `toml:"camera"`
	Debug     bool         `toml:"debug"`
	LogPrefix string       `toml:"log_prefix"`
}

// ModelConfig names the objects of the device model the panel binds to.
type ModelConfig struct {
	Path         string   `toml:"path"`
	TextureDirs  []string `toml:"texture_dirs"`
	TicketButton string   `toml:"ticket_button"`
	NextButton   string   `toml:"next_button"`
	// Digits lists display objects from the least significant digit up.
	Digits []string `toml:"digits"`
	LEDs   []string `toml:"leds"`

	// BoundsScale inflates button bounding spheres to make them easier to
	// hit.
	BoundsScale float32 `toml:"bounds_scale"`
	// DigitCell is the width of one glyph in the display texture, in
	// texture space. Cell 0 is blank, cells 1-10 hold 0-9.
	DigitCell float32 `toml:"digit_cell"`
}

type CameraConfig struct {
	Theta       float32 `toml:"theta"`
	Phi         float32 `toml:"phi"`
	Dist        float32 `toml:"dist"`
	FovY        float32 `toml:"fov_y"`
	Near        float32 `toml:"near"`
	Far         float32 `toml:"far"`
	Sensitivity float32 `toml:"sensitivity"`
	LookRange   float32 `toml:"look_range"`
}

// NewCamera builds an orbit camera from c.
func (c CameraConfig) NewCamera() *core.Camera {
	return &core.Camera{
		Theta:       c.Theta,
		Phi:         c.Phi,
		Dist:        c.Dist,
		FovY:        c.FovY,
		Near:        c.Near,
		Far:         c.Far,
		Sensitivity: c.Sensitivity,
		LookRange:   c.LookRange,
	}
}

func DefaultConfig() Config {
	return Config{
		Model: ModelConfig{
			Path:         "data/device.obj",
			TicketButton: "button1",
			NextButton:   "button2",
			Digits:       []string{"7seg0", "7seg1"},
			LEDs:         []string{"led1", "led2"},
			BoundsScale:  1.5,
			DigitCell:    1.0 / 11.0,
		},
		Camera: CameraConfig{
			Dist:        140,
			FovY:        50,
			Near:        1,
			Far:         1000,
			Sensitivity: 0.5,
			LookRange:   15,
		},
		LogPrefix: "eqemu",
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig and validates the
// result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	fp, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("eqemu: opening config: %w", err)
	}
	defer fp.Close()

	dec := toml.NewDecoder(fp)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return cfg, fmt.Errorf("eqemu: %s:%d:%d: %w", path, row, col, err)
		}
		return cfg, fmt.Errorf("eqemu: %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	m := &c.Model
	if m.Path == "" {
		return errors.New("eqemu: config: model path is empty")
	}
	if m.TicketButton == "" || m.NextButton == "" {
		return errors.New("eqemu: config: button object names must be set")
	}
	if len(m.Digits) == 0 {
		return errors.New("eqemu: config: no display digits")
	}
	for i, name := range m.Digits {
		if name == "" {
			return fmt.Errorf("eqemu: config: digit %d has no object name", i)
		}
	}
	for i, name := range m.LEDs {
		if name == "" {
			return fmt.Errorf("eqemu: config: led %d has no object name", i)
		}
	}
	if m.BoundsScale <= 0 {
		return fmt.Errorf("eqemu: config: bounds_scale must be positive, got %g", m.BoundsScale)
	}
	if m.DigitCell <= 0 || m.DigitCell > 1 {
		return fmt.Errorf("eqemu: config: digit_cell out of range: %g", m.DigitCell)
	}

	cam := &c.Camera
	if cam.FovY <= 0 || cam.FovY >= 180 {
		return fmt.Errorf("eqemu: config: fov_y out of range: %g", cam.FovY)
	}
	if cam.Near <= 0 || cam.Far <= cam.Near {
		return fmt.Errorf("eqemu: config: bad clip range %g..%g", cam.Near, cam.Far)
	}
	if cam.Dist < 0 {
		return fmt.Errorf("eqemu: config: negative camera distance %g", cam.Dist)
	}
	return nil
}

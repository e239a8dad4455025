package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/andyrewlee/termview/internal/font"
	"github.com/andyrewlee/termview/internal/geometry"
	"github.com/andyrewlee/termview/internal/logging"
	"github.com/andyrewlee/termview/internal/term"
)

// Topic tags message bar entries produced by config loading.
const Topic = "config"

const (
	defaultFontSize      font.Size = 11
	defaultDoubleClickMs           = 300
	defaultTripleClickMs           = 300
	defaultBellMs                  = 0
)

// Config holds the application configuration
type Config struct {
	Path string `json:"-"`

	Font             Font       `json:"font"`
	Window           Window     `json:"window"`
	Colors           Colors     `json:"colors"`
	VisualBell       VisualBell `json:"visual_bell"`
	Mouse            Mouse      `json:"mouse"`
	Scrolling        Scrolling  `json:"scrolling"`
	Shell            Shell      `json:"shell"`
	Debug            Debug      `json:"debug"`
	LiveConfigReload bool       `json:"live_config_reload"`
}

// Font selects the face and its placement.
type Font struct {
	Family      string      `json:"family"`
	Size        font.Size   `json:"size"`
	Offset      font.Offset `json:"offset"`
	GlyphOffset font.Offset `json:"glyph_offset"`
	SmallFont   *SmallFont  `json:"small_font,omitempty"`
}

// SmallFont is used instead of the main family at or below UpperBound.
type SmallFont struct {
	Family     string    `json:"family"`
	UpperBound font.Size `json:"upper_bound"`
}

// ForSize returns the face to load at size.
func (f Font) ForSize(size font.Size) font.Description {
	if f.SmallFont != nil && f.SmallFont.Family != "" && size <= f.SmallFont.UpperBound {
		return font.Description{Family: f.SmallFont.Family, Size: size}
	}
	return font.Description{Family: f.Family, Size: size}
}

// Window configures the viewport layout.
type Window struct {
	Padding        geometry.Padding `json:"padding"`
	DynamicPadding bool             `json:"dynamic_padding"`
	Dimensions     Dimensions       `json:"dimensions"`
}

// Dimensions is a requested grid size; zero means follow the window.
type Dimensions struct {
	Columns int `json:"columns"`
	Lines   int `json:"lines"`
}

// IsSet reports whether both dimensions were given.
func (d Dimensions) IsSet() bool {
	return d.Columns > 0 && d.Lines > 0
}

// Colors are the configured colors.
type Colors struct {
	Primary term.Colors   `json:"primary"`
	Message MessageColors `json:"message"`
}

// MessageColors are the message bar backgrounds per kind.
type MessageColors struct {
	Error   term.Rgb `json:"error"`
	Warning term.Rgb `json:"warning"`
}

// For returns the background for a message kind.
func (m MessageColors) For(kind term.MessageKind) term.Rgb {
	if kind == term.MessageWarning {
		return m.Warning
	}
	return m.Error
}

// VisualBell configures the bell flash.
type VisualBell struct {
	DurationMs int                `json:"duration_ms"`
	Color      term.Rgb           `json:"color"`
	Animation  term.BellAnimation `json:"animation"`
}

// Duration returns the flash duration.
func (v VisualBell) Duration() time.Duration {
	return time.Duration(v.DurationMs) * time.Millisecond
}

// Mouse configures click timing and cursor hiding.
type Mouse struct {
	HideWhenTyping bool `json:"hide_when_typing"`
	DoubleClickMs  int  `json:"double_click_ms"`
	TripleClickMs  int  `json:"triple_click_ms"`
}

// DoubleClick returns the double click threshold.
func (m Mouse) DoubleClick() time.Duration {
	return time.Duration(m.DoubleClickMs) * time.Millisecond
}

// TripleClick returns the triple click threshold.
func (m Mouse) TripleClick() time.Duration {
	return time.Duration(m.TripleClickMs) * time.Millisecond
}

// Scrolling configures mouse wheel scrolling.
type Scrolling struct {
	Multiplier int `json:"multiplier"`
}

// Shell is the program started in the pty.
type Shell struct {
	Program string   `json:"program"`
	Args    []string `json:"args"`
}

// Debug holds diagnostics toggles.
type Debug struct {
	RenderTimer bool   `json:"render_timer"`
	PrintEvents bool   `json:"print_events"`
	RefTest     bool   `json:"ref_test"`
	LogLevel    string `json:"log_level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Font: Font{
			Family: "monospace",
			Size:   defaultFontSize,
		},
		Window: Window{
			Padding: geometry.Padding{X: 2, Y: 2},
		},
		Colors: Colors{
			Primary: term.Colors{
				Foreground: term.MustRgb("#c5c8c6"),
				Background: term.MustRgb("#1d1f21"),
			},
			Message: MessageColors{
				Error:   term.MustRgb("#ff0000"),
				Warning: term.MustRgb("#e0e000"),
			},
		},
		VisualBell: VisualBell{
			DurationMs: defaultBellMs,
			Color:      term.MustRgb("#ffffff"),
			Animation:  term.BellEaseOut,
		},
		Mouse: Mouse{
			DoubleClickMs: defaultDoubleClickMs,
			TripleClickMs: defaultTripleClickMs,
		},
		Scrolling: Scrolling{Multiplier: 3},
		Shell:     Shell{Program: defaultShell()},
		Debug:     Debug{LogLevel: "info"},
	}
}

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// Load reads path over the defaults. A missing file yields the defaults. On
// a parse error the defaults are returned along with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Path = path
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	parsed := DefaultConfig()
	if err := json.Unmarshal(data, parsed); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	parsed.Path = path
	parsed.normalize()
	return parsed, nil
}

// normalize replaces out-of-range values with defaults.
func (c *Config) normalize() {
	log := logging.For("config")
	def := DefaultConfig()
	if c.Font.Size <= 0 {
		log.Warn("font.size %v is not positive, using %v", c.Font.Size, def.Font.Size)
		c.Font.Size = def.Font.Size
	}
	if c.Window.Padding.X < 0 || c.Window.Padding.Y < 0 {
		log.Warn("negative window.padding, using %v", def.Window.Padding)
		c.Window.Padding = def.Window.Padding
	}
	if c.Window.Dimensions.Columns < 0 || c.Window.Dimensions.Lines < 0 {
		c.Window.Dimensions = Dimensions{}
	}
	if c.VisualBell.DurationMs < 0 {
		c.VisualBell.DurationMs = 0
	}
	switch c.VisualBell.Animation {
	case term.BellLinear, term.BellEaseOut:
	default:
		log.Warn("unknown visual_bell.animation %q", c.VisualBell.Animation)
		c.VisualBell.Animation = def.VisualBell.Animation
	}
	if c.Mouse.DoubleClickMs <= 0 {
		c.Mouse.DoubleClickMs = def.Mouse.DoubleClickMs
	}
	if c.Mouse.TripleClickMs <= 0 {
		c.Mouse.TripleClickMs = def.Mouse.TripleClickMs
	}
	if c.Scrolling.Multiplier <= 0 {
		c.Scrolling.Multiplier = def.Scrolling.Multiplier
	}
	if c.Shell.Program == "" {
		c.Shell.Program = def.Shell.Program
	}
}

// ErrorMessage turns a load error into a message bar entry.
func (c *Config) ErrorMessage(err error) term.Message {
	return term.Message{
		Text:  "Config error: " + err.Error(),
		Color: c.Colors.Message.Error,
		Kind:  term.MessageError,
		Topic: Topic,
	}
}

package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every level configuration validation failure.
var ErrInvalidConfig = errors.New("config validation")

// LevelMessages holds the player-facing texts of a level. Moved and Blocked
// take the direction, Pushed the box count, Victory the move count.
type LevelMessages struct {
	Welcome string `json:"welcome" yaml:"welcome"`
	Moved   string `json:"moved" yaml:"moved"`
	Pushed  string `json:"pushed" yaml:"pushed"`
	Blocked string `json:"blocked" yaml:"blocked"`
	Victory string `json:"victory" yaml:"victory"`
}

// LevelConfig is a level file.
type LevelConfig struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Map         []string          `json:"map" yaml:"map"`
	WinPolicy   WinPolicy         `json:"win_policy,omitempty" yaml:"win_policy,omitempty"`
	InputOrder  InputOrder        `json:"input_order,omitempty" yaml:"input_order,omitempty"`
	Sprites     map[string]string `json:"sprites,omitempty" yaml:"sprites,omitempty"`
	Messages    LevelMessages     `json:"messages" yaml:"messages"`
}

// Text joins the map rows into level text.
func (c *LevelConfig) Text() string {
	return strings.Join(c.Map, "\n")
}

// messages returns c's messages with the defaults filled in.
func (c *LevelConfig) messages() LevelMessages {
	m := c.Messages
	d := DefaultMessages()
	if m.Welcome == "" {
		m.Welcome = d.Welcome
	}
	if m.Moved == "" {
		m.Moved = d.Moved
	}
	if m.Pushed == "" {
		m.Pushed = d.Pushed
	}
	if m.Blocked == "" {
		m.Blocked = d.Blocked
	}
	if m.Victory == "" {
		m.Victory = d.Victory
	}
	return m
}

// DefaultMessages returns the messages used when a level leaves one out.
func DefaultMessages() LevelMessages {
	return LevelMessages{
		Welcome: "Push every box onto a spot.",
		Moved:   "Moved %s.",
		Pushed:  "Pushed %d box(es).",
		Blocked: "Can't move %s.",
		Victory: "Solved in %d moves!",
	}
}

// DefaultLevelConfig returns the built-in level.
func DefaultLevelConfig() *LevelConfig {
	return &LevelConfig{
		Name:        "classic",
		Description: "One box, one spot, open room",
		Map: []string{
			"N N W W W W W W",
			"W W W . . . . W",
			"W . . . B . . W",
			"W . . . . . . W",
			"W . P . . . . W",
			"W . . . . . . W",
			"W . . S . . . W",
			"W . . . . . . W",
			"W W W W W W W W",
		},
		WinPolicy:  WinCoverage,
		InputOrder: FIFO,
		Messages:   DefaultMessages(),
	}
}

// ValidateLevelConfig checks a level for correctness and playability.
func ValidateLevelConfig(config *LevelConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if config.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidConfig)
	}

	policy, err := ParseWinPolicy(string(config.WinPolicy))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := ParseInputOrder(string(config.InputOrder)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for kind := range config.Sprites {
		if _, ok := DefaultSprites()[kind]; !ok {
			return fmt.Errorf("%w: sprites has unknown kind %q", ErrInvalidConfig, kind)
		}
	}

	level, err := ParseLevel(config.Text())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	w, h := level.Bounds.Width(), level.Bounds.Height()
	if w < MinGridSize || h < MinGridSize || w > MaxGridSize || h > MaxGridSize {
		return fmt.Errorf("%w: map must be between %d and %d cells per side, got %dx%d",
			ErrInvalidConfig, MinGridSize, MaxGridSize, w, h)
	}

	boxes, spots := level.Count(TokenBox), level.Count(TokenSpot)
	if boxes == 0 {
		return fmt.Errorf("%w: map must contain at least one box (B)", ErrInvalidConfig)
	}
	if spots == 0 {
		return fmt.Errorf("%w: map must contain at least one spot (S)", ErrInvalidConfig)
	}
	switch policy {
	case WinExact:
		if boxes != spots {
			return fmt.Errorf("%w: exact win policy needs as many boxes as spots, got %d boxes and %d spots",
				ErrInvalidConfig, boxes, spots)
		}
	default:
		if boxes < spots {
			return fmt.Errorf("%w: need at least %d boxes to cover every spot, got %d",
				ErrInvalidConfig, spots, boxes)
		}
	}

	// Render each template once; any verb mismatch leaves a "%!" marker.
	templates := []struct {
		field, text, verb string
		arg               any
	}{
		{"moved", config.Messages.Moved, "%s", Up},
		{"blocked", config.Messages.Blocked, "%s", Up},
		{"pushed", config.Messages.Pushed, "%d", 1},
		{"victory", config.Messages.Victory, "%d", uint(1)},
	}
	for _, tmpl := range templates {
		if tmpl.text == "" {
			continue
		}
		if out := fmt.Sprintf(tmpl.text, tmpl.arg); strings.Contains(out, "%!") {
			return fmt.Errorf("%w: messages.%s must contain exactly one %s, got %q",
				ErrInvalidConfig, tmpl.field, tmpl.verb, tmpl.text)
		}
	}

	return nil
}

// BuildWorld validates config and spawns its level into a fresh world.
func BuildWorld(config *LevelConfig) (*WorldState, error) {
	if err := ValidateLevelConfig(config); err != nil {
		return nil, err
	}
	level, err := ParseLevel(config.Text())
	if err != nil {
		return nil, err
	}
	policy, _ := ParseWinPolicy(string(config.WinPolicy))
	order, _ := ParseInputOrder(string(config.InputOrder))
	ws, err := level.Build(order, policy, DefaultSprites().With(config.Sprites))
	if err != nil {
		return nil, err
	}
	Evaluate(ws)
	return ws, nil
}

// IsLevelFile reports whether name has a level file extension.
func IsLevelFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// DecodeLevelConfig decodes data as YAML when ext is .yaml or .yml, JSON
// otherwise.
func DecodeLevelConfig(data []byte, ext string) (*LevelConfig, error) {
	var config LevelConfig
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// LoadLevelConfig loads and validates a level file.
func LoadLevelConfig(filename string) (*LevelConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := DecodeLevelConfig(data, filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to parse level file '%s': %w", filename, err)
	}

	if err := ValidateLevelConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

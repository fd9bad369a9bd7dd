// Package storyboard loads the ordered list of scenes the orchestrator works through.
package storyboard

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/makeasinger/scenegen/internal/model"
)

//go:embed alien_arrival.yaml
var defaultStoryboard []byte

// SceneCount is the number of scenes every storyboard must define
const SceneCount = 5

// Storyboard is the on-disk format of a scene list. A file may replace the
// titles and prompts but not the number of scenes.
type Storyboard struct {
	Title  string                  `yaml:"title"`
	Scenes []model.SceneDefinition `yaml:"scenes" validate:"required,len=5,dive"`
}

var validate = validator.New()

// Default returns the embedded Alien Earth Arrival storyboard
func Default() (*Storyboard, error) {
	return Parse(defaultStoryboard)
}

// LoadFile reads a storyboard from path
func LoadFile(path string) (*Storyboard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read storyboard: %w", err)
	}
	return Parse(data)
}

// Load returns the storyboard at path, or the embedded default when path is empty
func Load(path string) (*Storyboard, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// Parse decodes and validates a YAML storyboard
func Parse(data []byte) (*Storyboard, error) {
	var sb Storyboard
	if err := yaml.Unmarshal(data, &sb); err != nil {
		return nil, fmt.Errorf("invalid storyboard: %w", err)
	}

	if err := validate.Struct(&sb); err != nil {
		return nil, fmt.Errorf("invalid storyboard: %w", err)
	}

	return &sb, nil
}

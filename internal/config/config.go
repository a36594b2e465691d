package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/philipparndt/rigidreg/internal/geometry"
	"github.com/philipparndt/rigidreg/internal/matfile"
	"github.com/philipparndt/rigidreg/internal/models"
	"github.com/philipparndt/rigidreg/internal/registration"
	"gopkg.in/yaml.v3"
)

// Loader handles loading and validating YAML session files
type Loader struct{}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses a YAML session file
func (l *Loader) Load(configPath string) (*models.YamlConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := l.Parse(data)
	if err != nil {
		return nil, err
	}

	// Convert relative paths to absolute paths (relative to config file)
	absConfigDir, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path of config directory: %w", err)
	}
	resolvePaths(config, absConfigDir)

	if err := l.Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := l.resolveInitialMatrix(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Parse decodes YAML without touching the file system
func (l *Loader) Parse(data []byte) (*models.YamlConfig, error) {
	var config models.YamlConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &config, nil
}

// Validate checks if the configuration is valid
func (l *Loader) Validate(config *models.YamlConfig) error {
	for i := 0; i < 3; i++ {
		if config.Image.Size[i] < 1 {
			return fmt.Errorf("image: size must be at least 1 on every axis, got %v", config.Image.Size)
		}
		if config.Image.Spacing[i] <= 0 {
			return fmt.Errorf("image: spacing must be positive on every axis, got %v", config.Image.Spacing)
		}
	}

	if config.Center != nil && len(config.Center) != 3 {
		return fmt.Errorf("center must have 3 values, got %d", len(config.Center))
	}

	if _, err := registration.ParseAngleUnit(config.AngleUnit); err != nil {
		return err
	}
	if _, err := matfile.ParsePrecision(config.Precision); err != nil {
		return err
	}
	if _, err := geometry.ParsePolicy(config.Validation); err != nil {
		return err
	}

	if config.Steps != nil && (config.Steps.Translation <= 0 || config.Steps.Rotation <= 0) {
		return fmt.Errorf("steps: translation and rotation must be positive")
	}

	for i, action := range config.Actions {
		if err := l.validateAction(action); err != nil {
			return fmt.Errorf("action %d: %w", i+1, err)
		}
		if action.Cancel && i != len(config.Actions)-1 {
			return fmt.Errorf("action %d: cancel ends the session and must be the last action", i+1)
		}
	}

	return nil
}

// validateAction validates a single scripted action
func (l *Loader) validateAction(action models.YamlAction) error {
	set := 0
	if action.Rotate != nil {
		set++
		if _, err := registration.ParseAxis(action.Rotate.Axis); err != nil {
			return fmt.Errorf("rotate: %w", err)
		}
	}
	if action.Translate != nil {
		set++
		if _, err := registration.ParseAxis(action.Translate.Axis); err != nil {
			return fmt.Errorf("translate: %w", err)
		}
	}
	if action.Slider != nil {
		set++
		if _, err := registration.ParseKind(action.Slider.Kind); err != nil {
			return fmt.Errorf("slider: %w", err)
		}
		if _, err := registration.ParseAxis(action.Slider.Axis); err != nil {
			return fmt.Errorf("slider: %w", err)
		}
	}
	if action.Nudge != nil {
		set++
		if _, err := registration.ParseKind(action.Nudge.Kind); err != nil {
			return fmt.Errorf("nudge: %w", err)
		}
		if _, err := registration.ParseAxis(action.Nudge.Axis); err != nil {
			return fmt.Errorf("nudge: %w", err)
		}
	}
	if action.Center != nil {
		set++
		if len(action.Center) != 3 {
			return fmt.Errorf("center must have 3 values, got %d", len(action.Center))
		}
	}
	if action.Unit != "" {
		set++
		if action.Unit != "toggle" {
			if _, err := registration.ParseAngleUnit(action.Unit); err != nil {
				return err
			}
		}
	}
	if action.LoadMatrix != "" {
		set++
	}
	if action.LoadElastix != "" {
		set++
	}
	if action.Reset {
		set++
	}
	if action.Save != nil {
		set++
		if action.Save.File == "" {
			return fmt.Errorf("save: file is required")
		}
		if _, err := matfile.ParsePrecision(action.Save.Precision); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	if action.Print {
		set++
	}
	if action.Cancel {
		set++
	}

	if set != 1 {
		return fmt.Errorf("exactly one action must be given per entry, found %d", set)
	}
	return nil
}

// resolveInitialMatrix reads image.transform, either a matrix file or 16 numbers
func (l *Loader) resolveInitialMatrix(config *models.YamlConfig) error {
	switch v := config.Image.Transform.(type) {
	case nil:
		return nil
	case string:
		m, err := matfile.NewParser().Parse(v)
		if err != nil {
			return fmt.Errorf("image transform: %w", err)
		}
		rows := matfile.Rows(m)
		config.InitialMatrix = &rows
		return nil
	case []interface{}:
		if len(v) != 16 {
			return fmt.Errorf("image transform must have 16 values, got %d", len(v))
		}
		var rows [16]float64
		for i, item := range v {
			switch n := item.(type) {
			case int:
				rows[i] = float64(n)
			case float64:
				rows[i] = n
			default:
				return fmt.Errorf("image transform value %d is not a number: %v", i+1, item)
			}
		}
		config.InitialMatrix = &rows
		return nil
	default:
		return fmt.Errorf("image transform must be a file name or a list of 16 numbers")
	}
}

// resolvePaths makes file references relative to the config directory absolute
func resolvePaths(config *models.YamlConfig, dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}

	if s, ok := config.Image.Transform.(string); ok {
		config.Image.Transform = abs(s)
	}
	for i := range config.Actions {
		action := &config.Actions[i]
		action.LoadMatrix = abs(action.LoadMatrix)
		action.LoadElastix = abs(action.LoadElastix)
		if action.Save != nil {
			action.Save.File = abs(action.Save.File)
		}
	}
}

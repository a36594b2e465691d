package models

// ImageInfo describes the geometry of an image volume
type ImageInfo struct {
	Origin  [3]float64 `yaml:"origin"`
	Size    [3]int     `yaml:"size"`
	Spacing [3]float64 `yaml:"spacing"`
	// Transform is either a path to a matrix file or 16 (row-major) numbers.
	Transform interface{} `yaml:"transform,omitempty"`
}

// StepSizes holds the spin box single-step values
type StepSizes struct {
	Translation float64 `yaml:"translation"`
	Rotation    float64 `yaml:"rotation"`
}

// YamlConfig represents a session configuration file
type YamlConfig struct {
	Image       ImageInfo    `yaml:"image"`
	Center      []float64    `yaml:"center,omitempty"`
	AngleUnit   string       `yaml:"angle_unit,omitempty"`
	Precision   string       `yaml:"precision,omitempty"`
	Validation  string       `yaml:"validation,omitempty"`
	Steps       *StepSizes   `yaml:"steps,omitempty"`
	StopOnError bool         `yaml:"stop_on_error,omitempty"`
	Actions     []YamlAction `yaml:"actions,omitempty"`

	// InitialMatrix is resolved by the loader from Image.Transform (row-major).
	InitialMatrix *[16]float64 `yaml:"-"`
}

// YamlAction is one scripted user action of a session.
// Exactly one of the fields must be set.
type YamlAction struct {
	Rotate      *AxisValue  `yaml:"rotate,omitempty"`
	Translate   *AxisValue  `yaml:"translate,omitempty"`
	Slider      *SliderMove `yaml:"slider,omitempty"`
	Nudge       *NudgeMove  `yaml:"nudge,omitempty"`
	Center      []float64   `yaml:"center,omitempty"`
	Unit        string      `yaml:"unit,omitempty"`
	LoadMatrix  string      `yaml:"load_matrix,omitempty"`
	LoadElastix string      `yaml:"load_elastix,omitempty"`
	Reset       bool        `yaml:"reset,omitempty"`
	Save        *SaveMatrix `yaml:"save,omitempty"`
	Print       bool        `yaml:"print,omitempty"`
	// Cancel closes the session without applying it; it must be the last action.
	Cancel bool `yaml:"cancel,omitempty"`
}

// AxisValue sets a spin box value on one axis ("x", "y" or "z")
type AxisValue struct {
	Axis  string  `yaml:"axis"`
	Value float64 `yaml:"value"`
}

// SliderMove moves a slider; Kind is "rotation" or "translation"
type SliderMove struct {
	Kind  string `yaml:"kind"`
	Axis  string `yaml:"axis"`
	Value int    `yaml:"value"`
}

// NudgeMove steps a spin box up or down by a number of single steps
type NudgeMove struct {
	Kind  string `yaml:"kind"`
	Axis  string `yaml:"axis"`
	Steps int    `yaml:"steps"`
}

// SaveMatrix writes the current matrix to a file
type SaveMatrix struct {
	File      string `yaml:"file"`
	Precision string `yaml:"precision,omitempty"`
}

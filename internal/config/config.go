package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-playground/validator/v10"
	"sigs.k8s.io/yaml"
)

// DefaultFileNames are probed in order when no --config flag is given.
var DefaultFileNames = []string{
	"tsschema.config.json",
	"tsschema.config.yaml",
	"tsschema.config.yml",
}

// Config represents the tsschema configuration.
type Config struct {
	Input        InputConfig       `json:"input"`
	Declarations DeclarationConfig `json:"declarations,omitempty"`
	Output       OutputConfig      `json:"output"`
	Resolver     ResolverConfig    `json:"resolver,omitempty"`

	Strict bool `json:"strict,omitzero"` // warnings become errors
	Quiet  bool `json:"quiet,omitzero"`  // suppress warnings and infos
}

// InputConfig specifies which graph documents to load.
type InputConfig struct {
	Include []string `json:"include" validate:"min=1,dive,required"`
	Exclude []string `json:"exclude,omitempty" validate:"dive,required"`
}

// DeclarationConfig selects declarations by name (e.g. "api.*", "*Dto").
type DeclarationConfig struct {
	Include []string `json:"include,omitempty" validate:"dive,required"`
	Exclude []string `json:"exclude,omitempty" validate:"dive,required"`
}

// OutputConfig specifies where and how schema documents are written.
type OutputConfig struct {
	Dir string `json:"dir" validate:"required"`
	// Bundle, when set, is the file name (relative to Dir) of a single
	// document holding every declaration under definitions.
	Bundle string `json:"bundle,omitempty" validate:"omitempty,endswith=.json"`
	// Check compiles every emitted document against the draft-07 metaschema.
	Check bool `json:"check,omitzero"`
}

// ResolverConfig tunes the type graph resolver.
type ResolverConfig struct {
	MaxDepth    int    `json:"maxDepth,omitzero" validate:"gte=0,lte=4096"`
	Cycles      string `json:"cycles,omitempty" validate:"omitempty,oneof=ref placeholder"`
	Date        string `json:"date,omitempty" validate:"omitempty,oneof=date-time object"`
	Parallelism int    `json:"parallelism,omitzero" validate:"gte=0"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Input: InputConfig{
			Include: []string{"types/**/*.json"},
		},
		Output: OutputConfig{
			Dir: "schemas",
		},
		Resolver: ResolverConfig{
			MaxDepth: 64,
			Cycles:   "ref",
			Date:     "date-time",
		},
	}
}

// Find returns the first default config file present in dir, or "" when
// there is none.
func Find(dir string) string {
	for _, name := range DefaultFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load reads and parses a tsschema config file. JSON and YAML are accepted,
// picked by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
		}
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, &config, json.RejectUnknownMembers(true)); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config in %q: %w", path, err)
	}

	return &config, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their config key rather than the Go name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the config for logical errors.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return err
	}
	msgs := make([]string, 0, len(valErrs))
	for _, ve := range valErrs {
		msgs = append(msgs, fieldPath(ve)+": "+formatValidationError(ve))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// fieldPath turns "Config.output.dir" into "output.dir".
func fieldPath(ve validator.FieldError) string {
	ns := ve.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "must not be empty"
	case "min":
		return fmt.Sprintf("must have at least %s entries", ve.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "endswith":
		return fmt.Sprintf("must end with %s", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}

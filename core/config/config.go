package config

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ConfigurationName is the file the interpreter looks for in its
// configuration directory.
const ConfigurationName = "config.yaml"

// Color display policies.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Configuration holds the interpreter's optional settings. The zero value
// doesn't validate; start from Default.
type Configuration struct {
	// PromptMaxPathLen bounds the working directory label in the prompt.
	PromptMaxPathLen int `json:"prompt_max_path_len" validate:"gte=16,lte=4096"`

	// Color controls diagnostic coloring on standard error.
	Color string `json:"color" validate:"oneof=auto always never"`

	// SessionLog is a path for the JSON-lines session event log. Empty
	// disables session logging.
	SessionLog string `json:"session_log"`
}

// Default returns the configuration used when no config file exists.
func Default() *Configuration {
	return &Configuration{
		PromptMaxPathLen: 256,
		Color:            ColorAuto,
	}
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

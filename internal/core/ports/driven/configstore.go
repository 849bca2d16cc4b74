package driven

import "github.com/custodia-labs/notewatch/internal/core/domain"

// ConfigLoader reads the runtime configuration.
type ConfigLoader interface {
	// Load reads the configuration, applies environment overrides and
	// validates the result. A missing file yields the defaults.
	Load() (domain.Config, error)

	// Init writes a commented default configuration file.
	// An existing file is only replaced when force is set.
	Init(force bool) error

	// Path returns the configuration file path.
	Path() string
}

package log

// Config controls the global logging behaviour.
type Config struct {
	// Level is the minimum level to emit: debug, info, warn, error.
	Level string `conf:"level" yaml:"level" json:"level"`
	// Format is either "json" or "console".
	Format string `conf:"format" yaml:"format" json:"format"`
	// Output is "stdout", "stderr" or a file path.
	Output string `conf:"output" yaml:"output" json:"output"`

	Rotation Rotation `conf:"rotation" yaml:"rotation" json:"rotation"`
}

// Rotation configures file rotation when Output is a file path.
type Rotation struct {
	Enabled    bool `conf:"enabled" yaml:"enabled" json:"enabled"`
	MaxSizeMB  int  `conf:"max_size_mb" yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int  `conf:"max_backups" yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int  `conf:"max_age_days" yaml:"max_age_days" json:"max_age_days"`
	Compress   bool `conf:"compress" yaml:"compress" json:"compress"`
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Output: "stderr",
		Rotation: Rotation{
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

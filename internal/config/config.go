// Package config handles converter configuration loading and management.
package config

// Config holds all converter settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Parser  ParserConfig  `yaml:"parser"`
	Output  OutputConfig  `yaml:"output"`
	Batch   BatchConfig   `yaml:"batch"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// ParserConfig holds source model parsing settings.
type ParserConfig struct {
	StrictTokens  bool  `yaml:"strict_tokens"`   // Fail on malformed numeric tokens
	MaxDocumentMB int64 `yaml:"max_document_mb"` // Largest accepted model file
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Format         string `yaml:"format"`          // Default format when the output extension is unknown
	Overwrite      bool   `yaml:"overwrite"`       // Replace existing output files
	FloatPrecision int    `yaml:"float_precision"` // Decimals for text formats, -1 for shortest
}

// BatchConfig holds batch conversion settings.
type BatchConfig struct {
	Workers int `yaml:"workers"` // 0 means one per CPU
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Parser: ParserConfig{
			StrictTokens:  false,
			MaxDocumentMB: 512,
		},
		Output: OutputConfig{
			Format:         "obj",
			Overwrite:      true,
			FloatPrecision: -1,
		},
		Batch: BatchConfig{
			Workers: 0,
		},
	}
}

// MaxDocumentBytes returns the parser size limit in bytes.
func (c *Config) MaxDocumentBytes() int64 {
	return c.Parser.MaxDocumentMB << 20
}

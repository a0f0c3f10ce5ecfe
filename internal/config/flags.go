package config

import "flag"

// Overrides holds command-line values that take priority over the config file.
type Overrides struct {
	ConfigPath  string
	Debug       bool
	Quiet       bool
	LogFile     string
	Strict      bool
	Format      string
	NoOverwrite bool
	Workers     int
}

// Register binds the shared flags to a subcommand's flag set.
func (o *Overrides) Register(fs *flag.FlagSet) {
	fs.StringVar(&o.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&o.Quiet, "quiet", false, "Only log errors")
	fs.StringVar(&o.LogFile, "log", "", "Also write logs to this file")
	fs.BoolVar(&o.Strict, "strict", false, "Fail on malformed numeric tokens")
	fs.StringVar(&o.Format, "f", "", "Output format (obj, glb)")
	fs.BoolVar(&o.NoOverwrite, "no-overwrite", false, "Refuse to replace existing output files")
}

// RegisterBatch binds the batch-only flags.
func (o *Overrides) RegisterBatch(fs *flag.FlagSet) {
	fs.IntVar(&o.Workers, "j", 0, "Number of parallel workers (0 = config or CPU count)")
}

// apply applies CLI flag overrides to the config.
func (o *Overrides) apply(cfg *Config) {
	if o == nil {
		return
	}
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.Quiet {
		cfg.Logging.Level = "error"
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
	if o.Strict {
		cfg.Parser.StrictTokens = true
	}
	if o.Format != "" {
		cfg.Output.Format = o.Format
	}
	if o.NoOverwrite {
		cfg.Output.Overwrite = false
	}
	if o.Workers > 0 {
		cfg.Batch.Workers = o.Workers
	}
}

// Package config loads scheduler configuration from a YAML file with
// environment and flag overrides, mirroring the layered configuration
// idiom (file + env + flags) built on spf13/viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/xlandscape/catchflow/internal/driver"
)

// Config is the full set of scheduler-level configuration values read
// from the surrounding adapter, corresponding to section 6's "Scheduler
// configuration" inputs plus the scaleFacDrift supplement.
type Config struct {
	NWorkers                int     `mapstructure:"nWorkers"`
	KeepOriginalOutputs     bool    `mapstructure:"keepOriginalOutputs"`
	DeleteUpstreamFluxFiles bool    `mapstructure:"deleteUpstreamFluxFiles"`
	TimeStepDefault         float64 `mapstructure:"timeStepDefault"`
	TimeStepMin             float64 `mapstructure:"timeStepMin"`
	MassFlowTimestepParam   float64 `mapstructure:"massFlowTimestepParam"`
	MinMassFlowTimestep     float64 `mapstructure:"minMassFlowTimestep"`
	ScaleFacDrift           float64 `mapstructure:"scaleFacDrift"`
	WorkDir                 string  `mapstructure:"workDir"`
	SolverPath              string  `mapstructure:"solverPath"`
}

// defaults mirror CascadeToxswa.py's generalConfig/modelConfig fallback
// values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("nWorkers", 1)
	v.SetDefault("keepOriginalOutputs", false)
	v.SetDefault("deleteUpstreamFluxFiles", true)
	v.SetDefault("timeStepDefault", 86400.0)
	v.SetDefault("timeStepMin", 1.0)
	v.SetDefault("massFlowTimestepParam", 86400.0)
	v.SetDefault("minMassFlowTimestep", 1.0)
	v.SetDefault("scaleFacDrift", 1.0)
	v.SetDefault("workDir", "")
	v.SetDefault("solverPath", "")
}

// Load reads configuration from path (if non-empty), then CATCHFLOW_*
// environment variables, then returns the merged, validated result. An
// empty path loads defaults plus environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CATCHFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading configuration %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the scheduler-level invariants: nWorkers must be
// positive and the working directory must not contain whitespace (the
// process-level contract that rejects such paths before any work
// starts).
func (c Config) Validate() error {
	if c.NWorkers < 1 {
		return &ConfigurationError{Msg: fmt.Sprintf("nWorkers must be a positive integer, got %d", c.NWorkers)}
	}
	if err := c.DriverConfig().Validate(); err != nil {
		return err
	}
	return nil
}

// DriverConfig projects the subset of Config the driver package consults.
func (c Config) DriverConfig() driver.Config {
	return driver.Config{
		WorkDir:                 c.WorkDir,
		KeepOriginalOutputs:     c.KeepOriginalOutputs,
		DeleteUpstreamFluxFiles: c.DeleteUpstreamFluxFiles,
		TimeStepDefault:         c.TimeStepDefault,
		TimeStepMin:             c.TimeStepMin,
		MassFlowTimestepParam:   c.MassFlowTimestepParam,
		MinMassFlowTimestep:     c.MinMassFlowTimestep,
		ScaleFacDrift:           c.ScaleFacDrift,
	}
}

// ConfigurationError reports a fatal, pre-run defect in scheduler
// configuration (missing required key, invalid value).
type ConfigurationError struct{ Msg string }

func (e *ConfigurationError) Error() string { return "configuration: " + e.Msg }

package config

import (
	"fmt"

	"github.com/Brownie44l1/quorum-sorter/internal/errs"
	"github.com/Netflix/go-env"
)

// Environment holds process-level settings that do not belong in the run
// configuration file.
type Environment struct {
	ConfigPath         string `env:"SORTER_CONFIG,default=config.json"`
	LogLevel           string `env:"LOG_LEVEL,default=INFO"`
	ModelsDir          string `env:"SORTER_MODELS_DIR"`
	OnnxRuntimeLibrary string `env:"ONNXRUNTIME_SHARED_LIBRARY"`
	SysfsRoot          string `env:"SORTER_SYSFS_ROOT,default=/sys"`
}

func LoadEnvironment() (Environment, error) {
	var e Environment
	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return Environment{}, errs.Configuration("environment", fmt.Errorf("config error: %w", err))
	}
	return e, nil
}

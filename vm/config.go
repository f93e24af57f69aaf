package vm

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// Config configures a VM instance. The zero value is valid: it yields a
// 1000-cell stack, JIT disabled (pure interpretation), stack-mode calling
// convention, and output directed to os.Stdout.
type Config struct {
	// StackCapacity is the operand stack's fixed capacity, in cells. Zero
	// means DefaultStackCapacity.
	StackCapacity int `toml:"stack_capacity"`

	// JITEnabled selects whether the façade initializes a code generator
	// and consults the compiled-function table at all. When false, every
	// call is interpreted regardless of Generator.
	JITEnabled bool `toml:"jit_enabled"`

	// PassParam selects the native calling convention: false is
	// stack-mode, true is register-mode.
	PassParam bool `toml:"pass_param"`

	// CachePath, if non-empty, is where the warm-start JIT cache manifest
	// (§4.10) is read from and written to across runs. Empty disables the
	// cache entirely.
	CachePath string `toml:"cache_path"`

	// Generator is the code generator to initialize when JITEnabled is
	// true. If nil and JITEnabled is true, a TrampolineGenerator is used.
	Generator CodeGenerator `toml:"-"`

	// Output is where reference primitives that produce observable
	// output write to. Defaults to os.Stdout.
	Output io.Writer `toml:"-"`
}

func (cfg Config) withDefaults() Config {
	if cfg.StackCapacity <= 0 {
		cfg.StackCapacity = DefaultStackCapacity
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.JITEnabled && cfg.Generator == nil {
		cfg.Generator = NewTrampolineGenerator()
	}
	return cfg
}

// LoadConfigFile reads a TOML configuration file into a Config. Generator
// and Output are never set by TOML (they are Go values, not serializable
// settings) and are left at their zero values for the caller to fill in.
func LoadConfigFile(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

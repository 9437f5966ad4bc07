package absinterp

// Options configures abstract interpretation.
type Options struct {
	// StrictMode fails interpretation of a method on unresolved symbolic
	// references; otherwise the affected result widens to top.
	StrictMode bool `yaml:"strict_mode"`

	// EnableWarnings collects precision-loss warnings in Result.Warnings.
	EnableWarnings bool `yaml:"enable_warnings"`

	// MaxStackDepth bounds the operand stack; deeper stacks fail
	// verification.
	MaxStackDepth int `yaml:"max_stack_depth"`
}

// DefaultOptions returns the default interpreter configuration.
func DefaultOptions() Options {
	return Options{
		StrictMode:     false,
		EnableWarnings: true,
		MaxStackDepth:  65535,
	}
}

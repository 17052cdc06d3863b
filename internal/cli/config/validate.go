package config

import "fmt"

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.LoopLimit <= 0 {
		return fmt.Errorf("loop_limit must be positive, got %d", c.LoopLimit)
	}
	if c.VarLimit <= 0 {
		return fmt.Errorf("var_limit must be positive, got %d", c.VarLimit)
	}
	if c.DepthLimit <= 0 {
		return fmt.Errorf("depth_limit must be positive, got %d", c.DepthLimit)
	}
	if c.Precision < 0 || c.Precision > 12 {
		return fmt.Errorf("precision must be between 0 and 12, got %d", c.Precision)
	}
	if c.Pad < 0 {
		return fmt.Errorf("pad must not be negative, got %g", c.Pad)
	}
	return nil
}

package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// ValidationResult holds config validation results.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// ValidateDetailed performs thorough config validation with suggestions.
func (c *Config) ValidateDetailed() *ValidationResult {
	result := &ValidationResult{}

	if err := c.Validate(); err != nil {
		for _, msg := range strings.Split(err.Error(), "; ") {
			result.Errors = append(result.Errors, msg)
		}
	}

	for _, pattern := range c.Input.Include {
		ext := filepath.Ext(pattern)
		if !strings.Contains(pattern, "*") && ext != ".json" && ext != ".yaml" && ext != ".yml" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("input.include: pattern %q has no wildcard or graph extension, did you mean %q?", pattern, pattern+"/**/*.json"))
		}
	}

	for _, pattern := range c.Declarations.Include {
		if strings.Contains(pattern, "/") {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("declarations.include: pattern %q looks like a path, declaration patterns match names", pattern))
		}
	}

	if c.Output.Bundle != "" && filepath.Base(c.Output.Bundle) != c.Output.Bundle {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("output.bundle: %q is resolved relative to output.dir", c.Output.Bundle))
	}

	if c.Resolver.MaxDepth > 0 && c.Resolver.MaxDepth < 8 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("resolver.maxDepth: %d is very low, ordinary nested types will fail", c.Resolver.MaxDepth))
	}
	if n := runtime.NumCPU(); c.Resolver.Parallelism > 4*n {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("resolver.parallelism: %d is far above the %d available CPUs", c.Resolver.Parallelism, n))
	}

	if c.Strict && c.Quiet {
		result.Warnings = append(result.Warnings,
			"strict and quiet are both set; suppressed warnings are never promoted to errors")
	}

	return result
}

// IsValid returns true if there are no errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

package config

import (
	"fmt"
	"strings"

	"labforge/pkg/logging"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors.
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error.
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks the configuration for values the control plane cannot run
// with. All problems are collected, not just the first.
func (c Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if c.PollInterval.Duration <= 0 {
		errs.Add("pollInterval", "must be positive", c.PollInterval.Duration)
	}
	if c.ReconcileInterval.Duration <= 0 {
		errs.Add("reconcileInterval", "must be positive", c.ReconcileInterval.Duration)
	}
	if c.ProvisioningTimeout.Duration <= 0 {
		errs.Add("provisioningTimeout", "must be positive", c.ProvisioningTimeout.Duration)
	}
	if c.DeletingTimeout.Duration <= 0 {
		errs.Add("deletingTimeout", "must be positive", c.DeletingTimeout.Duration)
	}
	if c.DefaultDuration.Duration <= 0 {
		errs.Add("defaultDuration", "must be positive", c.DefaultDuration.Duration)
	}
	if c.Retention.Duration <= 0 {
		errs.Add("retention", "must be positive", c.Retention.Duration)
	}
	if c.Provisioner.Delay.Duration < 0 {
		errs.Add("provisioner.delay", "must not be negative", c.Provisioner.Delay.Duration)
	}
	if c.Provisioner.MaxActive < 0 {
		errs.Add("provisioner.maxActive", "must not be negative", c.Provisioner.MaxActive)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs.Add("logLevel", err.Error(), c.LogLevel)
	}

	return errs
}

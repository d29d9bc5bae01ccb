package custom_errors

import (
	"errors"
	"fmt"
)

// ValidationError collects every problem found while validating a configuration
// so that startup reports them all at once.
type ValidationError struct {
	Errors []error `json:"errors"`
}

func (c *ValidationError) Add(err error) {
	if err == nil {
		return
	}
	c.Errors = append(c.Errors, err)
}

func (c *ValidationError) Addf(format string, args ...any) {
	c.Add(fmt.Errorf(format, args...))
}

func (c *ValidationError) HasError() bool {
	return len(c.Errors) > 0
}

func (c *ValidationError) Error() string {
	if len(c.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf("%v: %v", ErrConfiguration, errors.Join(c.Errors...))
}

// Unwrap lets errors.Is(err, ErrConfiguration) match an aggregated validation failure.
func (c *ValidationError) Unwrap() []error {
	return append([]error{ErrConfiguration}, c.Errors...)
}

package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "bridge.crit_ships")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// waveRegex matches a wave in c/s notation, e.g. "cccss"
var waveRegex = regexp.MustCompile(`^[cCsS\s]*[cCsS][cCsS\s]*$`)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the list of valid log formats
func ValidLogFormats() []string {
	return []string{"json", "text"}
}

// newValidator returns a validator that reports fields by their config key
// and knows the drawbridge-specific tags.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("wave", func(fl validator.FieldLevel) bool {
		return waveRegex.MatchString(fl.Field().String())
	})
	v.RegisterStructValidation(validatePopulation, SimulationConfig{})
	return v
}

// validatePopulation rejects a simulation with nobody to simulate.
func validatePopulation(sl validator.StructLevel) {
	sim := sl.Current().Interface().(SimulationConfig)
	if sim.Original || len(sim.Waves) > 0 {
		return
	}
	if sim.Cars+sim.Ships == 0 {
		sl.ReportError(sim.Cars+sim.Ships, "cars", "Cars", "population", "")
	}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	err := newValidator().Struct(c)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []ValidationError{{Field: "config", Value: nil, Message: err.Error()}}
	}

	result := make([]ValidationError, 0, len(ve))
	for _, fe := range ve {
		result = append(result, ValidationError{
			Field:   fieldPath(fe),
			Value:   fe.Value(),
			Message: fieldErrorMsg(fe),
		})
	}
	return result
}

// fieldPath turns "Config.simulation.waves[1]" into "simulation.waves[1]".
func fieldPath(fe validator.FieldError) string {
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Namespace()
	}
	return path
}

// NOTE: Add more case here once new validation tag is used in Config.
func fieldErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.Join(strings.Fields(fe.Param()), ", "))
	case "gte":
		if fe.Param() == "0" {
			return "must be non-negative"
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gtefield":
		return "must be greater than or equal to min_delay_ms"
	case "hostname_port":
		return "must be a host:port address"
	case "wave":
		return "must contain only c (car) and s (ship)"
	case "population":
		return "cars + ships must be positive when no waves are given"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

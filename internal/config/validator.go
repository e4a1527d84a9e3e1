package config

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

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

// ValidBackends returns the supported store backends.
func ValidBackends() []string {
	return []string{"memory", "file", "redis", "sqlite"}
}

// ValidLogLevels returns the list of valid log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Server.Addr == "" {
		errs = append(errs, ValidationError{Field: "server.addr", Value: c.Server.Addr, Message: "must not be empty"})
	}

	if !slices.Contains(ValidBackends(), c.Store.Backend) {
		errs = append(errs, ValidationError{
			Field:   "store.backend",
			Value:   c.Store.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidBackends(), ", ")),
		})
	}
	if (c.Store.Backend == "file" || c.Store.Backend == "sqlite") && c.Store.Path == "" {
		errs = append(errs, ValidationError{Field: "store.path", Value: c.Store.Path, Message: "required by the " + c.Store.Backend + " backend"})
	}
	if c.Store.Backend == "redis" && c.Redis.Addr == "" {
		errs = append(errs, ValidationError{Field: "redis.addr", Value: c.Redis.Addr, Message: "required by the redis backend"})
	}
	if c.Redis.TTLMinutes < 0 {
		errs = append(errs, ValidationError{Field: "redis.ttl_minutes", Value: c.Redis.TTLMinutes, Message: "must be non-negative"})
	}

	if c.Throttle.IntervalMs < 0 {
		errs = append(errs, ValidationError{Field: "throttle.interval_ms", Value: c.Throttle.IntervalMs, Message: "must be non-negative"})
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Formplayer.URL != "" {
		if u, err := url.Parse(c.Formplayer.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{Field: "formplayer.url", Value: c.Formplayer.URL, Message: "must be an absolute URL"})
		}
	}

	if c.Encryption.Secret == "" && len(c.Encryption.Fallbacks) > 0 {
		errs = append(errs, ValidationError{Field: "encryption.fallbacks", Value: len(c.Encryption.Fallbacks), Message: "require encryption.secret"})
	}
	for _, p := range c.Encryption.PIIPatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, ValidationError{Field: "encryption.pii_patterns", Value: p, Message: err.Error()})
		}
	}

	return errs
}

package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateTheme(&c.Theme)...)
	errs = append(errs, validatePopup(&c.Popup)...)
	errs = append(errs, validateMenu(&c.Menu)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateTheme(t *ThemeConfig) ValidationErrors {
	var errs ValidationErrors
	switch t.Default {
	case "system", "light", "dark":
	default:
		errs = append(errs, ValidationError{
			Field:   "theme.default",
			Message: fmt.Sprintf("must be system, light, or dark (got %q)", t.Default),
		})
	}
	return errs
}

func validatePopup(p *PopupConfig) ValidationErrors {
	var errs ValidationErrors
	switch p.Align {
	case "left", "center", "right":
	default:
		errs = append(errs, ValidationError{
			Field:   "popup.align",
			Message: fmt.Sprintf("must be left, center, or right (got %q)", p.Align),
		})
	}
	switch p.Button {
	case "left", "right":
	default:
		errs = append(errs, ValidationError{
			Field:   "popup.button",
			Message: fmt.Sprintf("must be left or right (got %q)", p.Button),
		})
	}
	return errs
}

func validateMenu(m *MenuConfig) ValidationErrors {
	var errs ValidationErrors
	// Native command identifiers are WORD-sized; 0 is reserved for
	// dismissal.
	if m.BaseCommandID < 1 || m.BaseCommandID > 0xFFFF {
		errs = append(errs, ValidationError{
			Field:   "menu.base_command_id",
			Message: fmt.Sprintf("must be in [1, 65535] (got %d)", m.BaseCommandID),
		})
	}
	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("must be debug, info, warn, or error (got %q)", l.Level),
		})
	}
	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("must be text or json (got %q)", l.Format),
		})
	}
	return errs
}

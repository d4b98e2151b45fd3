package focco

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultTimeoutSeconds is the per-request timeout used when none is configured
const DefaultTimeoutSeconds = 10

// Errors for Focco configuration
var (
	ErrConfigMissingBaseURL = errors.New("focco: base url is required")
	ErrConfigInvalidBaseURL = errors.New("focco: base url must be an absolute http(s) url")
	ErrConfigMissingToken   = errors.New("focco: token is required")
	ErrConfigInvalidTimeout = errors.New("focco: timeout must be between 1 and 300 seconds")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds the connection settings of the Focco REST API
type Config struct {
	// BaseURL is the API root, e.g. https://api.foccoerp.com.br
	BaseURL string `validate:"required,http_url"`
	// Token is the bearer token issued by Focco (program FUTL0243)
	Token string `validate:"required"`
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int `validate:"gte=0,lte=300"`
}

// NewConfig creates a configuration with the default timeout
func NewConfig(baseURL, token string) *Config {
	return &Config{
		BaseURL:        baseURL,
		Token:          token,
		TimeoutSeconds: DefaultTimeoutSeconds,
	}
}

// Validate checks the configuration, trims the base URL and fills defaults
func (c *Config) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Token = strings.TrimSpace(c.Token)

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("focco: invalid config: %w", err)
		}
		return translateFieldError(fieldErrs[0])
	}

	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	return nil
}

func translateFieldError(fe validator.FieldError) error {
	switch fe.Field() {
	case "BaseURL":
		if fe.Tag() == "required" {
			return ErrConfigMissingBaseURL
		}
		return ErrConfigInvalidBaseURL
	case "Token":
		return ErrConfigMissingToken
	case "TimeoutSeconds":
		return ErrConfigInvalidTimeout
	}
	return fmt.Errorf("focco: invalid config field %s", fe.Field())
}

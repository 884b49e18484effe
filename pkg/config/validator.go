package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator performs fail-fast validation of a loaded Config. Struct-level
// constraints live in `validate` tags; cross-references are checked here.
type Validator struct {
	cfg      *Config
	validate *validator.Validate
}

// NewValidator creates a validator for the given config.
func NewValidator(cfg *Config) *Validator {
	return &Validator{
		cfg:      cfg,
		validate: validator.New(),
	}
}

// ValidateAll validates every configuration section, stopping at the first
// problem so startup errors stay readable.
func (v *Validator) ValidateAll() error {
	if err := v.validateServer(); err != nil {
		return err
	}
	if err := v.validateBreaker(); err != nil {
		return err
	}
	if err := v.validateLLMProviders(); err != nil {
		return err
	}
	return v.validateDefaultProvider()
}

func (v *Validator) validateServer() error {
	if v.cfg.Server == nil {
		return NewValidationError("server", "server", "", errors.New("section missing"))
	}
	if err := v.validate.Struct(v.cfg.Server); err != nil {
		return NewValidationError("server", "server", firstField(err), wrapInvalid(err))
	}
	return nil
}

func (v *Validator) validateBreaker() error {
	if v.cfg.Breaker == nil {
		return NewValidationError("breaker", "breaker", "", errors.New("section missing"))
	}
	if err := v.validate.Struct(v.cfg.Breaker); err != nil {
		return NewValidationError("breaker", "breaker", firstField(err), wrapInvalid(err))
	}
	return nil
}

func (v *Validator) validateLLMProviders() error {
	names := v.cfg.LLMProviderRegistry.Names()
	if len(names) == 0 {
		return NewValidationError("llm_provider", "llm", "", errors.New("no providers configured"))
	}

	// Sorted walk keeps the first-reported error deterministic.
	providers := v.cfg.LLMProviderRegistry.GetAll()
	for _, name := range names {
		if err := v.validate.Struct(providers[name]); err != nil {
			return NewValidationError("llm_provider", name, firstField(err), wrapInvalid(err))
		}
	}
	return nil
}

func (v *Validator) validateDefaultProvider() error {
	if v.cfg.DefaultProvider == "" {
		return NewValidationError("llm_provider", "default_provider", "", errors.New("not set"))
	}
	if !v.cfg.LLMProviderRegistry.Has(v.cfg.DefaultProvider) {
		return NewValidationError("llm_provider", v.cfg.DefaultProvider, "default_provider",
			fmt.Errorf("%w: default_provider names an unknown provider", ErrInvalidReference))
	}
	return nil
}

// firstField extracts the offending field name from a validator error.
func firstField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}

func wrapInvalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidValue, err)
}

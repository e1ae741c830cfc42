package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for errors.
//
// Struct-tag validation covers value formats and ranges; cross-field rules
// that tags cannot express are checked explicitly afterwards.
func Validate(cfg *Config) error {
	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				return fmt.Errorf("invalid value for %s: failed %q constraint", fe.Namespace(), fe.Tag())
			}
		}
		return err
	}

	if cfg.Storage.Backend == BackendBadger && cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path is required when storage.backend is %q", BackendBadger)
	}

	if cfg.Auth.OAuth.Enabled && cfg.Auth.OAuth.Secret == "" {
		return fmt.Errorf("auth.oauth.secret is required when auth.oauth.enabled is true")
	}

	seen := make(map[string]struct{}, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("duplicate account %q", a.Name)
		}
		seen[a.Name] = struct{}{}
	}

	return nil
}

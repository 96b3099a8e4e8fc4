package config

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Validate checks the settings that would otherwise fail late, at first use.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(&c.Database,
		validation.Field(&c.Database.Driver, validation.Required, validation.In("sqlite", "postgres", "memory")),
		validation.Field(&c.Database.Name, validation.When(c.Database.Driver != "memory", validation.Required)),
		validation.Field(&c.Database.Port, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Database.ValkeyAddress, validation.When(c.Database.ValkeyEnabled, validation.Required)),
	)
	if err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}

	err = validation.ValidateStruct(&c.Remote,
		validation.Field(&c.Remote.BaseURL, is.URL),
	)
	if err != nil {
		return fmt.Errorf("invalid remote config: %w", err)
	}

	err = validation.ValidateStruct(&c.Lookups,
		validation.Field(&c.Lookups.DiscriminatorPath, validation.Required),
		validation.Field(&c.Lookups.WriteAttempts, validation.Min(1), validation.Max(10)),
		validation.Field(&c.Lookups.WriteBaseDelay, validation.Min(0)),
		validation.Field(&c.Lookups.FreshnessWindow, validation.Min(0)),
		validation.Field(&c.Lookups.SettleDelay, validation.Min(0)),
		validation.Field(&c.Lookups.FetchTimeout, validation.Min(0)),
		validation.Field(&c.Lookups.RefreshInterval, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("invalid lookups config: %w", err)
	}

	for _, cred := range c.App.BasicAuth {
		if parts := strings.Split(cred, ":"); len(parts) != 2 || parts[0] == "" {
			return fmt.Errorf("invalid basic auth credential %q, expected <user>:<secret>", cred)
		}
	}
	return nil
}

package domain

import "context"

// Source performs the network calls that return raw reference data. Each call
// fails independently of the others.
type Source interface {
	// FetchLookups returns the combined catalog; records carry a discriminator.
	FetchLookups(ctx context.Context) ([]Record, error)

	// FetchWorkLocations returns location/branch/region records for a catalog.
	FetchWorkLocations(ctx context.Context, catalogID string) ([]Record, error)

	// FetchCountries returns the country catalog.
	FetchCountries(ctx context.Context) ([]Record, error)

	// FetchCategories returns the membership category catalog.
	FetchCategories(ctx context.Context, catalogID string) ([]Record, error)
}

// Authenticator reports whether the process currently holds credentials for
// the remote source.
type Authenticator interface {
	IsAuthenticated(ctx context.Context) bool
}

// AuthenticatorFunc adapts a plain function to Authenticator.
type AuthenticatorFunc func(ctx context.Context) bool

func (f AuthenticatorFunc) IsAuthenticated(ctx context.Context) bool { return f(ctx) }

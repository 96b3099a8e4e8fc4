package validations

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainLookup "github.com/AzielCF/az-lookups/domains/lookup"
	"github.com/AzielCF/az-lookups/lookups/domain"
	pkgError "github.com/AzielCF/az-lookups/pkg/error"
)

// ValidateGetBucket resolves the requested bucket name. A missing name is a
// validation error; an unknown one is reported as not found.
func ValidateGetBucket(ctx context.Context, request domainLookup.GetBucketRequest) (domain.BucketKind, error) {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Bucket, validation.Required, validation.Length(1, 64)),
	)
	if err != nil {
		return "", pkgError.ValidationError(err.Error())
	}

	kind, err := domain.ParseBucketKind(request.Bucket)
	if errors.Is(err, domain.ErrUnknownBucket) {
		return "", pkgError.NotFoundError(err.Error())
	}
	if err != nil {
		return "", pkgError.ValidationError(err.Error())
	}
	return kind, nil
}

package domain

import "errors"

var (
	ErrUnknownBucket      = errors.New("unknown lookup bucket")
	ErrVerificationFailed = errors.New("persisted value failed verification")
	ErrUnexpectedPayload  = errors.New("remote payload is not a record array")
)

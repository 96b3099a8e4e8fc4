package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/AzielCF/az-lookups/lookups/domain"
)

// Writer persists buckets with bounded retry and post-write verification.
// It never touches in-memory cache state.
type Writer struct {
	store  domain.Store
	policy RetryPolicy

	// OnRetry, when set, observes every backoff wait.
	OnRetry func(key string, attempts int, wait time.Duration)
}

func NewWriter(store domain.Store, policy RetryPolicy) *Writer {
	return &Writer{store: store, policy: policy.normalized()}
}

// WriteVerified serializes records, writes them under key and reads them back.
// Failed attempts are retried per the writer's policy. Reports whether a
// verified write happened.
func (w *Writer) WriteVerified(ctx context.Context, key string, records domain.Bucket) bool {
	payload, err := encodeBucket(records)
	if err != nil {
		logrus.WithError(err).Errorf("[LOOKUP_WRITER] Cannot encode %s", key)
		return false
	}

	err = RetryWithBackoff(ctx, w.policy, func(int) error {
		return w.writeOnce(ctx, key, payload)
	}, func(attempts int, err error, wait time.Duration) {
		logrus.Debugf("[LOOKUP_WRITER] Write of %s failed (attempt %d/%d): %v; retrying in %v",
			key, attempts, w.policy.MaxAttempts, err, wait)
		if w.OnRetry != nil {
			w.OnRetry(key, attempts, wait)
		}
	})
	if err != nil {
		logrus.WithError(err).Warnf("[LOOKUP_WRITER] Giving up on %s after %d attempts", key, w.policy.MaxAttempts)
		return false
	}
	return true
}

// WriteOnce performs a single write-and-verify with no retry.
func (w *Writer) WriteOnce(ctx context.Context, key string, records domain.Bucket) bool {
	payload, err := encodeBucket(records)
	if err != nil {
		return false
	}
	if err := w.writeOnce(ctx, key, payload); err != nil {
		logrus.WithError(err).Debugf("[LOOKUP_WRITER] Single write of %s failed", key)
		return false
	}
	return true
}

func (w *Writer) writeOnce(ctx context.Context, key string, payload []byte) error {
	if err := w.store.Put(ctx, key, string(payload)); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	readback, ok, err := w.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read back %s: %w", key, err)
	}
	return verifyRoundTrip(payload, readback, ok)
}

func encodeBucket(records domain.Bucket) ([]byte, error) {
	if records == nil {
		records = domain.Bucket{}
	}
	return json.Marshal(records)
}

// verifyRoundTrip requires the readback to exist and, when both sides are
// arrays, to have the same length. Content is not compared.
func verifyRoundTrip(written []byte, readback string, present bool) error {
	if !present || readback == "" || readback == "null" {
		return fmt.Errorf("%w: value absent after write", domain.ErrVerificationFailed)
	}
	orig := gjson.ParseBytes(written)
	back := gjson.Parse(readback)
	if orig.IsArray() && back.IsArray() {
		if want, got := len(orig.Array()), len(back.Array()); want != got {
			return fmt.Errorf("%w: wrote %d records, read back %d", domain.ErrVerificationFailed, want, got)
		}
	}
	return nil
}

package domain

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Record is a single reference-data entry as returned by the remote service.
// Only the discriminator is ever interpreted; every other attribute is carried
// through to consumers untouched.
type Record json.RawMessage

// MarshalJSON emits the record verbatim.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON keeps a private copy of the raw bytes.
func (r *Record) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// Get resolves a gjson path (e.g. "lookupType" or "lookuptypeId.lookuptype")
// against the record.
func (r Record) Get(path string) gjson.Result {
	return gjson.GetBytes(r, path)
}

// Clone returns a copy that shares no memory with r.
func (r Record) Clone() Record {
	return Record(bytes.Clone(r))
}

// Bucket is an ordered sequence of records for a single BucketKind.
type Bucket []Record

// Clone copies the bucket. A nil bucket clones to an empty, non-nil one.
func (b Bucket) Clone() Bucket {
	out := make(Bucket, len(b))
	for i, r := range b {
		out[i] = r.Clone()
	}
	return out
}

// ParseBucket decodes a persisted value into a bucket. Anything that is not a
// JSON array (absent, null, malformed, an object) yields an empty bucket.
func ParseBucket(value string) Bucket {
	if !gjson.Valid(value) {
		return Bucket{}
	}
	parsed := gjson.Parse(value)
	if !parsed.IsArray() {
		return Bucket{}
	}
	items := parsed.Array()
	out := make(Bucket, 0, len(items))
	for _, item := range items {
		out = append(out, Record(item.Raw))
	}
	return out
}

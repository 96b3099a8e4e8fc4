package domain

import "time"

// Origin records where the buckets of a snapshot came from.
type Origin string

const (
	OriginEmpty  Origin = "empty"
	OriginDisk   Origin = "disk"
	OriginRemote Origin = "remote"
)

// Snapshot is the full set of buckets held in memory at one point in time.
type Snapshot struct {
	Buckets   map[BucketKind]Bucket `json:"buckets"`
	Origin    Origin                `json:"origin"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// EmptySnapshot returns a snapshot with every bucket present and empty.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Buckets: EmptyBuckets(),
		Origin:  OriginEmpty,
	}
}

// EmptyBuckets returns a map holding an empty bucket for every kind.
func EmptyBuckets() map[BucketKind]Bucket {
	out := make(map[BucketKind]Bucket, len(AllBuckets))
	for _, k := range AllBuckets {
		out[k] = Bucket{}
	}
	return out
}

// Bucket returns the records for kind, never nil.
func (s Snapshot) Bucket(kind BucketKind) Bucket {
	if b, ok := s.Buckets[kind]; ok && b != nil {
		return b
	}
	return Bucket{}
}

// IsEmpty reports whether no bucket holds a record.
func (s Snapshot) IsEmpty() bool {
	for _, b := range s.Buckets {
		if len(b) > 0 {
			return false
		}
	}
	return true
}

// Sizes returns the record count per bucket.
func (s Snapshot) Sizes() map[BucketKind]int {
	out := make(map[BucketKind]int, len(AllBuckets))
	for _, k := range AllBuckets {
		out[k] = len(s.Buckets[k])
	}
	return out
}

// Clone deep-copies the snapshot so the caller can never write through to
// the cache's own state.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Buckets:   make(map[BucketKind]Bucket, len(AllBuckets)),
		Origin:    s.Origin,
		UpdatedAt: s.UpdatedAt,
	}
	for _, k := range AllBuckets {
		out.Buckets[k] = s.Buckets[k].Clone()
	}
	return out
}

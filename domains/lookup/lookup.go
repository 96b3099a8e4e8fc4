package lookup

import (
	"context"
	"time"

	"github.com/AzielCF/az-lookups/lookups/domain"
)

type SnapshotResponse struct {
	Origin    domain.Origin                       `json:"origin"`
	UpdatedAt time.Time                           `json:"updated_at"`
	Buckets   map[domain.BucketKind]domain.Bucket `json:"buckets"`
}

type BucketResponse struct {
	Bucket  domain.BucketKind `json:"bucket"`
	Count   int               `json:"count"`
	Records domain.Bucket     `json:"records"`
}

type StatusResponse struct {
	Fresh          bool                      `json:"fresh"`
	Authenticated  bool                      `json:"authenticated"`
	Origin         domain.Origin             `json:"origin"`
	UpdatedAt      time.Time                 `json:"updated_at"`
	UpdatedAgo     string                    `json:"updated_ago"`
	Sizes          map[domain.BucketKind]int `json:"sizes"`
	TotalRecords   int                       `json:"total_records"`
	PayloadSize    string                    `json:"payload_size"`
	LastLoadError  string                    `json:"last_load_error,omitempty"`
	LastPersistOK  *bool                     `json:"last_persist_ok,omitempty"`
	LastPersistAgo string                    `json:"last_persist_ago,omitempty"`
}

type GetBucketRequest struct {
	Bucket string `json:"bucket" params:"bucket"`
}

type ReloadRequest struct {
	Force bool `json:"force" query:"force"`
}

type ILookupUsecase interface {
	GetSnapshot(ctx context.Context) (SnapshotResponse, error)
	GetBucket(ctx context.Context, request GetBucketRequest) (BucketResponse, error)
	Refresh(ctx context.Context) (SnapshotResponse, error)
	Reload(ctx context.Context, request ReloadRequest) (SnapshotResponse, error)
	GetStatus(ctx context.Context) (StatusResponse, error)
}

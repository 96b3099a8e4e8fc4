package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	domainLookup "github.com/AzielCF/az-lookups/domains/lookup"
	"github.com/AzielCF/az-lookups/lookups/domain"
	"github.com/AzielCF/az-lookups/validations"
)

// LookupCache is the part of the lookup manager the service drives.
type LookupCache interface {
	Snapshot() domain.Snapshot
	Bucket(kind domain.BucketKind) domain.Bucket
	RefreshFromRemote(ctx context.Context) domain.Snapshot
	LoadFromPersistentCache(ctx context.Context, force bool)
	Status() domain.Status
}

type lookupService struct {
	cache LookupCache
	auth  domain.Authenticator
	now   func() time.Time
}

func NewLookupService(cache LookupCache, auth domain.Authenticator) domainLookup.ILookupUsecase {
	return &lookupService{cache: cache, auth: auth, now: time.Now}
}

func (s *lookupService) GetSnapshot(ctx context.Context) (domainLookup.SnapshotResponse, error) {
	return toSnapshotResponse(s.cache.Snapshot()), nil
}

func (s *lookupService) GetBucket(ctx context.Context, request domainLookup.GetBucketRequest) (domainLookup.BucketResponse, error) {
	kind, err := validations.ValidateGetBucket(ctx, request)
	if err != nil {
		return domainLookup.BucketResponse{}, err
	}

	records := s.cache.Bucket(kind)
	return domainLookup.BucketResponse{
		Bucket:  kind,
		Count:   len(records),
		Records: records,
	}, nil
}

func (s *lookupService) Refresh(ctx context.Context) (domainLookup.SnapshotResponse, error) {
	logrus.Info("[LOOKUPS] Refresh requested")
	return toSnapshotResponse(s.cache.RefreshFromRemote(ctx)), nil
}

func (s *lookupService) Reload(ctx context.Context, request domainLookup.ReloadRequest) (domainLookup.SnapshotResponse, error) {
	logrus.Infof("[LOOKUPS] Reload from store requested (force=%v)", request.Force)
	s.cache.LoadFromPersistentCache(ctx, request.Force)
	return toSnapshotResponse(s.cache.Snapshot()), nil
}

func (s *lookupService) GetStatus(ctx context.Context) (domainLookup.StatusResponse, error) {
	st := s.cache.Status()

	resp := domainLookup.StatusResponse{
		Fresh:         st.Fresh,
		Authenticated: s.auth != nil && s.auth.IsAuthenticated(ctx),
		Origin:        st.Origin,
		UpdatedAt:     st.UpdatedAt,
		UpdatedAgo:    "never",
		Sizes:         st.Sizes,
		LastLoadError: st.LastLoadError,
		LastPersistOK: st.LastPersistOK,
	}
	if !st.UpdatedAt.IsZero() {
		resp.UpdatedAgo = humanize.RelTime(st.UpdatedAt, s.now(), "ago", "from now")
	}
	if !st.LastPersistAt.IsZero() {
		resp.LastPersistAgo = humanize.RelTime(st.LastPersistAt, s.now(), "ago", "from now")
	}
	for _, n := range st.Sizes {
		resp.TotalRecords += n
	}

	if payload, err := json.Marshal(s.cache.Snapshot().Buckets); err == nil {
		resp.PayloadSize = humanize.Bytes(uint64(len(payload)))
	}
	return resp, nil
}

func toSnapshotResponse(snap domain.Snapshot) domainLookup.SnapshotResponse {
	return domainLookup.SnapshotResponse{
		Origin:    snap.Origin,
		UpdatedAt: snap.UpdatedAt,
		Buckets:   snap.Buckets,
	}
}

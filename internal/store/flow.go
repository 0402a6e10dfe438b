package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/kode4food/tartan/pkg/api"
)

type (
	// BlobFlowStore keeps flow definitions as JSON documents in a bucket
	BlobFlowStore struct {
		bucket *blob.Bucket
		clock  Clock
	}

	// MemoryFlowStore is an in-process flow store
	MemoryFlowStore struct {
		flows map[api.FlowID]*api.Flow
		clock Clock
		mu    sync.RWMutex
	}

	// Clock stamps flow creation and update times
	Clock func() time.Time
)

const flowPrefix = "flows/"

var ErrFlowIDEmpty = errors.New("flow ID empty")

// NewBlobFlowStore opens the bucket at bucketURL
func NewBlobFlowStore(
	ctx context.Context, bucketURL string, clock Clock,
) (*BlobFlowStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = time.Now
	}
	return &BlobFlowStore{bucket: bucket, clock: clock}, nil
}

func (s *BlobFlowStore) GetFlow(
	ctx context.Context, id api.FlowID,
) (*api.Flow, error) {
	data, err := s.bucket.ReadAll(ctx, flowKey(id))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", api.ErrFlowNotFound, id)
		}
		return nil, err
	}

	var f api.Flow
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// PutFlow stores a flow, keeping the creation time of any flow it replaces
func (s *BlobFlowStore) PutFlow(ctx context.Context, f *api.Flow) error {
	if f.ID == "" {
		return ErrFlowIDEmpty
	}
	createdAt := s.clock()
	if prev, err := s.GetFlow(ctx, f.ID); err == nil {
		createdAt = prev.CreatedAt
	} else if !errors.Is(err, api.ErrFlowNotFound) {
		return err
	}
	return s.write(ctx, f, createdAt)
}

// UpdateFlow replaces an existing flow and bumps its update time
func (s *BlobFlowStore) UpdateFlow(ctx context.Context, f *api.Flow) error {
	prev, err := s.GetFlow(ctx, f.ID)
	if err != nil {
		return err
	}
	return s.write(ctx, f, prev.CreatedAt)
}

func (s *BlobFlowStore) ListFlows(ctx context.Context) ([]*api.Flow, error) {
	res := []*api.Flow{}
	iter := s.bucket.List(&blob.ListOptions{Prefix: flowPrefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if obj.IsDir || !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(obj.Key, flowPrefix), ".json")
		f, err := s.GetFlow(ctx, api.FlowID(id))
		if err != nil {
			return nil, err
		}
		res = append(res, f)
	}
	sortFlows(res)
	return res, nil
}

func (s *BlobFlowStore) Close() error {
	return s.bucket.Close()
}

func (s *BlobFlowStore) write(
	ctx context.Context, f *api.Flow, createdAt time.Time,
) error {
	f.CreatedAt = createdAt
	f.UpdatedAt = s.clock()
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return s.bucket.WriteAll(ctx, flowKey(f.ID), data, nil)
}

func flowKey(id api.FlowID) string {
	return flowPrefix + string(id) + ".json"
}

// NewMemoryFlowStore creates an empty MemoryFlowStore
func NewMemoryFlowStore(clock Clock) *MemoryFlowStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryFlowStore{
		flows: map[api.FlowID]*api.Flow{},
		clock: clock,
	}
}

func (s *MemoryFlowStore) GetFlow(
	_ context.Context, id api.FlowID,
) (*api.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", api.ErrFlowNotFound, id)
	}
	cpy := *f
	return &cpy, nil
}

func (s *MemoryFlowStore) PutFlow(_ context.Context, f *api.Flow) error {
	if f.ID == "" {
		return ErrFlowIDEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f.CreatedAt = s.clock()
	if prev, ok := s.flows[f.ID]; ok {
		f.CreatedAt = prev.CreatedAt
	}
	f.UpdatedAt = s.clock()
	cpy := *f
	s.flows[f.ID] = &cpy
	return nil
}

func (s *MemoryFlowStore) UpdateFlow(_ context.Context, f *api.Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.flows[f.ID]
	if !ok {
		return fmt.Errorf("%w: %s", api.ErrFlowNotFound, f.ID)
	}
	f.CreatedAt = prev.CreatedAt
	f.UpdatedAt = s.clock()
	cpy := *f
	s.flows[f.ID] = &cpy
	return nil
}

func (s *MemoryFlowStore) ListFlows(context.Context) ([]*api.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*api.Flow, 0, len(s.flows))
	for _, f := range s.flows {
		cpy := *f
		res = append(res, &cpy)
	}
	sortFlows(res)
	return res, nil
}

func sortFlows(flows []*api.Flow) {
	slices.SortFunc(flows, func(l, r *api.Flow) int {
		return strings.Compare(string(l.ID), string(r.ID))
	})
}

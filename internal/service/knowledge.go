package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Harshitk-cp/augur/internal/domain"
	"github.com/Harshitk-cp/augur/internal/metrics"
	"github.com/Harshitk-cp/augur/internal/store"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Key prefixes of the two tiers.
const (
	ShortTermPrefix = "st_memory:"
	CorePrefix      = "core_memory:"
)

// KnowledgeService is the two-tier memory over a keyed store. Short-term
// records expire; core records do not.
type KnowledgeService struct {
	kv     domain.KVStore
	logger *zap.Logger
	now    func() time.Time

	shortTermTTL time.Duration
	defaultLimit int

	index *tagIndex
}

func NewKnowledgeService(kv domain.KVStore, tuning domain.Tuning, logger *zap.Logger) *KnowledgeService {
	return &KnowledgeService{
		kv:           kv,
		logger:       logger,
		now:          time.Now,
		shortTermTTL: tuning.ShortTermTTL,
		defaultLimit: tuning.DefaultRetrieveLimit,
	}
}

// SetClock replaces time.Now for record timestamps.
func (s *KnowledgeService) SetClock(now func() time.Time) {
	s.now = now
}

// EnableTagIndex builds the in-process tag index from the current contents of
// both tiers. Only enable it when this process is the sole writer.
func (s *KnowledgeService) EnableTagIndex(ctx context.Context) error {
	ix := newTagIndex()
	for _, prefix := range []string{ShortTermPrefix, CorePrefix} {
		keys, err := s.kv.Scan(ctx, prefix)
		if err != nil {
			return fmt.Errorf("scan %s: %w", prefix, err)
		}
		for _, key := range keys {
			item, _, err := s.load(ctx, key)
			if err != nil {
				continue
			}
			ix.put(key, item.Tags)
		}
	}
	s.index = ix
	s.logger.Info("knowledge tag index enabled", zap.Int("entries", ix.len()))
	return nil
}

type addOptions struct {
	id  string
	ttl time.Duration
}

// AddOption configures AddToShortTerm.
type AddOption func(*addOptions)

// WithID stores the record under a caller-chosen id instead of a fresh uuid.
func WithID(id string) AddOption {
	return func(o *addOptions) {
		o.id = id
	}
}

// WithTTL overrides the short-term TTL for one record.
func WithTTL(ttl time.Duration) AddOption {
	return func(o *addOptions) {
		o.ttl = ttl
	}
}

// AddToShortTerm creates a short-term record. The record is returned even
// when the write fails; the error reports the failed write.
func (s *KnowledgeService) AddToShortTerm(ctx context.Context, content map[string]any, source string, tags []string, opts ...AddOption) (*domain.MemoryItem, error) {
	o := addOptions{ttl: s.shortTermTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.New().String()
	}
	if content == nil {
		content = map[string]any{}
	}
	if tags == nil {
		tags = []string{}
	}

	item := &domain.MemoryItem{
		ID:              o.id,
		Content:         content,
		Source:          source,
		Timestamp:       s.now().UTC(),
		MemoryType:      domain.MemoryTypeShortTerm,
		Confidence:      0,
		ValidationCount: 0,
		Tags:            tags,
		Metadata:        map[string]any{},
	}

	if err := s.write(ctx, ShortTermPrefix+item.ID, item, o.ttl); err != nil {
		metrics.MemoryOperations.WithLabelValues("add", "error").Inc()
		return item, fmt.Errorf("store short-term memory %s: %w", item.ID, err)
	}
	metrics.MemoryOperations.WithLabelValues("add", "ok").Inc()
	return item, nil
}

// MoveToCore promotes item to the core tier. It uses the store's atomic move
// when there is one; otherwise the delete and the write are independent and
// a crash between them loses the record, while concurrent promotions of the
// same record can race. Returns false on any store error.
func (s *KnowledgeService) MoveToCore(ctx context.Context, item *domain.MemoryItem) bool {
	prev := item.MemoryType
	item.MemoryType = domain.MemoryTypeCore

	fromKey := ShortTermPrefix + item.ID
	toKey := CorePrefix + item.ID

	payload, err := json.Marshal(item)
	if err != nil {
		item.MemoryType = prev
		s.logger.Error("failed to encode memory for promotion", zap.String("memory_id", item.ID), zap.Error(err))
		return false
	}

	if mover, ok := s.kv.(domain.AtomicMover); ok {
		err = mover.Move(ctx, fromKey, toKey, payload)
	} else {
		err = s.kv.Delete(ctx, fromKey)
		if err == nil {
			err = s.kv.Set(ctx, toKey, payload, 0)
		}
	}
	if err != nil {
		item.MemoryType = prev
		metrics.MemoryOperations.WithLabelValues("promote", "error").Inc()
		s.logger.Error("error moving memory to core", zap.String("memory_id", item.ID), zap.Error(err))
		return false
	}

	if s.index != nil {
		s.index.remove(fromKey)
		s.index.put(toKey, item.Tags)
	}
	metrics.MemoryOperations.WithLabelValues("promote", "ok").Inc()
	metrics.MemoryPromotions.Inc()
	s.logger.Info("memory promoted to core", zap.String("memory_id", item.ID), zap.String("source", item.Source))
	return true
}

// Revise re-stores item under its id in its current tier. Short-term records
// get a fresh TTL.
func (s *KnowledgeService) Revise(ctx context.Context, item *domain.MemoryItem) error {
	key, ttl := ShortTermPrefix+item.ID, s.shortTermTTL
	if item.IsCore() {
		key, ttl = CorePrefix+item.ID, 0
	}
	if err := s.write(ctx, key, item, ttl); err != nil {
		metrics.MemoryOperations.WithLabelValues("revise", "error").Inc()
		return fmt.Errorf("revise memory %s: %w", item.ID, err)
	}
	metrics.MemoryOperations.WithLabelValues("revise", "ok").Inc()
	return nil
}

// RetrieveMemory returns up to limit records matching query, scanning the
// short-term tier before the core tier. Every (key, value) in query must
// match: the record must have the key, a list value must share at least one
// element with the record's field, any other value must equal it. Keys may
// use dots to reach into nested fields, e.g. "content.type".
func (s *KnowledgeService) RetrieveMemory(ctx context.Context, query map[string]any, memoryType string, limit int) ([]domain.MemoryItem, error) {
	if memoryType == "" {
		memoryType = string(domain.MemoryTypeAll)
	}
	if !domain.ValidMemorySelector(memoryType) {
		return nil, fmt.Errorf("%w: unknown memory type %q", domain.ErrValidation, memoryType)
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	q, err := normalizeQuery(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var prefixes []string
	if memoryType == string(domain.MemoryTypeAll) || memoryType == string(domain.MemoryTypeShortTerm) {
		prefixes = append(prefixes, ShortTermPrefix)
	}
	if memoryType == string(domain.MemoryTypeAll) || memoryType == string(domain.MemoryTypeCore) {
		prefixes = append(prefixes, CorePrefix)
	}

	tags, tagOnly := tagOnlyQuery(q)
	useIndex := s.index != nil && tagOnly

	var out []domain.MemoryItem
	for _, prefix := range prefixes {
		var keys []string
		if useIndex {
			keys = s.index.lookup(prefix, tags)
		} else {
			keys, err = s.kv.Scan(ctx, prefix)
			if err != nil {
				metrics.MemoryOperations.WithLabelValues("retrieve", "error").Inc()
				return nil, fmt.Errorf("scan %s: %w", prefix, err)
			}
		}

		for _, key := range keys {
			item, record, err := s.load(ctx, key)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					if s.index != nil {
						s.index.remove(key)
					}
					continue
				}
				s.logger.Warn("skipping unreadable memory", zap.String("key", key), zap.Error(err))
				continue
			}
			if !matchesQuery(record, q) {
				continue
			}
			out = append(out, *item)
			if len(out) >= limit {
				metrics.MemoryOperations.WithLabelValues("retrieve", "ok").Inc()
				return out, nil
			}
		}
	}
	metrics.MemoryOperations.WithLabelValues("retrieve", "ok").Inc()
	return out, nil
}

// Forget deletes the record from both tiers.
func (s *KnowledgeService) Forget(ctx context.Context, id string) error {
	for _, key := range []string{ShortTermPrefix + id, CorePrefix + id} {
		if err := s.kv.Delete(ctx, key); err != nil {
			metrics.MemoryOperations.WithLabelValues("forget", "error").Inc()
			return fmt.Errorf("forget %s: %w", key, err)
		}
		if s.index != nil {
			s.index.remove(key)
		}
	}
	metrics.MemoryOperations.WithLabelValues("forget", "ok").Inc()
	return nil
}

func (s *KnowledgeService) write(ctx context.Context, key string, item *domain.MemoryItem, ttl time.Duration) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode memory: %w", err)
	}
	if err := s.kv.Set(ctx, key, payload, ttl); err != nil {
		return err
	}
	if s.index != nil {
		s.index.put(key, item.Tags)
	}
	return nil
}

// load returns the decoded item and its generic form used for matching.
func (s *KnowledgeService) load(ctx context.Context, key string) (*domain.MemoryItem, map[string]any, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, nil, fmt.Errorf("decode memory record: %w", err)
	}
	var item domain.MemoryItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, nil, fmt.Errorf("decode memory item: %w", err)
	}
	return &item, record, nil
}

// normalizeQuery puts query values into their JSON-decoded shape so they
// compare equal to stored fields.
func normalizeQuery(query map[string]any) (map[string]any, error) {
	if len(query) == 0 {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode query: %w", err)
	}
	return out, nil
}

func matchesQuery(record, query map[string]any) bool {
	for key, want := range query {
		got, ok := lookupField(record, key)
		if !ok {
			return false
		}
		if wantList, isList := want.([]any); isList {
			if !overlaps(got, wantList) {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// overlaps reports whether got shares an element with want. A scalar field
// overlaps when it equals one of the wanted values.
func overlaps(got any, want []any) bool {
	gotList, ok := got.([]any)
	if !ok {
		return lo.ContainsBy(want, func(w any) bool { return reflect.DeepEqual(w, got) })
	}
	return lo.SomeBy(want, func(w any) bool {
		return lo.ContainsBy(gotList, func(g any) bool { return reflect.DeepEqual(w, g) })
	})
}

// lookupField resolves key in record, walking nested maps on dots when the
// literal key is absent.
func lookupField(record map[string]any, key string) (any, bool) {
	if v, ok := record[key]; ok {
		return v, true
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}
	var cur any = record
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// tagOnlyQuery reports whether the query filters on a tag list and nothing else.
func tagOnlyQuery(query map[string]any) ([]string, bool) {
	if len(query) != 1 {
		return nil, false
	}
	list, ok := query["tags"].([]any)
	if !ok {
		return nil, false
	}
	tags := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		tags = append(tags, s)
	}
	return tags, true
}

// contentMap renders v as a JSON-shaped map for record content.
func contentMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

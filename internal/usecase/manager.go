package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"vendorrag/internal/adapter/memstore"
	"vendorrag/internal/adapter/retriever"
	"vendorrag/internal/domain"
	"vendorrag/internal/logging"
	"vendorrag/internal/port"
)

// RebuildMode selects how much of a vendor's document set is re-embedded.
type RebuildMode int

const (
	// RebuildIncremental reuses persisted chunks and embeddings wherever the
	// ReindexDecider allows it.
	RebuildIncremental RebuildMode = iota
	// RebuildFull re-chunks and re-embeds every active document.
	RebuildFull
)

func (m RebuildMode) String() string {
	switch m {
	case RebuildIncremental:
		return "incremental"
	case RebuildFull:
		return "full"
	default:
		return fmt.Sprintf("RebuildMode(%d)", int(m))
	}
}

const DefaultEmbedConcurrency = 4

// ManagerOptions configures an IndexManager. Zero values select defaults.
type ManagerOptions struct {
	Registry         *IndexRegistry
	ReindexTolerance time.Duration
	EmbedConcurrency int

	// QueryEmbedder embeds search queries. It must produce vectors compatible
	// with the document embedder; typically a cache around it.
	QueryEmbedder port.Embedder

	Logger *slog.Logger

	// OnDocumentIndexed is called after each stale document has been embedded
	// and written back. It may be called from several goroutines.
	OnDocumentIndexed func(vendorID, documentID string)

	Now func() time.Time
}

// SearchOptions scopes a query to a single vendor.
type SearchOptions struct {
	VendorID string
	Limit    int
	// MinSimilarity of zero selects the default; negative disables the threshold.
	MinSimilarity float64
}

// IndexManager owns the per-vendor in-memory indexes. It loads them lazily from
// the document store, re-embeds only stale documents and serves searches.
type IndexManager struct {
	store         port.DocumentStore
	embedder      port.Embedder
	queryEmbedder port.Embedder
	chunker       port.Chunker
	ranker        *retriever.SimilarityRanker
	decider       ReindexDecider
	registry      *IndexRegistry
	concurrency   int
	logger        *slog.Logger
	onIndexed     func(vendorID, documentID string)
	now           func() time.Time

	loads singleflight.Group
}

func NewIndexManager(store port.DocumentStore, embedder port.Embedder, chunker port.Chunker, opts ManagerOptions) *IndexManager {
	m := &IndexManager{
		store:         store,
		embedder:      embedder,
		queryEmbedder: opts.QueryEmbedder,
		chunker:       chunker,
		ranker:        retriever.NewSimilarityRanker(),
		decider:       NewReindexDecider(opts.ReindexTolerance),
		registry:      opts.Registry,
		concurrency:   opts.EmbedConcurrency,
		logger:        opts.Logger,
		onIndexed:     opts.OnDocumentIndexed,
		now:           opts.Now,
	}
	if m.queryEmbedder == nil {
		m.queryEmbedder = embedder
	}
	if m.concurrency <= 0 {
		m.concurrency = DefaultEmbedConcurrency
	}
	if m.logger == nil {
		m.logger = logging.Discard()
	}
	if m.registry == nil {
		m.registry = NewIndexRegistry(0, func(vendorID string) {
			m.logger.Debug("vendor index evicted", "vendor", vendorID)
		})
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Registry exposes the registry holding the published vendor indexes.
func (m *IndexManager) Registry() *IndexRegistry {
	return m.registry
}

type loadResult struct {
	index     *memstore.VendorIndex
	reindexed int
}

// EnsureLoaded returns the vendor's index, building it when needed. In
// incremental mode an already loaded index is returned without touching the
// store or the embedder.
func (m *IndexManager) EnsureLoaded(ctx context.Context, vendorID string, mode RebuildMode) (*memstore.VendorIndex, error) {
	if err := validateVendor(vendorID); err != nil {
		return nil, err
	}
	if mode == RebuildIncremental {
		if idx, ok := m.registry.Get(vendorID); ok && idx.Loaded() {
			return idx, nil
		}
	}

	res, err := m.load(ctx, vendorID, mode, false)
	if err != nil {
		return nil, err
	}
	return res.index, nil
}

// Refresh merges the vendor's current active documents into a copy of its
// index and publishes the copy. Documents that are no longer active are
// dropped. Without a loaded index it behaves like an incremental load.
func (m *IndexManager) Refresh(ctx context.Context, vendorID string) (*memstore.VendorIndex, error) {
	if err := validateVendor(vendorID); err != nil {
		return nil, err
	}
	res, err := m.load(ctx, vendorID, RebuildIncremental, true)
	if err != nil {
		return nil, err
	}
	return res.index, nil
}

// Rebuild re-chunks and re-embeds every active document of the vendor and
// replaces its index.
func (m *IndexManager) Rebuild(ctx context.Context, vendorID string) (domain.RebuildResult, error) {
	if err := validateVendor(vendorID); err != nil {
		return domain.RebuildResult{}, err
	}
	res, err := m.load(ctx, vendorID, RebuildFull, false)
	if err != nil {
		return domain.RebuildResult{}, err
	}
	return domain.RebuildResult{
		DocumentsIndexed:   res.index.DocumentCount(),
		ChunksIndexed:      res.index.ChunkCount(),
		DocumentsReindexed: res.reindexed,
	}, nil
}

// Search returns the documents of one vendor most similar to query, one
// result per document.
func (m *IndexManager) Search(ctx context.Context, query string, opts SearchOptions) ([]domain.DocumentResult, error) {
	idx, err := m.EnsureLoaded(ctx, opts.VendorID, RebuildIncremental)
	if err != nil {
		return nil, err
	}

	if idx.EmbeddingCount() == 0 {
		m.logger.Debug("vendor index empty", "vendor", opts.VendorID)
		return []domain.DocumentResult{}, nil
	}
	if strings.TrimSpace(query) == "" {
		return []domain.DocumentResult{}, nil
	}

	vec, err := m.queryEmbedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", classify(domain.ErrEmbeddingFailure, err))
	}
	if vec.IsEmpty() || !vec.IsFinite() {
		return nil, fmt.Errorf("%w: malformed query embedding", domain.ErrEmbeddingFailure)
	}

	results, err := m.ranker.Rank(vec, idx, retriever.RankOptions{
		MinSimilarity: opts.MinSimilarity,
		Limit:         opts.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rank vendor %s: %w", opts.VendorID, err)
	}
	return results, nil
}

// GetStats reports on the vendor's current index. Unknown vendors yield the
// zero value.
func (m *IndexManager) GetStats(vendorID string) domain.IndexStats {
	idx, ok := m.registry.Get(vendorID)
	if !ok {
		return domain.IndexStats{}
	}
	return idx.Stats()
}

// PersistedStats reports on the vendor's active documents as stored, without
// loading or embedding anything. Only chunks with an embedding are counted.
func (m *IndexManager) PersistedStats(ctx context.Context, vendorID string) (domain.IndexStats, error) {
	if err := validateVendor(vendorID); err != nil {
		return domain.IndexStats{}, err
	}
	active := true
	docs, err := m.store.FindAll(ctx, domain.DocumentFilter{IsActive: &active, VendorID: vendorID})
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("failed to load documents for vendor %s: %w", vendorID, classify(domain.ErrStoreUnavailable, err))
	}

	var stats domain.IndexStats
	stats.TotalDocuments = len(docs)
	for _, doc := range docs {
		for _, c := range doc.Chunks {
			if !c.Embedding.IsEmpty() {
				stats.IndexedChunks++
			}
		}
		if doc.LastIndexed != nil && doc.LastIndexed.After(stats.LastUpdate) {
			stats.LastUpdate = *doc.LastIndexed
		}
	}
	return stats, nil
}

// Evict drops the vendor's index; the next search rebuilds it from the store.
func (m *IndexManager) Evict(vendorID string) {
	m.registry.Remove(vendorID)
}

func validateVendor(vendorID string) error {
	if strings.TrimSpace(vendorID) == "" {
		return fmt.Errorf("%w: vendor id is required", domain.ErrInvalidInput)
	}
	return nil
}

// load coalesces concurrent loads of the same vendor and mode. The shared
// call runs with the context of the caller that started it.
func (m *IndexManager) load(ctx context.Context, vendorID string, mode RebuildMode, merge bool) (*loadResult, error) {
	key := mode.String() + "\x00" + vendorID
	if merge {
		key = "refresh\x00" + vendorID
	}

	flight := func() (any, error) {
		var base *memstore.VendorIndex
		switch {
		case merge:
			if idx, ok := m.registry.Get(vendorID); ok && idx.Loaded() {
				base = idx
			}
		case mode == RebuildIncremental:
			// A flight that finished between the caller's check and Do.
			if idx, ok := m.registry.Get(vendorID); ok && idx.Loaded() {
				return &loadResult{index: idx}, nil
			}
		}
		return m.build(ctx, vendorID, mode, base)
	}

	for {
		v, err, shared := m.loads.Do(key, flight)
		if err == nil {
			return v.(*loadResult), nil
		}
		// A joined flight that was canceled by another caller is retried
		// while this caller's own context is live.
		if shared && isContextError(err) && ctx.Err() == nil {
			m.logger.Debug("retrying canceled vendor load", "vendor", vendorID, "mode", mode.String())
			continue
		}
		return nil, err
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// classify tags err with kind unless it only reports an ended context.
func classify(kind, err error) error {
	if isContextError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// build assembles a new index from the store and publishes it. When base is
// non-nil the new index starts as a copy of base. Nothing is published on
// error.
func (m *IndexManager) build(ctx context.Context, vendorID string, mode RebuildMode, base *memstore.VendorIndex) (*loadResult, error) {
	start := m.now()
	active := true

	docs, err := m.store.FindAll(ctx, domain.DocumentFilter{IsActive: &active, VendorID: vendorID})
	if err != nil {
		return nil, fmt.Errorf("failed to load documents for vendor %s: %w", vendorID, classify(domain.ErrStoreUnavailable, err))
	}

	var stale []domain.Document
	for _, doc := range docs {
		if mode == RebuildFull || m.decider.NeedsReindex(doc) {
			stale = append(stale, doc)
		}
	}

	reindexed, err := m.reindexDocuments(ctx, vendorID, stale)
	if err != nil {
		m.logger.Warn("vendor index load failed",
			"vendor", vendorID,
			"mode", mode.String(),
			"error", err,
		)
		return nil, err
	}

	var idx *memstore.VendorIndex
	if base != nil {
		idx = base.Clone()
	} else {
		idx = memstore.NewVendorIndex(vendorID)
	}

	present := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		present[doc.ID] = struct{}{}
		if updated, ok := reindexed[doc.ID]; ok {
			doc = updated
		}
		if err := idx.AddDocument(doc); err != nil {
			return nil, fmt.Errorf("failed to index document %s: %w", doc.ID, err)
		}
	}
	for _, id := range idx.DocumentIDs() {
		if _, ok := present[id]; !ok {
			idx.RemoveDocument(id)
		}
	}

	idx.MarkLoaded(m.now())
	m.registry.Publish(idx)

	if idx.EmbeddingCount() == 0 {
		m.logger.Debug("vendor index empty", "vendor", vendorID)
	}
	m.logger.Info("vendor index ready",
		"vendor", vendorID,
		"mode", mode.String(),
		"documents", idx.DocumentCount(),
		"chunks", idx.ChunkCount(),
		"reindexed", len(reindexed),
		"duration", m.now().Sub(start),
	)

	return &loadResult{index: idx, reindexed: len(reindexed)}, nil
}

// reindexDocuments chunks, embeds and writes back the given documents with
// bounded concurrency. The first failure cancels the rest.
func (m *IndexManager) reindexDocuments(ctx context.Context, vendorID string, docs []domain.Document) (map[string]domain.Document, error) {
	out := make([]domain.Document, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			indexed, err := m.reindexDocument(gctx, doc)
			if err != nil {
				return err
			}
			out[i] = indexed
			if m.onIndexed != nil {
				m.onIndexed(vendorID, doc.ID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Document, len(out))
	for _, doc := range out {
		byID[doc.ID] = doc
	}
	return byID, nil
}

func (m *IndexManager) reindexDocument(ctx context.Context, doc domain.Document) (domain.Document, error) {
	segments := m.chunker.Chunk(doc.Content)

	chunks := make([]domain.Chunk, 0, len(segments))
	for _, seg := range segments {
		vec, err := m.embedder.Embed(ctx, seg.Content)
		if err != nil {
			return domain.Document{}, fmt.Errorf("failed to embed chunk %d of document %s: %w", seg.Ordinal, doc.ID, classify(domain.ErrEmbeddingFailure, err))
		}
		if vec.IsEmpty() || !vec.IsFinite() {
			return domain.Document{}, fmt.Errorf("%w: malformed vector for chunk %d of document %s", domain.ErrEmbeddingFailure, seg.Ordinal, doc.ID)
		}
		if len(chunks) > 0 && vec.Dim() != chunks[0].Embedding.Dim() {
			return domain.Document{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailure, &domain.DimensionMismatchError{
				Expected: chunks[0].Embedding.Dim(),
				Got:      vec.Dim(),
				ChunkID:  domain.ChunkID(doc.ID, seg.Ordinal),
			})
		}

		chunks = append(chunks, domain.Chunk{
			ID:            domain.ChunkID(doc.ID, seg.Ordinal),
			Content:       seg.Content,
			Embedding:     vec,
			DocumentID:    doc.ID,
			DocumentTitle: doc.Title,
			Ordinal:       seg.Ordinal,
			Metadata: domain.ChunkMetadata{
				Type:        doc.Type,
				Category:    doc.Category,
				StartOffset: seg.StartOffset,
				EndOffset:   seg.EndOffset,
			},
		})
	}

	indexedAt := m.now()
	updated, err := m.store.Update(ctx, doc.ID, domain.DocumentUpdate{Chunks: chunks, LastIndexed: indexedAt})
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to write back document %s: %w", doc.ID, classify(domain.ErrStoreUnavailable, err))
	}
	if updated == nil {
		m.logger.Warn("document disappeared during reindex", "vendor", doc.VendorID, "document", doc.ID)
	}

	doc.Chunks = chunks
	doc.LastIndexed = &indexedAt
	return doc, nil
}

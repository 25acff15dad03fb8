package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"vendorrag/internal/adapter/fs"
	"vendorrag/internal/domain"
	"vendorrag/internal/logging"
	"vendorrag/internal/port"
)

// documentNamespace seeds the name-based ids of imported files.
var documentNamespace = uuid.MustParse("6f1c7a52-3f7e-4b8e-9a43-2d0e5c1b8f10")

// ImportUseCase turns a directory of text files into vendor documents.
type ImportUseCase struct {
	store  port.DocumentRepository
	walker *fs.Walker
	logger *slog.Logger
	now    func() time.Time
}

func NewImportUseCase(store port.DocumentRepository, walker *fs.Walker, logger *slog.Logger) *ImportUseCase {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ImportUseCase{
		store:  store,
		walker: walker,
		logger: logger,
		now:    time.Now,
	}
}

// ImportResult contains the results of an import.
type ImportResult struct {
	FilesImported      int
	FilesSkipped       int
	FilesDeactivated   int
	DocumentsActivated int
	Errors             []string
}

// DocumentID returns the stable id of a file imported for a vendor.
func DocumentID(vendorID, relPath string) string {
	return uuid.NewSHA1(documentNamespace, []byte(vendorID+"/"+relPath)).String()
}

// Import walks root and upserts one document per file. Unchanged files are
// skipped so their persisted chunks stay valid. Documents whose file is gone
// are deactivated, never deleted.
func (u *ImportUseCase) Import(ctx context.Context, vendorID, root string) (*ImportResult, error) {
	if err := validateVendor(vendorID); err != nil {
		return nil, err
	}

	files, err := u.walker.Walk(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	existingDocs, err := u.store.FindAll(ctx, domain.DocumentFilter{VendorID: vendorID})
	if err != nil {
		return nil, fmt.Errorf("failed to list existing documents: %w", classify(domain.ErrStoreUnavailable, err))
	}
	existing := make(map[string]domain.Document, len(existingDocs))
	for _, doc := range existingDocs {
		existing[doc.ID] = doc
	}

	result := &ImportResult{}
	seen := make(map[string]bool, len(files))

	for _, file := range files {
		id := DocumentID(vendorID, file.RelPath)
		seen[id] = true

		content, err := fs.ReadText(file.Path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to read %s: %v", file.RelPath, err))
			continue
		}

		doc := documentFromFile(vendorID, id, file, content)
		if prev, ok := existing[id]; ok {
			unchanged := prev.Content == doc.Content && prev.Title == doc.Title
			if unchanged && prev.IsActive {
				result.FilesSkipped++
				continue
			}
			// Persisted chunks are kept; a newer UpdatedAt marks them stale.
			doc.Chunks = prev.Chunks
			doc.LastIndexed = prev.LastIndexed
			if unchanged {
				doc.UpdatedAt = prev.UpdatedAt
				result.DocumentsActivated++
			} else {
				doc.UpdatedAt = u.now().UTC()
			}
		}

		if err := u.store.Put(ctx, doc); err != nil {
			return result, fmt.Errorf("failed to store document %s: %w", file.RelPath, classify(domain.ErrStoreUnavailable, err))
		}
		result.FilesImported++
	}

	for id, doc := range existing {
		if seen[id] || !doc.IsActive {
			continue
		}
		doc.IsActive = false
		if err := u.store.Put(ctx, doc); err != nil {
			return result, fmt.Errorf("failed to deactivate document %s: %w", id, classify(domain.ErrStoreUnavailable, err))
		}
		result.FilesDeactivated++
	}

	u.logger.Info("documents imported",
		"vendor", vendorID,
		"imported", result.FilesImported,
		"skipped", result.FilesSkipped,
		"deactivated", result.FilesDeactivated,
	)
	return result, nil
}

func documentFromFile(vendorID, id string, file fs.FileInfo, content string) domain.Document {
	base := path.Base(file.RelPath)
	ext := path.Ext(base)

	category := path.Dir(file.RelPath)
	if category == "." {
		category = ""
	}

	return domain.Document{
		ID:        id,
		VendorID:  vendorID,
		Title:     strings.TrimSuffix(base, ext),
		Type:      detectType(ext),
		Category:  category,
		Content:   content,
		Metadata:  map[string]string{"path": file.RelPath},
		UpdatedAt: file.ModTime.UTC(),
		IsActive:  true,
	}
}

// detectType maps a file extension to a document type.
func detectType(ext string) string {
	switch strings.ToLower(ext) {
	case ".md", ".markdown":
		return "markdown"
	case ".txt":
		return "text"
	case ".html", ".htm":
		return "html"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".csv":
		return "csv"
	default:
		return "unknown"
	}
}

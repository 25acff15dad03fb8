package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"vendorrag/internal/domain"
)

var (
	bucketDocuments  = []byte("documents")
	bucketVendorDocs = []byte("vendor_docs")
	bucketMeta       = []byte("meta")
)

// BoltStore is a document store backed by a single bbolt file. Documents are
// stored as JSON, chunk embeddings included, so a restarted process can
// reuse them without re-embedding.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocuments, bucketVendorDocs, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// vendorKey orders a vendor's document ids contiguously for prefix scans.
func vendorKey(vendorID, docID string) []byte {
	return []byte(vendorID + "\x00" + docID)
}

func vendorPrefix(vendorID string) []byte {
	return []byte(vendorID + "\x00")
}

// Put creates or replaces a document. A zero UpdatedAt is set to now.
func (s *BoltStore) Put(ctx context.Context, doc domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocuments)
		vendorDocs := tx.Bucket(bucketVendorDocs)

		if existing := docs.Get([]byte(doc.ID)); existing != nil {
			var old domain.Document
			if err := json.Unmarshal(existing, &old); err != nil {
				return fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
			}
			if old.VendorID != doc.VendorID {
				if err := vendorDocs.Delete(vendorKey(old.VendorID, doc.ID)); err != nil {
					return err
				}
			}
		}

		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if err := docs.Put([]byte(doc.ID), data); err != nil {
			return err
		}
		return vendorDocs.Put(vendorKey(doc.VendorID, doc.ID), nil)
	})
}

// Get returns the document with the given id, or nil if it does not exist.
func (s *BoltStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc *domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocuments).Get([]byte(id))
		if data == nil {
			return nil
		}
		doc = &domain.Document{}
		return json.Unmarshal(data, doc)
	})
	return doc, err
}

func (s *BoltStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocuments)
		data := docs.Get([]byte(id))
		if data == nil {
			return nil
		}
		var doc domain.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to decode document %s: %w", id, err)
		}
		if err := tx.Bucket(bucketVendorDocs).Delete(vendorKey(doc.VendorID, id)); err != nil {
			return err
		}
		return docs.Delete([]byte(id))
	})
}

func (s *BoltStore) FindAll(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocuments)

		collect := func(data []byte) error {
			var doc domain.Document
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("failed to decode document: %w", err)
			}
			if filter.IsActive != nil && doc.IsActive != *filter.IsActive {
				return nil
			}
			if filter.VendorID != "" && doc.VendorID != filter.VendorID {
				return nil
			}
			result = append(result, doc)
			return nil
		}

		if filter.VendorID == "" {
			return docs.ForEach(func(k, v []byte) error {
				return collect(v)
			})
		}

		prefix := vendorPrefix(filter.VendorID)
		c := tx.Bucket(bucketVendorDocs).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			data := docs.Get(k[len(prefix):])
			if data == nil {
				continue
			}
			if err := collect(data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *BoltStore) Update(ctx context.Context, id string, update domain.DocumentUpdate) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc *domain.Document
	err := s.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocuments)
		data := docs.Get([]byte(id))
		if data == nil {
			return nil
		}

		doc = &domain.Document{}
		if err := json.Unmarshal(data, doc); err != nil {
			return fmt.Errorf("failed to decode document %s: %w", id, err)
		}
		lastIndexed := update.LastIndexed
		doc.Chunks = update.Chunks
		doc.LastIndexed = &lastIndexed

		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		return docs.Put([]byte(id), data)
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

package store

import (
	"feedcache/pkg/models"
	"feedcache/pkg/state/logger"
	"feedcache/pkg/store/keys"
	"feedcache/pkg/store/pagination"
	"feedcache/pkg/telemetry"
)

// SetAuthor records pk as a known author. Repeated calls are no-ops.
func (s *Store) SetAuthor(pk models.PublicKey) error {
	return s.SetAuthors([]models.PublicKey{pk})
}

// SetAuthors records every key in one atomic batch.
func (s *Store) SetAuthors(list []models.PublicKey) error {
	tr := telemetry.Track("store.set_authors")
	defer tr.Finish()

	b, err := s.db.NewBatch()
	if err != nil {
		return err
	}
	defer b.Close()
	for _, pk := range list {
		if err := b.Set(s.authors, keys.GenPublicKeyKey(pk), nil); err != nil {
			return err
		}
	}
	return b.Commit()
}

// GetAuthors returns every known author in engine order.
func (s *Store) GetAuthors() ([]models.PublicKey, error) {
	tr := telemetry.Track("store.get_authors")
	defer tr.Finish()

	var out []models.PublicKey
	err := s.authors.Scan(nil, pagination.Forward, func(k, _ []byte) bool {
		pk, err := keys.ParsePublicKeyKey(k)
		if err != nil {
			logger.Debug("author_key_invalid", "error", err)
			return true
		}
		out = append(out, pk)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

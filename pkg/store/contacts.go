package store

import (
	"feedcache/pkg/models"
	"feedcache/pkg/state/logger"
	"feedcache/pkg/store/codec"
	"feedcache/pkg/store/keys"
	"feedcache/pkg/store/pagination"
	"feedcache/pkg/telemetry"
)

// SetContacts overwrites each contact by key in one atomic batch. Contacts
// missing from list are left in place.
func (s *Store) SetContacts(list []models.Contact) error {
	tr := telemetry.Track("store.set_contacts")
	defer tr.Finish()

	b, err := s.db.NewBatch()
	if err != nil {
		return err
	}
	defer b.Close()
	for _, c := range list {
		raw, err := codec.Marshal(c)
		if err != nil {
			return err
		}
		if err := b.Set(s.contacts, keys.GenPublicKeyKey(c.PublicKey), raw); err != nil {
			return err
		}
	}
	tr.Mark("stage")
	return b.Commit()
}

// GetContacts returns every stored contact sorted by key, relay and alias.
// The first undecodable row fails the read.
func (s *Store) GetContacts() ([]models.Contact, error) {
	tr := telemetry.Track("store.get_contacts")
	defer tr.Finish()

	var (
		out    []models.Contact
		decErr error
	)
	err := s.contacts.Scan(nil, pagination.Forward, func(k, v []byte) bool {
		var c models.Contact
		if err := codec.Unmarshal(v, &c); err != nil {
			logger.Error("contact_decode_failed", "key", k, "error", err)
			decErr = err
			return false
		}
		out = append(out, c)
		return true
	})
	if err != nil {
		return nil, err
	}
	if decErr != nil {
		return nil, decErr
	}
	models.SortContacts(out)
	return out, nil
}

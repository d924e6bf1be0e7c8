package store

import (
	"feedcache/pkg/models"
	"feedcache/pkg/store/keys"
	"feedcache/pkg/telemetry"
)

// SetProfile replaces whatever profile pk had. Fields are never merged.
func (s *Store) SetProfile(pk models.PublicKey, p models.Profile) error {
	tr := telemetry.Track("store.set_profile")
	defer tr.Finish()

	s.profileMu.Lock()
	defer s.profileMu.Unlock()
	if err := s.put(s.profiles, keys.GenPublicKeyKey(pk), p); err != nil {
		return err
	}
	if s.profileCache != nil {
		s.profileCache.Add(pk, p)
	}
	return nil
}

// GetProfile returns ErrNotFound for unknown keys and ErrDecode for corrupt rows.
func (s *Store) GetProfile(pk models.PublicKey) (models.Profile, error) {
	tr := telemetry.Track("store.get_profile")
	defer tr.Finish()

	if s.profileCache == nil {
		var p models.Profile
		err := s.get(s.profiles, keys.GenPublicKeyKey(pk), &p)
		return p, err
	}
	if p, ok := s.profileCache.Get(pk); ok {
		s.metrics.profileCacheHits.Inc()
		return p, nil
	}
	s.metrics.profileCacheMisses.Inc()

	// fill under the writer lock so a concurrent SetProfile cannot be
	// overtaken by an older value
	s.profileMu.Lock()
	defer s.profileMu.Unlock()
	var p models.Profile
	if err := s.get(s.profiles, keys.GenPublicKeyKey(pk), &p); err != nil {
		return models.Profile{}, err
	}
	s.profileCache.Add(pk, p)
	return p, nil
}

package store

import (
	"feedcache/pkg/models"
	"feedcache/pkg/state/logger"
	"feedcache/pkg/store/codec"
	"feedcache/pkg/store/keys"
	"feedcache/pkg/store/pagination"
	"feedcache/pkg/telemetry"
)

// SetTextNote stores note under the id prefix and indexes it by timestamp.
// Both puts are independently first-write-wins: an existing post keeps its
// record, and an occupied timestamp slot keeps pointing at the earlier post.
// Whatever was staged commits as one batch.
func (s *Store) SetTextNote(id models.EventID, note models.TextNote) error {
	tr := telemetry.Track("store.set_text_note")
	defer tr.Finish()

	tsKey := keys.GenTimestampKey(note.Timestamp)
	prefix := keys.GenIDPrefix(id)
	raw, err := codec.Marshal(note)
	if err != nil {
		return err
	}

	b, err := s.db.NewBatch()
	if err != nil {
		return err
	}
	defer b.Close()

	indexed, err := s.index.Has(tsKey)
	if err != nil {
		return err
	}
	if !indexed {
		if err := b.Set(s.index, tsKey, prefix); err != nil {
			return err
		}
	} else {
		s.metrics.insertSkipped.WithLabelValues(keys.TextNoteByTimestamp).Inc()
		logger.Debug("textnote_timestamp_taken", "ts", note.Timestamp, "id", id.String())
	}

	stored, err := s.notes.Has(prefix)
	if err != nil {
		return err
	}
	if !stored {
		if err := b.Set(s.notes, prefix, raw); err != nil {
			return err
		}
	} else {
		s.metrics.insertSkipped.WithLabelValues(keys.TextNote).Inc()
	}
	tr.Mark("probe")

	return b.Commit()
}

// GetTextNote looks a post up by the prefix of id.
func (s *Store) GetTextNote(id models.EventID) (models.TextNote, error) {
	tr := telemetry.Track("store.get_text_note")
	defer tr.Finish()

	var note models.TextNote
	if err := s.get(s.notes, keys.GenIDPrefix(id), &note); err != nil {
		return models.TextNote{}, err
	}
	return note, nil
}

// GetTextNotesWithLimit returns up to limit posts, newest first.
func (s *Store) GetTextNotesWithLimit(limit int) ([]models.TextNote, error) {
	return s.rangeNotes("store.get_text_notes_with_limit", nil, pagination.Backward, 0, limit)
}

// GetTextNotesFromTimestamp returns up to limit posts starting at ts. Forward
// yields timestamps >= ts ascending, Backward timestamps <= ts descending.
func (s *Store) GetTextNotesFromTimestamp(ts uint64, dir pagination.Direction, limit int) ([]models.TextNote, error) {
	return s.rangeNotes("store.get_text_notes_from_timestamp", keys.GenTimestampKey(ts), dir, 0, limit)
}

// GetFeed returns page (0-based) of the newest-first feed, limit posts per page.
func (s *Store) GetFeed(limit, page int) ([]models.TextNote, error) {
	return s.rangeNotes("store.get_feed", nil, pagination.Backward, pagination.Offset(limit, page), limit)
}

// rangeNotes walks the timestamp index, skipping skip entries, and resolves
// the collected pointers against the post table from one snapshot. Pointers
// that are malformed, dangling or undecodable are dropped.
func (s *Store) rangeNotes(op string, start []byte, dir pagination.Direction, skip, limit int) ([]models.TextNote, error) {
	tr := telemetry.Track(op)
	defer tr.Finish()

	limit = pagination.ClampLimit(limit)
	if limit == 0 {
		return []models.TextNote{}, nil
	}

	pointers := make([][]byte, 0, limit)
	err := s.index.Scan(start, dir, func(k, v []byte) bool {
		if skip > 0 {
			skip--
			return true
		}
		if err := keys.ValidateIDPrefix(v); err != nil {
			s.dropped("bad_pointer", k, err)
		} else {
			pointers = append(pointers, v)
		}
		return len(pointers) < limit
	})
	if err != nil {
		return nil, err
	}
	tr.Mark("scan")

	values, err := s.notes.MultiGet(pointers)
	if err != nil {
		return nil, err
	}
	tr.Mark("resolve")

	out := make([]models.TextNote, 0, len(values))
	for i, raw := range values {
		if raw == nil {
			s.dropped("dangling", pointers[i], nil)
			continue
		}
		var note models.TextNote
		if err := codec.Unmarshal(raw, &note); err != nil {
			s.dropped("decode", pointers[i], err)
			continue
		}
		out = append(out, note)
	}
	return out, nil
}

func (s *Store) dropped(reason string, key []byte, err error) {
	s.metrics.resolveDropped.WithLabelValues(reason).Inc()
	logger.Debug("textnote_resolve_dropped", "reason", reason, "key", key, "error", err)
}

package store

import (
	"feedcache/pkg/store/keys"
)

// Stats is a point-in-time summary for inspection tools.
type Stats struct {
	Path       string
	Partitions map[string]int
	DiskBytes  uint64
	WALBytes   uint64
	L0Files    int64
}

// Stats counts every partition, including the reserved ones.
func (s *Store) Stats() (Stats, error) {
	st := Stats{Path: s.db.Path(), Partitions: make(map[string]int, len(keys.Partitions))}
	for _, name := range keys.Partitions {
		p, err := s.db.Partition(name)
		if err != nil {
			return st, err
		}
		n, err := p.Count()
		if err != nil {
			return st, err
		}
		st.Partitions[name] = n
	}
	if m := s.db.Metrics(); m != nil {
		st.DiskBytes = m.DiskSpaceUsage()
		st.WALBytes = m.WAL.Size
		st.L0Files = m.Levels[0].NumFiles
	}
	return st, nil
}

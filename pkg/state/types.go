package state

import "path/filepath"

type Paths struct {
	DB    string
	Store string // pebble engine directory
	State string
	Tel   string // telemetry traces
	Tmp   string
}

func PathsFor(dbPath string) Paths {
	statePath := filepath.Join(dbPath, "state")
	return Paths{
		DB:    dbPath,
		Store: filepath.Join(dbPath, "store"),
		State: statePath,
		Tel:   filepath.Join(statePath, "telemetry"),
		Tmp:   filepath.Join(statePath, "tmp"),
	}
}

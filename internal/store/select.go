package store

import "github.com/SamuelOrtizOspina/ALERTA-LINK/internal/logging"

// Open selects the primary SQLite implementation when databaseURL is set,
// falling back to the JSON-file store under storeDir otherwise — spec.md
// §6.3's "selection is transparent to the core".
func Open(databaseURL, storeDir string, logger logging.Logger) (Store, error) {
	if databaseURL != "" {
		return NewSQLiteStore(databaseURL, logger)
	}
	return NewJSONFileStore(storeDir, logger)
}

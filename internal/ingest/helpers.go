package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

func itoa(n int) string { return strconv.Itoa(n) }

// lockPathFor returns the cross-process ingest lock path for a database
// at dbPath: a file named after the database's hash, kept outside the
// workspace tree entirely so the lock file itself is never a scan
// candidate (unlike the database, it has no fixed name the glob resolver
// could exclude by).
func lockPathFor(dbPath string) string {
	sum := sha256.Sum256([]byte(dbPath))
	return filepath.Join(os.TempDir(), "codeindex-ingest-"+hex.EncodeToString(sum[:8])+".lock")
}

type nodeFlags struct {
	Async     bool `json:"async,omitempty"`
	Generator bool `json:"generator,omitempty"`
}

func metadataJSON(async, generator bool) []byte {
	b, err := json.Marshal(nodeFlags{Async: async, Generator: generator})
	if err != nil {
		return nil
	}
	return b
}

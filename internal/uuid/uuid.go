package uuid

import (
	"os"
	"path/filepath"
	"strings"

	guuid "github.com/google/uuid"
)

// LoadOrCreate returns the persistent instance id at path, generating and
// storing a fresh one on first run.
func LoadOrCreate(path string) (string, error) {
	if b, err := os.ReadFile(path); err == nil {
		s := strings.TrimSpace(string(b))
		if s != "" {
			if !strings.HasPrefix(s, "uuid:") {
				s = "uuid:" + s
			}
			return s, nil
		}
	}
	id := "uuid:" + guuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return id, err
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return id, err
	}
	return id, nil
}

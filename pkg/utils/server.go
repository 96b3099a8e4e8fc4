package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// GetPersistentServerID returns a stable ID for the current process host.
// Logic:
// 1. Return provided override if not empty.
// 2. Try to read from <storagePath>/.server_id
// 3. Try OS Hostname.
// 4. Generate and save a new one as fallback.
func GetPersistentServerID(override, storagePath string) string {
	if override != "" {
		return override
	}

	idFile := filepath.Join(storagePath, ".server_id")
	if data, err := os.ReadFile(idFile); err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id
		}
	}

	hostname, err := os.Hostname()
	if err == nil && hostname != "" && hostname != "localhost" {
		// Cleanup hostname to be safe for keys
		cleanHost := strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
				return r
			}
			return -1
		}, hostname)
		if cleanHost != "" {
			return "lookups-" + cleanHost
		}
	}

	newID := "lookups-" + uuid.NewString()[:8]
	_ = os.MkdirAll(storagePath, 0755)
	_ = os.WriteFile(idFile, []byte(newID), 0644)

	return newID
}

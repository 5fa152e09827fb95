package env

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Get returns the value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// Load reads .env.<profile> and then .env from dir. Variables already present in the process
// environment are never overwritten, so the profile file wins over the shared one. Missing files
// are skipped; the names of the files that were read are returned.
func Load(dir, profile string) ([]string, error) {
	candidates := []string{".env"}
	if p := strings.TrimSpace(profile); p != "" {
		candidates = append([]string{".env." + p}, candidates...)
	}

	var loaded []string
	for _, name := range candidates {
		path := name
		if dir != "" {
			path = strings.TrimSuffix(dir, string(os.PathSeparator)) + string(os.PathSeparator) + name
		}
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, err
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

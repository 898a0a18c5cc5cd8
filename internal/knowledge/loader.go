package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// PlaceholderFile is seeded into an empty corpus directory so index
// construction never fails on an empty knowledge base.
const PlaceholderFile = "placeholder.txt"

// placeholderContent mirrors the advisory domain of the service.
const placeholderContent = "This is a placeholder file. Add your financial knowledge here."

// seedLockFile guards placeholder seeding against concurrently starting
// processes sharing the same corpus directory.
const seedLockFile = ".seed.lock"

// maxDocumentSize caps the size of a single corpus file. Larger files
// are skipped with a warning instead of failing the build.
const maxDocumentSize = 512 * 1024

// loadableExtensions are the file types read into the index.
var loadableExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// EnsureCorpus makes sure dir exists and contains at least one
// loadable document, seeding PlaceholderFile when the directory is
// missing or empty. Seeding is flock-guarded so two processes starting
// against the same directory do not both write the placeholder.
func EnsureCorpus(dir string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating knowledge directory %q: %w", dir, err)
	}

	lock := flock.New(filepath.Join(dir, seedLockFile))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking knowledge directory: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("releasing knowledge directory lock", "error", err)
		}
	}()

	empty, err := corpusEmpty(dir)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}

	logger.Warn("knowledge directory is empty, seeding placeholder",
		"dir", dir, "file", PlaceholderFile)

	placeholder := filepath.Join(dir, PlaceholderFile)
	if err := os.WriteFile(placeholder, []byte(placeholderContent), 0o640); err != nil {
		return fmt.Errorf("seeding placeholder document: %w", err)
	}
	return nil
}

// corpusEmpty reports whether dir contains no loadable documents.
func corpusEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("reading knowledge directory %q: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if loadableExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			return false, nil
		}
	}
	return true, nil
}

// Load reads every loadable document under dir into the index, one
// document per file. It returns the number of documents indexed; zero
// documents after a successful EnsureCorpus is an error because the
// placeholder guarantees at least one.
func (ix *Index) Load(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading knowledge directory %q: %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !loadableExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			return loaded, fmt.Errorf("stat %q: %w", path, err)
		}
		if info.Size() > maxDocumentSize {
			ix.logger.Warn("skipping oversized document",
				"path", path, "size", info.Size(), "max", maxDocumentSize)
			continue
		}

		content, err := os.ReadFile(path) // #nosec G304 -- path is within the configured corpus dir
		if err != nil {
			return loaded, fmt.Errorf("reading %q: %w", path, err)
		}
		if len(strings.TrimSpace(string(content))) == 0 {
			continue
		}

		doc := Document{
			ID:      "file:" + entry.Name(),
			Content: string(content),
			Metadata: map[string]string{
				"source": entry.Name(),
			},
		}
		if err := ix.Add(ctx, doc); err != nil {
			return loaded, err
		}
		loaded++
	}

	if loaded == 0 {
		return 0, fmt.Errorf("no loadable documents in %q", dir)
	}

	ix.logger.Info("knowledge index built", "documents", loaded, "dir", dir)
	return loaded, nil
}

package biliupr

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// locateBinary searches the extracted tree for target, then for fallback.
// Archives are expected to hold exactly one binary; the first match wins.
func locateBinary(root, target, fallback string) (string, error) {
	for _, name := range []string{target, fallback} {
		path, err := findFile(root, name)
		if err != nil {
			return "", err
		}
		if path != "" {
			return path, nil
		}
	}

	return "", installErrorf("unable to locate extracted biliup binary in archive under %s", root)
}

// findFile returns the first regular file named name under root, or "".
func findFile(root, name string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != name {
			return nil
		}
		found = path
		return fs.SkipAll
	})
	if err != nil {
		return "", fmt.Errorf("searching %s: %w", root, err)
	}
	return found, nil
}

package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"kestrel/internal/dict"
)

// ManifestName is the project manifest; it lives next to scripts but is not one.
const ManifestName = "kestrel.toml"

// ListScripts expands paths into the scope scripts to evaluate. Directories
// are walked for *.toml files (sorted, manifest excluded); explicit files are
// kept as given. Duplicates keep their first position.
func ListScripts(paths []string) ([]string, error) {
	seen := dict.New[struct{}]()
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("scope scripts: %w", err)
		}
		if !info.IsDir() {
			seen.Put(filepath.Clean(p), struct{}{})
			continue
		}
		found, err := walkScripts(p)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			seen.Put(f, struct{}{})
		}
	}
	return seen.Keys().Items(), nil
}

// walkScripts возвращает отсортированный список *.toml файлов в директории
func walkScripts(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".toml") && d.Name() != ManifestName {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scope scripts: walk %s: %w", dir, err)
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

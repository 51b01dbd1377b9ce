package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
	maxFuzzInput = 16 << 10
)

// addScriptSeeds adds every scope script in the repository testdata trees.
func addScriptSeeds(f *testing.F) {
	roots := []string{
		filepath.Join("..", "..", "testdata"),
		filepath.Join("..", "scopescript", "testdata"),
	}
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".toml" {
				return nil
			}
			// #nosec G304 -- path comes from repository testdata walk
			src, err := os.ReadFile(path)
			if err != nil {
				return nil
			}
			f.Add(clampSeed(src))
			return nil
		})
	}
	// хотя бы минимальные примеры на случай пустого testdata
	f.Add([]byte{})
	f.Add([]byte("[[scope]]\nname = \"a\"\n"))
}

func clampSeed(src []byte) []byte {
	if len(src) > maxSeedBytes {
		src = src[:maxSeedBytes]
	}
	return append([]byte(nil), src...)
}

package collect

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Extensions is the set of source file extensions picked up by Scan.
var Extensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".webp", ".tiff", ".gif"}

func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Scan walks root recursively and returns every regular file with a supported
// extension, in walk order. Directories at or below any of exclude are not
// entered, which keeps an output folder nested in root out of the results.
// A root that is itself a supported file yields just that file.
func Scan(root string, exclude ...string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if Supported(absRoot) {
			return []string{absRoot}, nil
		}
		return nil, nil
	}

	var skip []string
	for _, dir := range exclude {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if abs, absErr := filepath.Abs(dir); absErr == nil {
			skip = append(skip, filepath.Clean(abs))
		}
	}

	var paths []string
	fsys := os.DirFS(absRoot)
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		fullPath := filepath.Join(absRoot, filepath.FromSlash(path))
		if d.IsDir() {
			for _, s := range skip {
				if isWithin(fullPath, s) {
					return fs.SkipDir
				}
			}
			return nil
		}
		if !d.Type().IsRegular() || !Supported(path) {
			return nil
		}
		paths = append(paths, fullPath)
		return nil
	})
	if err != nil {
		return paths, err
	}

	return paths, nil
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

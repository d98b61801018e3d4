// Package fsutil provides file system utility functions.
package fsutil

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension searches root for files ending with extension,
// compared case-insensitively. A missing leading dot is added. When recursive
// is false only the top level of root is listed.
func FindFilesByExtension(rootPath string, extension string, recursive bool) ([]string, error) {
	if extension == "" {
		return nil, fmt.Errorf("extension must not be empty")
	}
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	return FindFilesBySuffix(rootPath, extension, recursive)
}

// FindFilesBySuffix searches root for files whose name ends with suffix,
// compared case-insensitively.
func FindFilesBySuffix(rootPath string, suffix string, recursive bool) ([]string, error) {
	suffix = strings.ToLower(suffix)

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != rootPath {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), suffix) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// ContainsFiles reports whether any file name under root matches the shell
// pattern.
func ContainsFiles(rootPath, pattern string, recursive, caseSensitive bool) (bool, error) {
	if !caseSensitive {
		pattern = strings.ToLower(pattern)
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return false, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	found := false
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != rootPath {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if !caseSensitive {
			name = strings.ToLower(name)
		}
		// pattern was validated above
		if ok, _ := filepath.Match(pattern, name); ok {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// CorruptZip is an archive that failed to open or verify.
type CorruptZip struct {
	Path string
	Err  error
}

// FindCorruptedZips checks every .zip file directly inside dir by reading all
// entries, which verifies their checksums.
func FindCorruptedZips(dir string) ([]CorruptZip, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var corrupt []CorruptZip
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".zip") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := testZip(path); err != nil {
			corrupt = append(corrupt, CorruptZip{Path: path, Err: err})
		}
	}
	sort.Slice(corrupt, func(i, j int) bool { return corrupt[i].Path < corrupt[j].Path })
	return corrupt, nil
}

func testZip(path string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		_, err = io.Copy(io.Discard, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReplaceExt swaps the extension of path for ext.
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

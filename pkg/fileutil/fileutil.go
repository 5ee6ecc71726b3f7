// Package fileutil provides case-insensitive file lookup over real and embedded file systems.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFileCaseInsensitive searches dir for filename ignoring case and returns the actual path.
//
// Example:
//
//	path, err := FindFileCaseInsensitive("scripts", "House.IPL")
//	// finds "house.ipl", "HOUSE.IPL", "House.ipl", ...
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	if name, ok := matchEntry(entries, filename); ok {
		return filepath.Join(dir, name), nil
	}
	return "", fmt.Errorf("file not found: %s (searched in %s): %w", filename, dir, fs.ErrNotExist)
}

// FindFileCaseInsensitiveFS is FindFileCaseInsensitive for an fs.FS (slash-separated paths).
func FindFileCaseInsensitiveFS(fsys fs.FS, dir, filename string) (string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	if name, ok := matchEntry(entries, filename); ok {
		if dir == "." || dir == "" {
			return name, nil
		}
		return dir + "/" + name, nil
	}
	return "", fmt.Errorf("file not found: %s (searched in %s): %w", filename, dir, fs.ErrNotExist)
}

// ListFilesWithExt はディレクトリ内で拡張子が ext に一致するファイル名を名前順に返す（大文字小文字を無視）
func ListFilesWithExt(entries []fs.DirEntry, ext string) []string {
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ext) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// HasExtension は path の拡張子が ext と一致するかを返す（大文字小文字を無視）
func HasExtension(path, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext)
}

func matchEntry(entries []fs.DirEntry, filename string) (string, bool) {
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(e.Name(), filename) {
			return e.Name(), true
		}
	}
	return "", false
}

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// OutputExt is the extension of every written crop
const OutputExt = ".jpg"

// DefaultExtensions are the source extensions picked up when none are configured
var DefaultExtensions = []string{".jpg", ".png"}

// BaseName returns the file name without directory and extension
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// HasExtension reports whether path ends in one of exts. Matching is case-sensitive.
func HasExtension(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// ParseExtensions splits a comma separated list like ".jpg, .png" and adds missing dots
func ParseExtensions(list string) []string {
	var exts []string
	for _, e := range strings.Split(list, ",") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

// ListImageFiles lists the regular files directly inside dir whose extension is in exts,
// sorted by name. Subdirectories are not descended into.
func ListImageFiles(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if HasExtension(entry.Name(), exts) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// OutputFilename returns the path of the crop written for inputFile
func OutputFilename(inputFile, outputDir string) string {
	return filepath.Join(outputDir, BaseName(inputFile)+OutputExt)
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// ExecutableDir returns the directory holding the running binary,
// falling back to the working directory
func ExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

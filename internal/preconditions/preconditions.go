package preconditions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateFiles checks if input files exist and are readable.
// When extensions are given, every file must end in one of them.
func ValidateFiles(paths []string, extensions ...string) error {
	for _, filePath := range paths {
		info, err := os.Stat(filePath)
		if err != nil {
			return fmt.Errorf("cannot access file %s: %w", filePath, err)
		}

		if info.IsDir() {
			return fmt.Errorf("%s is a directory, not a file", filePath)
		}

		if len(extensions) > 0 && !hasExtension(filePath, extensions) {
			return fmt.Errorf("%s is not a supported file (must end in %s)", filePath, strings.Join(extensions, ", "))
		}

		file, err := os.Open(filePath)
		if err != nil {
			return fmt.Errorf("cannot read file %s: %w", filePath, err)
		}
		file.Close()
	}

	return nil
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// ValidateOutputPath checks if the output path can be written:
// its directory must exist and be writable, and the path itself must not be a directory.
func ValidateOutputPath(path string) error {
	if path == "" {
		return fmt.Errorf("output path is empty")
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("output directory %s does not exist", dir)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	if info.Mode()&0200 == 0 {
		return fmt.Errorf("output directory %s is not writable", dir)
	}

	return nil
}

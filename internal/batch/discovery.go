package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoverFiles expands the given file and directory arguments into the list
// of detection files to process, sorted by path. Only .json files are picked
// up from directories; explicitly named files are taken as-is.
func DiscoverFiles(args []string, recursive bool) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			found, err := discoverInDirectory(arg, recursive)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		} else {
			files = append(files, arg)
		}
	}

	sort.Strings(files)
	return files, nil
}

func discoverInDirectory(dir string, recursive bool) ([]string, error) {
	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	}

	return files, filepath.Walk(dir, walkFn)
}

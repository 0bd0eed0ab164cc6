package caseload

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File extensions recognized by the locator.
const (
	extCSV     = ".csv"
	extTSV     = ".tsv"
	extXLSX    = ".xlsx"
	extParquet = ".parquet"

	extGZ   = ".gz"
	extBZ2  = ".bz2"
	extXZ   = ".xz"
	extZSTD = ".zst"
)

// fileFormat is the base format of a source file after stripping any
// compression extension.
type fileFormat int

const (
	formatUnsupported fileFormat = iota
	formatCSV
	formatTSV
	formatXLSX
	formatParquet
)

// compressionType is the outer compression of a source file, if any.
type compressionType int

const (
	compressionNone compressionType = iota
	compressionGZ
	compressionBZ2
	compressionXZ
	compressionZSTD
)

// detectCompression returns the compression type implied by the path suffix.
func detectCompression(path string) compressionType {
	p := strings.ToLower(path)
	switch {
	case strings.HasSuffix(p, extGZ):
		return compressionGZ
	case strings.HasSuffix(p, extBZ2):
		return compressionBZ2
	case strings.HasSuffix(p, extXZ):
		return compressionXZ
	case strings.HasSuffix(p, extZSTD):
		return compressionZSTD
	default:
		return compressionNone
	}
}

// stripCompressionExt removes a trailing compression extension if present.
func stripCompressionExt(path string) string {
	p := strings.ToLower(path)
	for _, ext := range []string{extGZ, extBZ2, extXZ, extZSTD} {
		if strings.HasSuffix(p, ext) {
			return path[:len(path)-len(ext)]
		}
	}
	return path
}

// detectFormat returns the base format of the file at path, looking through
// one layer of compression.
func detectFormat(path string) fileFormat {
	switch strings.ToLower(filepath.Ext(stripCompressionExt(path))) {
	case extCSV:
		return formatCSV
	case extTSV:
		return formatTSV
	case extXLSX:
		return formatXLSX
	case extParquet:
		return formatParquet
	default:
		return formatUnsupported
	}
}

// isSupportedFile reports whether the path carries a supported extension.
func isSupportedFile(path string) bool {
	return detectFormat(path) != formatUnsupported
}

// findSourceFiles recursively enumerates supported files under root.
// The order is WalkDir's lexical order, stable within one invocation, so the
// orchestrator's adjacency grouping is meaningful. A missing or unreadable
// root is fatal to the run.
func findSourceFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, root)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDirectoryNotFound, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrDirectoryNotFound, root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isSupportedFile(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

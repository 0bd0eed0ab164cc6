package caseload

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// openSourceReader opens the file at path and wraps it with a decompression
// reader when the extension calls for one. The returned close function
// releases both the decompressor and the file.
func openSourceReader(path string) (io.Reader, func() error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}

	reader, closeDecomp, err := wrapDecompression(file, detectCompression(path))
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("decompress %s: %w", path, err)
	}

	closeAll := func() error {
		var first error
		if closeDecomp != nil {
			first = closeDecomp()
		}
		if err := file.Close(); err != nil && first == nil {
			first = err
		}
		return first
	}
	return reader, closeAll, nil
}

// wrapDecompression wraps reader with the decompressor for the given type.
func wrapDecompression(reader io.Reader, ct compressionType) (io.Reader, func() error, error) {
	switch ct {
	case compressionGZ:
		gzReader, err := gzip.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip reader: %w", err)
		}
		return gzReader, gzReader.Close, nil

	case compressionBZ2:
		// bzip2 readers need no closing
		return bzip2.NewReader(reader), nil, nil

	case compressionXZ:
		xzReader, err := xz.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("xz reader: %w", err)
		}
		return xzReader, nil, nil

	case compressionZSTD:
		decoder, err := zstd.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd reader: %w", err)
		}
		return decoder, func() error { decoder.Close(); return nil }, nil

	default:
		return reader, nil, nil
	}
}

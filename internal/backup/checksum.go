package backup

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// ChecksumHexLen is the fixed length of the hex digest stored in manifest
// entries.
const ChecksumHexLen = 16

// HashFile computes the xxHash64 digest and byte size of the file at path.
// The digest is fast and non-cryptographic: it detects corruption, not
// tampering.
func HashFile(ctx context.Context, path string) (string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	digest := xxhash.New()
	var size int64

	// Hash in chunks with context checking so a cancelled cycle stops
	// promptly even on large files.
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return "", 0, ctx.Err()
		default:
		}

		n, err := file.Read(buf)
		if n > 0 {
			size += int64(n)
			if _, werr := digest.Write(buf[:n]); werr != nil {
				return "", 0, fmt.Errorf("failed to write to hash: %w", werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", 0, fmt.Errorf("failed to read file: %w", err)
		}
	}

	return fmt.Sprintf("%016x", digest.Sum64()), size, nil
}

package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// MaxRedactableSize is a 10 MiB size threshold. Neither the walk nor the
// fingerprint functions consult it, and the scanner reports no entry as
// SkipLarge; the size cap applied to redaction scans is
// redactor.MaxRedactableSize.
const MaxRedactableSize = 10 * 1024 * 1024 // 10 MiB

// FingerprintFast returns a cheap, session-stable fingerprint from size
// and mtime, without touching file content. This is the default
// strategy (see SPEC_FULL.md open-question decision): stable across
// unchanged files within a session, no I/O required.
func FingerprintFast(size, mtimeUnix int64) string {
	return fmt.Sprintf("%d-%d", size, mtimeUnix)
}

// FingerprintContent returns a sha256 content hash of path, for callers
// that need a collision-proof key and can afford the read. The engine's
// redaction scan cache does not use it; that cache is keyed by
// FingerprintFast. Grounded on the teacher's duplicate-file hashing
// in the now-removed dev-cache duplicate finder (md5 over file content);
// sha256 is used here since this hash is also used as a long-lived cache
// key, not just an in-memory duplicate grouping key.
func FingerprintContent(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

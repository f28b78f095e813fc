package cmn

import (
	"crypto/sha1" //nolint:gosec // content-addressing digest, not a security boundary; see doc comment
	"encoding/hex"
	"io"
	"os"
)

// DigestFile streams the file at path through a SHA-1 hash in chunks of
// bufSize bytes, returning the hex digest and the byte size observed.
// Memory use is O(bufSize) regardless of file size.
//
// SHA-1 is the algorithm Minecraft-style launcher manifests already
// expect in their file listings (library/asset/client hashes); matching
// its hex form is a wire-compatibility requirement, not a security
// choice, so crypto/sha1 is used deliberately here despite the
// algorithm's cryptographic weaknesses elsewhere.
func DigestFile(path string, bufSize int) (digest string, size int64, err error) {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	f, err := os.Open(path)
	if err != nil {
		return "", 0, NewIOError("digest.open", path, err)
	}
	defer f.Close()

	h := sha1.New()
	buf := make([]byte, bufSize)
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			if _, werr := h.Write(buf[:n]); werr != nil {
				return "", 0, NewDigestError("digest.hash", path, werr)
			}
			size += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", 0, NewIOError("digest.read", path, rerr)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}

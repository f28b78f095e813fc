package cachemgr

import (
	"context"
	"crypto/sha1" //nolint:gosec // matches the scan pipeline's content digest, see cmn.DigestFile
	"encoding/hex"
	"os"

	"github.com/Lighty-Launcher/LightyUpdater/cmn"
	"github.com/Lighty-Launcher/LightyUpdater/filelru"
)

// FileResult is what GetFile returns: either an in-memory body (Bytes
// non-nil) or a path to stream from disk (Path non-empty), decided by
// the streaming-threshold comparison.
type FileResult struct {
	Bytes       []byte
	Path        string
	Size        int64
	Digest      string
	ContentType string
}

// GetFile resolves (namespace, relPath) through the file LRU, falling
// back to disk on a miss. streamingThresholdBytes is the size at or
// above which the file is served by path (for the caller to stream)
// instead of being buffered into memory and cached.
func (m *Manager) GetFile(_ context.Context, namespace, relPath, absPath string, streamingThresholdBytes int64) (FileResult, error) {
	if e, ok := m.lru.Get(namespace, relPath); ok {
		return FileResult{Bytes: e.Bytes, Size: e.Size, Digest: e.Digest, ContentType: e.ContentType}, nil
	}

	fi, err := os.Stat(absPath)
	if err != nil {
		return FileResult{}, cmn.NewIOError("getfile.stat", absPath, err)
	}

	contentType := filelru.DetectContentType(relPath)
	if fi.Size() >= streamingThresholdBytes {
		return FileResult{Path: absPath, Size: fi.Size(), ContentType: contentType}, nil
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return FileResult{}, cmn.NewIOError("getfile.read", absPath, err)
	}
	sum := sha1.Sum(data)
	digest := hex.EncodeToString(sum[:])
	m.lru.Put(namespace, relPath, filelru.Entry{Bytes: data, Digest: digest, Size: fi.Size(), ContentType: contentType})
	return FileResult{Bytes: data, Size: fi.Size(), Digest: digest, ContentType: contentType}, nil
}

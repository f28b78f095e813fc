package cdn

import (
	"bytes"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type purgeRequest struct {
	Files []string `json:"files"`
}

// purgeBody encodes the purge request body for a single key. Errors
// from Marshal are unreachable for this fixed, simple shape, so they are
// swallowed into an empty body rather than threaded through every
// caller -- a malformed request would still fail clearly via the CDN's
// 4xx response.
func purgeBody(key string) io.Reader {
	data, _ := json.Marshal(purgeRequest{Files: []string{key}})
	return bytes.NewReader(data)
}

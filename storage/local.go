package storage

import (
	"context"
	"strings"
)

// Local serves files straight off disk: Upload and Delete are no-ops,
// and URLFor composes "{base_url}/{key}".
type Local struct {
	BaseURL string
}

func NewLocal(baseURL string) *Local {
	return &Local{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (l *Local) Upload(_ context.Context, _, key string) (string, error) {
	return l.URLFor(key), nil
}

func (l *Local) Delete(_ context.Context, _ string) error { return nil }

func (l *Local) URLFor(key string) string {
	return l.BaseURL + "/" + strings.TrimLeft(key, "/")
}

func (l *Local) IsRemote() bool { return false }

package cmn_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Lighty-Launcher/LightyUpdater/cmn"
)

func TestIsNamespaceNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "namespace not found error", err: cmn.NewNamespaceNotFoundError("foo"), want: true},
		{name: "wrapped namespace not found error", err: fmt.Errorf("wrap: %w", cmn.NewNamespaceNotFoundError("foo")), want: true},
		{name: "unrelated io error", err: cmn.NewIOError("op", "path", errors.New("boom")), want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := cmn.IsNamespaceNotFound(test.err); got != test.want {
				t.Fatalf("got %v, want %v", got, test.want)
			}
		})
	}
}

func TestErrorIsMatchesOnKind(t *testing.T) {
	err := cmn.NewUploadError("ns/mods/x.jar", errors.New("network down"))
	if !errors.Is(err, &cmn.Error{Kind: cmn.KindUpload}) {
		t.Fatal("expected errors.Is to match on Kind alone")
	}
	if errors.Is(err, &cmn.Error{Kind: cmn.KindDelete}) {
		t.Fatal("expected errors.Is to not match a different Kind")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := cmn.NewDeleteError("key", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected Unwrap to expose the original cause")
	}
}

package cmn_test

import (
	"testing"

	"github.com/Lighty-Launcher/LightyUpdater/cmn"
)

func TestPathToMavenCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{
			name: "simple group",
			path: "lwjgl/lwjgl/3.3.0/lwjgl-3.3.0.jar",
			want: "lwjgl:lwjgl:3.3.0",
		},
		{
			name: "dotted group",
			path: "org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1.jar",
			want: "org.lwjgl:lwjgl:3.3.1",
		},
		{
			name: "windows-style separators normalized",
			path: `org\lwjgl\lwjgl\3.3.1\lwjgl-3.3.1.jar`,
			want: "org.lwjgl:lwjgl:3.3.1",
		},
		{
			name:    "missing group component",
			path:    "artifact/version/file.jar",
			wantErr: true,
		},
		{
			name:    "too few components",
			path:    "version/file.jar",
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := cmn.PathToMavenCoordinate(test.path)
			if test.wantErr {
				if err == nil {
					t.Fatalf("expected error, got coordinate %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != test.want {
				t.Fatalf("got %q, want %q", got, test.want)
			}
		})
	}
}

func TestStripLeadingNamespace(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "mods path", path: "myserver/mods/x.jar", want: "mods/x.jar"},
		{name: "no namespace component", path: "mods.jar", want: "mods.jar"},
		{name: "nested asset path", path: "srv/assets/objects/ab/abcdef", want: "assets/objects/ab/abcdef"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := cmn.StripLeadingNamespace(test.path); got != test.want {
				t.Fatalf("got %q, want %q", got, test.want)
			}
		})
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "clean relative path", path: "mods/x.jar", want: false},
		{name: "parent traversal", path: "../etc/passwd", want: true},
		{name: "embedded traversal", path: "mods/../../../etc/passwd", want: true},
		{name: "null byte", path: "mods/x.jar\x00", want: true},
		{name: "absolute root", path: "/etc/passwd", want: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := cmn.ContainsTraversal(test.path); got != test.want {
				t.Fatalf("got %v, want %v for %q", got, test.want, test.path)
			}
		})
	}
}

package appversion

import (
	"testing"

	"github.com/AppHost-Network/host_runtime/internal/manifest"
)

func testManifest() *manifest.Manifest {
	return &manifest.Manifest{Application: "app", Version: "v1"}
}

func TestBuildRequiresKeyAndManifest(t *testing.T) {
	if _, err := NewBuilder().Manifest(&manifest.Manifest{}).Build(); err == nil {
		t.Fatal("expected error for missing version key")
	}

	key := VersionKey{AppID: "app", VersionID: "v1"}
	if _, err := NewBuilder().Key(key).Build(); err == nil {
		t.Fatal("expected error for missing manifest")
	}

	av, err := NewBuilder().Key(key).Manifest(&manifest.Manifest{}).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if av.Key() != key {
		t.Errorf("Key() = %v, want %v", av.Key(), key)
	}
}

func TestPublicRootNormalization(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"leading-separator", "/v1", "v1/"},
		{"no-leading-separator", "v1", "v1/"},
		{"already-normalized", "v1/", "v1/"},
		{"leading-and-trailing", "/v1/", "v1/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizePublicRoot(tt.in)
			if got != tt.want {
				t.Errorf("normalizePublicRoot(%q) = %q, want %q", tt.in, got, tt.want)
			}
			// Normalization is idempotent.
			if again := normalizePublicRoot(got); again != got {
				t.Errorf("normalizePublicRoot(%q) = %q, not idempotent", got, again)
			}
		})
	}
}

func TestIsResourceFileDeclaredList(t *testing.T) {
	m := &manifest.Manifest{
		Application: "app",
		Version:     "v1",
		Files:       []manifest.File{{Path: "css/app.css"}},
	}
	av, err := NewBuilder().
		Key(VersionKey{AppID: "app", VersionID: "v1"}).
		Manifest(m).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if !av.IsResourceFile("css/app.css") {
		t.Error("IsResourceFile(css/app.css) = false, want true")
	}
	if av.IsResourceFile("other.css") {
		t.Error("IsResourceFile(other.css) = true, want false")
	}
}

func TestIsResourceFileWithPublicRoot(t *testing.T) {
	m := &manifest.Manifest{
		Files: []manifest.File{{Path: "v1/x"}},
	}
	av, err := NewBuilder().
		Key(VersionKey{AppID: "app", VersionID: "v1"}).
		Manifest(m).
		PublicRoot("/v1").
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if got := av.PublicRoot(); got != "v1/" {
		t.Fatalf("PublicRoot() = %q, want %q", got, "v1/")
	}
	if !av.IsResourceFile("x") {
		t.Error("IsResourceFile(x) = false, want membership of v1/x")
	}
	if av.IsResourceFile("v1/x") {
		t.Error("IsResourceFile(v1/x) = true, want false (root applied twice)")
	}
}

func TestIsStaticFile(t *testing.T) {
	m := &manifest.Manifest{
		Blobs: []manifest.Blob{
			{Path: "__static__/v1/logo.png"},
			{Path: "__static__/favicon.ico"},
		},
	}

	av, err := NewBuilder().
		Key(VersionKey{AppID: "app", VersionID: "v1"}).
		Manifest(m).
		PublicRoot("/v1").
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if !av.IsStaticFile("logo.png") {
		t.Error("IsStaticFile(logo.png) = false, want true")
	}
	if av.IsStaticFile("favicon.ico") {
		t.Error("IsStaticFile(favicon.ico) = true, want false under public root v1/")
	}
}

func TestAccessorsReturnHeldReferences(t *testing.T) {
	env := &Environment{Variables: map[string]string{"MODE": "prod"}}
	sessions := SessionsConfig{Enabled: true, AsyncQueueName: "sessions"}
	pool := stubPool{}

	av, err := NewBuilder().
		Key(VersionKey{AppID: "app", VersionID: "v1"}).
		Manifest(&manifest.Manifest{}).
		RootDirectory("/srv/app").
		Environment(env).
		SessionsConfig(sessions).
		ThreadPool(pool).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if av.Environment() != env {
		t.Error("Environment() does not return the held reference")
	}
	if av.SessionsConfig() != sessions {
		t.Error("SessionsConfig() mismatch")
	}
	if av.ThreadPool() != ThreadPool(pool) {
		t.Error("ThreadPool() mismatch")
	}
	if av.RootDirectory() != "/srv/app" {
		t.Errorf("RootDirectory() = %q", av.RootDirectory())
	}
}

type stubPool struct{}

func (stubPool) Submit(string, func()) error { return nil }

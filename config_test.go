package regioncache

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func TestRegistryDefaults(t *testing.T) {
	r := NewRegistry()
	cfg := r.Config("anything")
	if cfg.Memory != BackendMemory || cfg.File != BackendFile || cfg.Redis != BackendRedis {
		t.Fatalf("unexpected backend defaults: %+v", cfg)
	}
	if cfg.RedisHost != "localhost" || cfg.RedisPort != 6379 {
		t.Fatalf("unexpected remote defaults: %+v", cfg)
	}
	if cfg.DefaultBackend != BackendMemory {
		t.Fatalf("DefaultBackend = %q", cfg.DefaultBackend)
	}
}

func TestConfigureNamespaceCopiesDefault(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Configure("", WithDebugKey("base:")); err != nil {
		t.Fatal(err)
	}

	// first touch copies the current default
	if _, err := r.Configure("users", WithRemotePort(6380)); err != nil {
		t.Fatal(err)
	}
	users := r.Config("users")
	if users.DebugKey != "base:" || users.RedisPort != 6380 {
		t.Fatalf("users config = %+v", users)
	}

	// later default changes do not leak into the copied namespace
	if _, err := r.Configure("", WithDebugKey("changed:")); err != nil {
		t.Fatal(err)
	}
	if r.Config("users").DebugKey != "base:" {
		t.Fatal("default mutation leaked into configured namespace")
	}
	// but unconfigured namespaces keep reading the default
	if r.Config("products").DebugKey != "changed:" {
		t.Fatal("unconfigured namespace did not follow default")
	}
}

func TestConfigReadHasNoSideEffect(t *testing.T) {
	r := NewRegistry()
	_ = r.Config("ghost")
	if got := r.Namespaces(); len(got) != 0 {
		t.Fatalf("read created namespace entries: %v", got)
	}
}

func TestConfigureValidation(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		name string
		opt  ConfigOption
	}{
		{"bad memory selector", WithMemoryBackend("redis")},
		{"bad file selector", WithFileBackend("bogus")},
		{"bad remote selector", WithRemoteBackend("file")},
		{"empty host", WithRemoteHost("")},
		{"port zero", WithRemotePort(0)},
		{"port too large", WithRemotePort(70000)},
		{"negative db", WithRemoteDB(-1)},
		{"missing tmp dir", WithTmpDir(filepath.Join(t.TempDir(), "nope"))},
		{"bad default backend", WithDefaultBackend("null")},
	}
	for _, c := range cases {
		_, err := r.Configure("ns", c.opt)
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("%s: err = %v, want ConfigError", c.name, err)
		}
	}
}

func TestConfigureFirstBadOptionAborts(t *testing.T) {
	r := NewRegistry()
	_, err := r.Configure("ns",
		WithDebugKey("applied:"),
		WithRemotePort(0),
		WithDebugKey("never:"),
	)
	if err == nil {
		t.Fatal("expected error")
	}
	cfg := r.Config("ns")
	if cfg.DebugKey != "applied:" {
		t.Fatalf("options before the failure should stick, DebugKey = %q", cfg.DebugKey)
	}
}

func TestNullRemoteDisablesDistributedLock(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Configure("a",
		WithRemoteDistributedLock(true),
		WithRemoteBackend(BackendNull),
	); err != nil {
		t.Fatal(err)
	}
	// explicit choice survives
	if !r.Config("a").RedisDistributed {
		t.Fatal("explicit distributed-lock choice was clobbered")
	}

	if _, err := r.Configure("b", WithRemoteBackend(BackendNull)); err != nil {
		t.Fatal(err)
	}
	if r.Config("b").RedisDistributed {
		t.Fatal("distributed lock should default off with a null remote backend")
	}
}

func TestRegistrySnapshotAndReset(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Configure("users", WithDebugKey("u:")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Configure("products", WithDebugKey("p:")); err != nil {
		t.Fatal(err)
	}

	if got, want := r.Namespaces(), []string{"products", "users"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Namespaces() = %v, want %v", got, want)
	}

	snap := r.Snapshot()
	if _, ok := snap[DefaultNamespace]; !ok {
		t.Fatal("snapshot missing default entry")
	}
	if snap["users"].DebugKey != "u:" {
		t.Fatalf("snapshot users = %+v", snap["users"])
	}

	// snapshots are copies
	snap["users"] = CacheConfig{DebugKey: "mutated"}
	if r.Config("users").DebugKey != "u:" {
		t.Fatal("snapshot mutation reached the registry")
	}

	r.Reset()
	if len(r.Namespaces()) != 0 {
		t.Fatal("Reset left namespace configs behind")
	}
	if r.Config("users").DebugKey != "" {
		t.Fatal("Reset should fall back to the default config")
	}
}

func TestWithTmpDirAcceptsWritableDir(t *testing.T) {
	r := NewRegistry()
	dir := t.TempDir()
	if _, err := r.Configure("", WithTmpDir(dir)); err != nil {
		t.Fatal(err)
	}
	if r.Config("").TmpDir != dir {
		t.Fatalf("TmpDir = %q", r.Config("").TmpDir)
	}
}

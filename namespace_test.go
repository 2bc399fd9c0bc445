package regioncache

import "testing"

func TestNormalizeNamespace(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"users", "|users|"},
		{"|users|", "|users|"},
		{"a|b", "|a.b|"},
		{"||x||", "|x|"},
	}
	for _, c := range cases {
		if got := NormalizeNamespace(c.in); got != c.want {
			t.Errorf("NormalizeNamespace(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNamespaceFilter(t *testing.T) {
	matches := namespaceFilter("v1:", "users")

	key := "v1:" + KeyGenerator("users", userSpec())(CallArgs{Pos: []any{1}})
	if !matches(key) {
		t.Fatalf("expected match for %q", key)
	}

	other := "v1:" + KeyGenerator("products", userSpec())(CallArgs{Pos: []any{1}})
	if matches(other) {
		t.Fatalf("unexpected match for %q", other)
	}

	wrongPrefix := "v2:" + KeyGenerator("users", userSpec())(CallArgs{Pos: []any{1}})
	if matches(wrongPrefix) {
		t.Fatalf("matched despite foreign debug prefix: %q", wrongPrefix)
	}
}

func TestNamespaceFilterNormalizesInput(t *testing.T) {
	key := "getUser||users||id=1"
	if !namespaceFilter("", "|users|")(key) {
		t.Fatal("pre-wrapped namespace did not match")
	}
}

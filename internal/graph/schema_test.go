package graph

import "testing"

// The resolver set must satisfy every field the schema declares, otherwise
// MustParseSchema panics. Parsing once here catches drift between the two.
func TestSchemaMatchesResolver(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("schema does not match resolver: %v", r)
		}
	}()

	if s := NewSchema(&Resolver{}); s == nil {
		t.Fatal("expected a parsed schema")
	}
}

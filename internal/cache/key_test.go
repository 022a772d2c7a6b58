package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_Deterministic(t *testing.T) {
	assert.Equal(t, Key("geocode", "Lower Manhattan, NYC"), Key("geocode", "Lower Manhattan, NYC"))
}

func TestKey_CanonicalizesTextInput(t *testing.T) {
	base := Key("geocode", "Lower Manhattan, NYC")
	assert.Equal(t, base, Key("geocode", "  lower   manhattan,  nyc "))
	assert.Equal(t, base, Key("geocode", "LOWER MANHATTAN, NYC"))
}

func TestKey_DistinctTextDistinctKey(t *testing.T) {
	assert.NotEqual(t, Key("geocode", "Austin, TX"), Key("geocode", "Dallas, TX"))
}

func TestKey_NamespacePreventsCrossFeatureCollision(t *testing.T) {
	text := "flooding near the river"
	assert.NotEqual(t, Key("geocode", text), Key("analyze", text))
}

func TestKey_Shape(t *testing.T) {
	key := Key("geocode", "Austin, TX")
	ns, hash, found := strings.Cut(key, ":")
	require.True(t, found)
	assert.Equal(t, "geocode", ns)
	assert.Len(t, hash, 32, "128-bit hex digest")
}

func TestKeyParams_OrderIndependent(t *testing.T) {
	a := KeyParams("analyze", map[string]string{"text": "fire downtown", "media": "https://x/img.png"})
	b := KeyParams("analyze", map[string]string{"media": "https://x/img.png", "text": "fire downtown"})
	assert.Equal(t, a, b)
}

func TestKeyParams_ValueBoundariesMatter(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must not hash identically.
	a := KeyParams("n", map[string]string{"ab": "c"})
	b := KeyParams("n", map[string]string{"a": "bc"})
	assert.NotEqual(t, a, b)
}

func TestKeyParams_ValuesNotCanonicalized(t *testing.T) {
	a := KeyParams("analyze", map[string]string{"text": "Fire Downtown"})
	b := KeyParams("analyze", map[string]string{"text": "fire downtown"})
	assert.NotEqual(t, a, b)
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Key derives a cache key from free text. The text is canonicalized
// (lowercased, whitespace collapsed) so "Lower  Manhattan, NYC" and
// "lower manhattan, nyc" share one entry, then hashed with SHA-256 and
// truncated to 128 bits. The namespace prefix keeps a geocode request and a
// content-analysis request on identical text from colliding.
func Key(namespace, text string) string {
	canon := strings.ToLower(strings.Join(strings.Fields(text), " "))
	return namespace + ":" + digest([]byte(canon))
}

// KeyParams derives a cache key from structured parameters. Params are
// key-sorted before hashing so map iteration order never changes the key.
// Values are not canonicalized; they are structured data, not lookup text.
func KeyParams(namespace string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(params[k]))
		h.Write([]byte{0})
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil)[:16])
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:16])
}

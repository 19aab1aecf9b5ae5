package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Key builds the cache key for decoding values against the named root
// type. Only $-options take part; their order in the request does not
// matter.
func Key(typeName string, values url.Values) string {
	var parts []string
	for name, vs := range values {
		if !strings.HasPrefix(name, "$") {
			continue
		}
		sorted := append([]string(nil), vs...)
		sort.Strings(sorted)
		for _, v := range sorted {
			parts = append(parts, url.QueryEscape(name)+"="+url.QueryEscape(v))
		}
	}
	sort.Strings(parts)

	hash := sha256.Sum256([]byte(strings.Join(parts, "&")))
	return strings.ToLower(typeName) + ":" + hex.EncodeToString(hash[:16])
}

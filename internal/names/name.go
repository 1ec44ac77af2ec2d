// Package names provides functions for truncating and hashing strings and for generating valid k8s resource names.
package names

import (
	"crypto/md5" //nolint:gosec // Non-crypto use
	"encoding/hex"
	"fmt"
	"strings"
)

// Limit the length of a string to count characters. If the string's length is
// greater than count, it will be truncated and a separator will be appended to
// the end, followed by a hash.
// If the last character of the truncated string is the separator, then the
// separator itself is omitted. This prevents the result from containing two
// consecutive separators. In such a case, the result will be [count -1]
// characters long.
// If count is too small to include the shortened hash the string is simply
// truncated.
func Limit(s string, count int) string {
	if len(s) <= count {
		return s
	}

	const hexLen int = 5
	separator := "-"

	if count <= hexLen+len(separator) {
		return s[:count]
	}

	nbCharsBeforeTrim := count - hexLen - len(separator)

	// If the last character of the truncated string is the separator, include it instead of the separator.
	if string(s[nbCharsBeforeTrim-1]) == separator {
		separator = ""
	}

	return fmt.Sprintf("%s%s%s", s[:nbCharsBeforeTrim], separator, Hex(s, hexLen))
}

// Hex returns a hex-encoded hash of the string and truncates it to length.
// Warning: truncating the 32 character hash makes collisions more likely.
func Hex(s string, length int) string {
	h := md5.Sum([]byte(s)) //nolint:gosec // Non-crypto use
	d := hex.EncodeToString(h[:])
	return d[:length]
}

// BundleName derives the deterministic name of the Fleet Bundle owned by a
// chart (or pipeline step) of a parent resource: "{kind}-{name}-{chart}",
// lower-cased, truncated to the Kubernetes name limit of 63 characters, with
// any trailing dash left by truncation stripped.
func BundleName(resourceKind, resourceName, chartName string) string {
	full := strings.ToLower(resourceKind) + "-" + resourceName + "-" + chartName
	return strings.TrimRight(Limit(full, 63), "-")
}

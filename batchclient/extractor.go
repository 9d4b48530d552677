package batchclient

import (
	"path/filepath"
	"strings"
)

// ExtractIdentifiers derives article identifiers from a filename: the
// extension is stripped and the stem is split on hyphens. Parts are trimmed
// and empty parts dropped; order of appearance is preserved. With numericOnly
// set, parts containing anything but digits are dropped too (SAP codes are
// purely numeric). An empty result means the file carries no identifiers and
// should be skipped upstream.
func ExtractIdentifiers(filename string, numericOnly bool) []string {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var ids []string
	for _, part := range strings.Split(stem, "-") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if numericOnly && !isNumeric(part) {
			continue
		}
		ids = append(ids, part)
	}
	return ids
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

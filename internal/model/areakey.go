package model

import "strings"

// AreaKeyLen is the width of a ZCTA area key.
const AreaKeyLen = 5

// NormalizeAreaKey trims s and forces it to exactly five characters:
// longer keys keep their first five characters, shorter keys are left-padded
// with '0'. "601" -> "00601", "123456" -> "12345".
func NormalizeAreaKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= AreaKeyLen {
		return s[:AreaKeyLen]
	}
	return strings.Repeat("0", AreaKeyLen-len(s)) + s
}

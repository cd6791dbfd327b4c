package models

import (
	"regexp"
	"strconv"
	"strings"
)

// codePattern is the canonical account code shape: numeric segments joined
// by dots, any depth ("410", "410.1", "410.1.2").
var codePattern = regexp.MustCompile(`^\d+(\.\d+)*$`)

// IsValidCode reports whether code matches the canonical dotted-numeric form.
func IsValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// ParentCode returns code with its last dot segment removed, or "" for
// root-level codes.
func ParentCode(code string) string {
	idx := strings.LastIndex(code, ".")
	if idx < 0 {
		return ""
	}
	return code[:idx]
}

// CompareCodes orders account codes segment by segment, numerically where
// both segments parse as integers, so "410.2" sorts before "410.10".
// Returns -1, 0, or 1.
func CompareCodes(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		if aerr == nil && berr == nil {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

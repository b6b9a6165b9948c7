package report

import "strings"

// trimStrToRect cuts s to at most maxHeight lines of at most maxWidth bytes,
// marking every cut with "[...]".
func trimStrToRect(s string, maxHeight int, maxWidth int) string {
	lines := strings.Split(s, "\n")
	cut := len(lines) > maxHeight
	if cut {
		lines = lines[:maxHeight]
	}
	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if len(line) > maxWidth {
			sb.WriteString(line[:maxWidth])
			sb.WriteString("[...]")
		} else {
			sb.WriteString(line)
		}
	}
	if cut {
		sb.WriteString("\n[...]")
	}
	return sb.String()
}

package metadata

import (
	"strings"
	"unicode"
)

// FormatNodeName returns a display name for a kind: the FormattedName when set,
// otherwise Name split at lower-to-upper and letter-to-digit boundaries
// ("DomainWarpGradient" -> "Domain Warp Gradient"). With removeGroups, words
// of the kind's groups are dropped ("Domain Warp Gradient" in group
// "Domain Warp" -> "Gradient").
func FormatNodeName(m *Metadata, removeGroups bool) string {
	name := m.FormattedName
	if name == "" {
		name = splitWords(m.Name)
	}
	if removeGroups {
		for _, g := range m.Groups {
			if i := strings.Index(name, g); i >= 0 {
				end := min(len(name), i+len(g)+1)
				name = name[:i] + name[end:]
			}
		}
		name = strings.TrimSpace(name)
	}
	if name == "" {
		return m.Name
	}
	return name
}

func splitWords(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && (unicode.IsUpper(r) || unicode.IsDigit(r)) && unicode.IsLower(runes[i-1]) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatMemberName prefixes per-dimension members with their axis
// ("Scale" on axis Y -> "Y Scale").
func FormatMemberName(m *Member) string {
	if m.DimensionIndex >= 0 && m.DimensionIndex < len(DimensionNames) {
		return DimensionNames[m.DimensionIndex] + " " + m.Name
	}
	return m.Name
}

// matchName compares name against the formatted member name ignoring case and
// whitespace, so "x_scale", "X Scale" and "xscale" all match.
func matchName(m *Member, name string) bool {
	return normalizeName(FormatMemberName(m)) == normalizeName(name)
}

func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

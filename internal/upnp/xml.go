package upnp

import "strings"

// TagText extracts the text between <tag> and </tag> in s. The opening tag
// may carry attributes. Returns false when the element is absent or
// unterminated.
func TagText(s, tag string) (string, bool) {
	open := "<" + tag + ">"
	i := strings.Index(s, open)
	if i < 0 {
		// Opening tag with attributes, e.g. <res size="...">.
		open = "<" + tag + " "
		i = strings.Index(s, open)
		if i < 0 {
			return "", false
		}
		end := strings.IndexByte(s[i:], '>')
		if end < 0 {
			return "", false
		}
		i += end + 1
	} else {
		i += len(open)
	}
	close := "</" + tag + ">"
	j := strings.Index(s[i:], close)
	if j < 0 {
		return "", false
	}
	return strings.TrimSpace(s[i : i+j]), true
}

package kvfile

import "strings"

// SetOption sets key=value in a line oriented KEY=VALUE file.
//
// The first line assigning key (leading whitespace ignored) is replaced as a
// whole and any further assignments of the same key are dropped, so the result
// holds exactly one. When the key is not assigned anywhere the pair is
// appended on a new line. Every other line is kept byte for byte.
func SetOption(content, key, value string) string {
	entry := key + "=" + value
	lines := strings.Split(content, "\n")

	out := make([]string, 0, len(lines))
	found := false
	for _, line := range lines {
		if !assigns(line, key) {
			out = append(out, line)
			continue
		}
		if !found {
			out = append(out, entry)
			found = true
		}
	}
	if found {
		return strings.Join(out, "\n")
	}
	return content + "\n" + entry + "\n"
}

// GetOption returns the value of the first assignment of key.
func GetOption(content, key string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		if assigns(line, key) {
			trimmed := strings.TrimLeft(line, " \t")
			return strings.TrimRight(trimmed[len(key)+1:], "\r"), true
		}
	}
	return "", false
}

func assigns(line, key string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), key+"=")
}

package assets

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed dictionary_small.txt
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToLower(s))
	}
	return out, sc.Err()
}

// DictionaryList returns the embedded fallback word list, lowercased,
// one word per line, comments and blanks skipped.
func DictionaryList() ([]string, error) {
	return readLines("dictionary_small.txt")
}

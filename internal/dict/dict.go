// internal/dict/dict.go
//
// Word-existence oracle backing answer validation.
//
// Responsibilities:
//   - Load a word list once, from an environment-provided file or the embedded
//     fallback in the assets package.
//   - Answer "does word W exist" in O(len(W)) via a prefix tree, independent of
//     vocabulary size.
//   - Expose a readiness flag so callers can distinguish "word not found" from
//     "dictionary not loaded yet".
//
// Initialization behavior (Load):
//   1. If DICT_FILE is set, load one word per line from that file.
//   2. Otherwise fall back to the embedded small list from assets.
//
// Environment variables:
//   DICT_FILE=/path/to/wordlist.txt   (e.g. /usr/share/dict/words)
//
// Constraints:
//   • Words are normalized to lowercase; entries containing anything outside
//     a–z are skipped at load time and reported absent at query time.
//   • The tree is read-only after Load: safe for unlimited concurrent Exists calls.

package dict

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/letterdash/go-server/assets"
)

// ErrNotReady is returned by Exists before Load has completed.
// Callers must surface this distinctly, not score it as "word does not exist".
var ErrNotReady = errors.New("dict: not loaded")

// node is one trie level; children are indexed by letter (a=0 .. z=25).
type node struct {
	children [26]*node
	terminal bool
}

// Dictionary is a read-only word set built once at startup.
type Dictionary struct {
	root  *node
	words int
	ready atomic.Bool
}

// New returns an empty, not-yet-ready Dictionary.
func New() *Dictionary {
	return &Dictionary{root: &node{}}
}

// Load reads the word list exactly once and flips the readiness flag.
// Source selection: DICT_FILE env var, else the embedded fallback list.
func (d *Dictionary) Load() error {
	var (
		list []string
		err  error
	)
	if path := os.Getenv("DICT_FILE"); path != "" {
		list, err = readWordFile(path)
	} else {
		list, err = assets.DictionaryList()
	}
	if err != nil {
		return fmt.Errorf("dict: load: %w", err)
	}
	return d.LoadWords(list)
}

// LoadWords builds the trie from an explicit list (used by Load and by tests).
func (d *Dictionary) LoadWords(list []string) error {
	for _, w := range list {
		d.insert(strings.ToLower(strings.TrimSpace(w)))
	}
	if d.words == 0 {
		return errors.New("dict: word list is empty")
	}
	d.ready.Store(true)
	return nil
}

// Ready reports whether Load has completed successfully.
func (d *Dictionary) Ready() bool { return d.ready.Load() }

// Size returns the number of words loaded.
func (d *Dictionary) Size() int { return d.words }

// Exists reports whether the word is in the dictionary.
// Input is lowercased before lookup so "CAT" and "cat" agree.
// Returns ErrNotReady if called before Load completes.
func (d *Dictionary) Exists(word string) (bool, error) {
	if !d.ready.Load() {
		return false, ErrNotReady
	}
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return false, nil
	}
	cur := d.root
	for i := 0; i < len(word); i++ {
		j := int(word[i]) - 'a'
		if j < 0 || j >= 26 {
			return false, nil
		}
		cur = cur.children[j]
		if cur == nil {
			return false, nil
		}
	}
	return cur.terminal, nil
}

// insert adds one normalized word; entries with non a–z bytes are skipped.
func (d *Dictionary) insert(word string) {
	if word == "" {
		return
	}
	cur := d.root
	for i := 0; i < len(word); i++ {
		j := int(word[i]) - 'a'
		if j < 0 || j >= 26 {
			return
		}
		if cur.children[j] == nil {
			cur.children[j] = &node{}
		}
		cur = cur.children[j]
	}
	if !cur.terminal {
		cur.terminal = true
		d.words++
	}
}

// readWordFile loads one word per line from a file, skipping blanks and comments.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		out = append(out, w)
	}
	return out, sc.Err()
}

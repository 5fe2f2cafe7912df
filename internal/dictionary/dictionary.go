// Package dictionary generates unique customer/product names and
// product keywords from a configured word list: a short random token,
// checked against an in-use set before being accepted.
package dictionary

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"

	"github.com/google/uuid"
)

// builtinWords is the synthetic fallback word list used when no
// DictionaryFile is configured. It is cycled, not assumed unique on its
// own — uniqueness is guaranteed by the uuid suffix in NewName.
var builtinWords = []string{
	"amber", "basil", "cedar", "delta", "ember", "flint", "grove", "haze",
	"iris", "jade", "karst", "lumen", "maple", "nimbus", "opal", "pearl",
	"quartz", "ridge", "slate", "terra", "umbra", "vale", "willow", "xenon",
	"yarrow", "zephyr",
}

// Dictionary is a word source. The in-use name set that NewName
// enforces uniqueness against is owned by the caller and passed in.
type Dictionary struct {
	words []string
}

// Load returns a Dictionary of size words drawn (cyclically) from the
// builtin list, matching DictionarySize from the config surface.
func Load(size int) *Dictionary {
	if size <= 0 {
		size = len(builtinWords)
	}
	words := make([]string, size)
	for i := range words {
		words[i] = builtinWords[i%len(builtinWords)]
	}
	return &Dictionary{words: words}
}

// LoadFile reads one word per line from path, matching DictionaryFile.
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dictionary: open %s: %w", path, err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dictionary: read %s: %w", path, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("dictionary: %s contained no words", path)
	}
	return &Dictionary{words: words}, nil
}

func (d *Dictionary) pick(rng *rand.Rand) string {
	return d.words[rng.Intn(len(d.words))]
}

// NewName draws two words from the dictionary and appends a uuid
// fragment, then registers the result in used. Collisions are
// defensively retried, though the uuid fragment makes one vanishingly
// unlikely.
func (d *Dictionary) NewName(rng *rand.Rand, used map[string]struct{}) string {
	for {
		candidate := fmt.Sprintf("%s-%s-%s", d.pick(rng), d.pick(rng), uuid.New().String()[:8])
		if _, exists := used[candidate]; exists {
			continue
		}
		used[candidate] = struct{}{}
		return candidate
	}
}

// Keywords draws n words (with repetition allowed across calls, not
// within a single call where possible) to use as a Product's keyword
// set.
func (d *Dictionary) Keywords(rng *rand.Rand, n int) []string {
	if n <= 0 {
		return nil
	}
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	attempts := 0
	for len(out) < n && attempts < n*8 {
		attempts++
		w := d.pick(rng)
		if _, exists := seen[w]; exists {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

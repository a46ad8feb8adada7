package classifier

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Category ids with a fixed role in the algorithm.
const (
	LeadershipCategory = "leadership-executive"
	FallbackCategory   = "operations-administration"
)

// CategorySpec declares one category's lexical signals.
type CategorySpec struct {
	ID           string     `yaml:"id"`
	Name         string     `yaml:"name"`
	Core         []string   `yaml:"core"`
	Support      []string   `yaml:"support"`
	ContextPairs [][]string `yaml:"context_pairs"`
}

// DictionarySpec is the declarative form of a keyword dictionary. Category
// order is significant: it is the tie-break when two categories score equally.
type DictionarySpec struct {
	Categories       []CategorySpec `yaml:"categories"`
	Fallback         string         `yaml:"fallback"`
	LeadershipTitles []string       `yaml:"leadership_titles"`
	StopWords        []string       `yaml:"stop_words"`
}

type phrase struct {
	text   string
	tokens []string
}

type contextPair struct {
	a, b phrase
}

type compiledCategory struct {
	id      string
	name    string
	core    []phrase
	support []phrase
	pairs   []contextPair
}

// Dictionary is an immutable, validated keyword dictionary. Build it once with
// NewDictionary, DefaultDictionary or LoadDictionary and share it by pointer.
type Dictionary struct {
	categories       []compiledCategory
	index            map[string]int
	fallback         string
	leadershipTitles []phrase
	stopWords        map[string]struct{}
	knownWords       map[string]struct{}
}

// NewDictionary validates spec and compiles it into a Dictionary.
func NewDictionary(spec DictionarySpec) (*Dictionary, error) {
	if len(spec.Categories) == 0 {
		return nil, fmt.Errorf("dictionary has no categories")
	}

	d := &Dictionary{
		index:      make(map[string]int, len(spec.Categories)),
		fallback:   spec.Fallback,
		stopWords:  make(map[string]struct{}, len(spec.StopWords)),
		knownWords: make(map[string]struct{}),
	}
	if d.fallback == "" {
		d.fallback = FallbackCategory
	}

	for _, cs := range spec.Categories {
		if cs.ID == "" {
			return nil, fmt.Errorf("category with empty id")
		}
		if _, dup := d.index[cs.ID]; dup {
			return nil, fmt.Errorf("duplicate category %q", cs.ID)
		}

		cc := compiledCategory{id: cs.ID, name: cs.Name}
		for _, kw := range cs.Core {
			p, err := d.compilePhrase(kw)
			if err != nil {
				return nil, fmt.Errorf("category %s core keyword: %w", cs.ID, err)
			}
			cc.core = append(cc.core, p)
		}
		for _, kw := range cs.Support {
			p, err := d.compilePhrase(kw)
			if err != nil {
				return nil, fmt.Errorf("category %s support keyword: %w", cs.ID, err)
			}
			cc.support = append(cc.support, p)
		}
		for _, pair := range cs.ContextPairs {
			if len(pair) != 2 {
				return nil, fmt.Errorf("category %s: context pair %v must have exactly 2 words", cs.ID, pair)
			}
			a, err := d.compilePhrase(pair[0])
			if err != nil {
				return nil, fmt.Errorf("category %s context pair: %w", cs.ID, err)
			}
			b, err := d.compilePhrase(pair[1])
			if err != nil {
				return nil, fmt.Errorf("category %s context pair: %w", cs.ID, err)
			}
			cc.pairs = append(cc.pairs, contextPair{a: a, b: b})
		}

		d.index[cs.ID] = len(d.categories)
		d.categories = append(d.categories, cc)
	}

	if _, ok := d.index[d.fallback]; !ok {
		return nil, fmt.Errorf("fallback category %q is not declared", d.fallback)
	}
	if _, ok := d.index[LeadershipCategory]; !ok {
		return nil, fmt.Errorf("category %q is not declared", LeadershipCategory)
	}

	for _, t := range spec.LeadershipTitles {
		tokens := tokenize(t)
		if len(tokens) == 0 {
			return nil, fmt.Errorf("empty leadership title phrase")
		}
		d.leadershipTitles = append(d.leadershipTitles, phrase{text: strings.Join(tokens, " "), tokens: tokens})
	}
	for _, w := range spec.StopWords {
		d.stopWords[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}

	return d, nil
}

// compilePhrase normalizes a keyword and records its words as known so they
// are never reported as emerging terms.
func (d *Dictionary) compilePhrase(s string) (phrase, error) {
	tokens := tokenize(s)
	if len(tokens) == 0 {
		return phrase{}, fmt.Errorf("empty keyword %q", s)
	}
	for _, t := range tokens {
		d.knownWords[t] = struct{}{}
	}
	return phrase{text: strings.Join(tokens, " "), tokens: tokens}, nil
}

// Categories returns the category ids in declaration order.
func (d *Dictionary) Categories() []string {
	ids := make([]string, len(d.categories))
	for i, c := range d.categories {
		ids[i] = c.id
	}
	return ids
}

// Has reports whether id is a declared category.
func (d *Dictionary) Has(id string) bool {
	_, ok := d.index[id]
	return ok
}

// Name returns the display name of a category, or the id when none is set.
func (d *Dictionary) Name(id string) string {
	i, ok := d.index[id]
	if !ok || d.categories[i].name == "" {
		return id
	}
	return d.categories[i].name
}

// Fallback returns the category used when nothing scores.
func (d *Dictionary) Fallback() string { return d.fallback }

// LoadDictionary reads a DictionarySpec from a YAML file and compiles it.
func LoadDictionary(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	var spec DictionarySpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse dictionary: %w", err)
	}
	d, err := NewDictionary(spec)
	if err != nil {
		return nil, fmt.Errorf("compile dictionary %s: %w", path, err)
	}
	return d, nil
}

// tokenize lowercases s and splits it into words of letters and digits.
// Every other rune is a separator, so "e-learning" becomes "e learning".
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// countPhrase counts whole-word occurrences of p in tokens.
func countPhrase(tokens []string, p phrase) int {
	n := len(p.tokens)
	count := 0
	for i := 0; i+n <= len(tokens); i++ {
		match := true
		for j := 0; j < n; j++ {
			if tokens[i+j] != p.tokens[j] {
				match = false
				break
			}
		}
		if match {
			count++
		}
	}
	return count
}

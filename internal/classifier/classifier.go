// Package classifier assigns postings to semantic categories with a
// deterministic keyword scorer. It performs no I/O.
package classifier

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/amishk599/jobatlas/internal/model"
)

const (
	maxScore             = 100
	leadershipConfidence = 95
	fallbackConfidence   = 25
	maxEmergingTerms     = 5
	minEmergingTerms     = 3 // more than this many must be found before any are surfaced
	minEmergingWordLen   = 3 // words must be longer than this
)

// Weights holds the scoring constants and thresholds. They are empirical
// defaults; DefaultWeights preserves the established values.
type Weights struct {
	Core               int // per core keyword occurrence
	Support            int // per support keyword occurrence
	ContextPair        int // per context pair whose words both occur
	TitleBonus         int // per core keyword present in the title
	SecondaryThreshold int // secondary categories must score above this
	LowConfidence      int // top score below this sets the low-confidence flag
	Ambiguous          int // runner-up above this sets the ambiguous flag
	MaxSecondary       int
}

// DefaultWeights returns the standard scoring constants.
func DefaultWeights() Weights {
	return Weights{
		Core:               40,
		Support:            20,
		ContextPair:        25,
		TitleBonus:         20,
		SecondaryThreshold: 30,
		LowConfidence:      40,
		Ambiguous:          60,
		MaxSecondary:       2,
	}
}

// Options configures a Classifier.
type Options struct {
	Weights Weights
	// LeadershipMinProfessional is the lowest P-grade that triggers the
	// leadership override.
	LeadershipMinProfessional int
}

// DefaultOptions returns DefaultWeights with P-5 as the leadership threshold.
func DefaultOptions() Options {
	return Options{Weights: DefaultWeights(), LeadershipMinProfessional: 5}
}

// Result is the outcome of classifying one posting.
type Result struct {
	Primary    string                    `json:"primary"`
	Confidence int                       `json:"confidence"`
	Secondary  []model.CategoryScore     `json:"secondary"`
	Reasoning  []string                  `json:"reasoning"`
	Flags      model.ClassificationFlags `json:"flags"`
}

// Classifier scores postings against an immutable Dictionary. It is safe for
// concurrent use.
type Classifier struct {
	dict *Dictionary
	opts Options
}

// New returns a Classifier over dict.
func New(dict *Dictionary, opts Options) *Classifier {
	return &Classifier{dict: dict, opts: opts}
}

// Dictionary returns the dictionary the classifier scores against.
func (c *Classifier) Dictionary() *Dictionary { return c.dict }

// Classify assigns p to a category. It never panics: any internal failure
// yields the fixed fallback result.
func (c *Classifier) Classify(p model.Posting) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = fallbackResult(fmt.Sprint(r))
		}
	}()

	if c == nil || c.dict == nil {
		return fallbackResult("no dictionary configured")
	}

	if trigger, ok := c.leadershipTrigger(p); ok {
		return Result{
			Primary:    LeadershipCategory,
			Confidence: leadershipConfidence,
			Secondary:  []model.CategoryScore{},
			Reasoning:  []string{"leadership override: " + trigger},
		}
	}

	return c.score(p)
}

func fallbackResult(reason string) Result {
	return Result{
		Primary:    FallbackCategory,
		Confidence: fallbackConfidence,
		Secondary:  []model.CategoryScore{},
		Reasoning:  []string{"classification fallback: " + reason},
		Flags:      model.ClassificationFlags{LowConfidence: true},
	}
}

func (c *Classifier) leadershipTrigger(p model.Posting) (string, bool) {
	if trigger, ok := leadershipGrade(p.Grade, c.opts.LeadershipMinProfessional); ok {
		return trigger, true
	}
	title := tokenize(p.Title)
	for _, lt := range c.dict.leadershipTitles {
		if countPhrase(title, lt) > 0 {
			return fmt.Sprintf("title contains %q", lt.text), true
		}
	}
	return "", false
}

type categoryScore struct {
	id      string
	raw     int
	score   int
	signals []string
}

func (c *Classifier) score(p model.Posting) Result {
	w := c.opts.Weights
	titleTokens := tokenize(p.Title)
	tokens := tokenize(p.Title + " " + p.Description + " " + strings.Join(p.Labels, " "))

	scores := make([]categoryScore, len(c.dict.categories))
	for i, cat := range c.dict.categories {
		cs := categoryScore{id: cat.id}

		for _, kw := range cat.core {
			if n := countPhrase(tokens, kw); n > 0 {
				cs.raw += n * w.Core
				cs.signals = append(cs.signals, fmt.Sprintf("core keyword %q matched %dx (+%d)", kw.text, n, n*w.Core))
			}
		}
		for _, kw := range cat.support {
			if n := countPhrase(tokens, kw); n > 0 {
				cs.raw += n * w.Support
				cs.signals = append(cs.signals, fmt.Sprintf("support keyword %q matched %dx (+%d)", kw.text, n, n*w.Support))
			}
		}
		for _, pair := range cat.pairs {
			if countPhrase(tokens, pair.a) > 0 && countPhrase(tokens, pair.b) > 0 {
				cs.raw += w.ContextPair
				cs.signals = append(cs.signals, fmt.Sprintf("context pair %q + %q (+%d)", pair.a.text, pair.b.text, w.ContextPair))
			}
		}
		for _, kw := range cat.core {
			if countPhrase(titleTokens, kw) > 0 {
				cs.raw += w.TitleBonus
				cs.signals = append(cs.signals, fmt.Sprintf("title contains core keyword %q (+%d)", kw.text, w.TitleBonus))
			}
		}

		cs.score = clamp(cs.raw, 0, maxScore)
		scores[i] = cs
	}

	// Stable: equal scores keep declaration order.
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	res := Result{Secondary: []model.CategoryScore{}}
	top := scores[0]

	if top.score <= 0 {
		res.Primary = c.dict.fallback
		res.Confidence = 0
		res.Reasoning = append(res.Reasoning, fmt.Sprintf("no category keywords matched; defaulted to %s", c.dict.fallback))
	} else {
		res.Primary = top.id
		res.Confidence = top.score
		res.Reasoning = append(res.Reasoning, fmt.Sprintf("primary category %s scored %d", top.id, top.score))
		res.Reasoning = append(res.Reasoning, top.signals...)
		if top.raw > maxScore {
			res.Reasoning = append(res.Reasoning, fmt.Sprintf("score clamped from %d to %d", top.raw, maxScore))
		}

		for _, cs := range scores[1:] {
			if len(res.Secondary) == w.MaxSecondary {
				break
			}
			if cs.score > w.SecondaryThreshold {
				res.Secondary = append(res.Secondary, model.CategoryScore{Category: cs.id, Confidence: cs.score})
			}
		}
		if len(res.Secondary) > 0 {
			parts := make([]string, len(res.Secondary))
			for i, s := range res.Secondary {
				parts[i] = s.Category + " (" + strconv.Itoa(s.Confidence) + ")"
			}
			res.Reasoning = append(res.Reasoning, "secondary categories: "+strings.Join(parts, ", "))
		}
	}

	if top.score < w.LowConfidence {
		res.Flags.LowConfidence = true
		res.Reasoning = append(res.Reasoning, fmt.Sprintf("low confidence: top score %d is below %d", top.score, w.LowConfidence))
	}
	if len(scores) > 1 && scores[1].score > w.Ambiguous {
		res.Flags.Ambiguous = true
		res.Reasoning = append(res.Reasoning, fmt.Sprintf("ambiguous: runner-up %s scored %d", scores[1].id, scores[1].score))
	}
	if terms := c.emergingTerms(tokens); len(terms) > 0 {
		res.Flags.EmergingTerms = terms
		res.Reasoning = append(res.Reasoning, "emerging terms: "+strings.Join(terms, ", "))
	}

	return res
}

// emergingTerms lists words that no category knows about, for dictionary
// maintenance. Nothing is returned unless more than minEmergingTerms are found.
func (c *Classifier) emergingTerms(tokens []string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, t := range tokens {
		if utf8.RuneCountInString(t) <= minEmergingWordLen || isNumeric(t) {
			continue
		}
		if _, ok := c.dict.stopWords[t]; ok {
			continue
		}
		if _, ok := c.dict.knownWords[t]; ok {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	if len(terms) <= minEmergingTerms {
		return nil
	}
	if len(terms) > maxEmergingTerms {
		terms = terms[:maxEmergingTerms]
	}
	return terms
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package classifier_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobatlas/internal/classifier"
	"github.com/amishk599/jobatlas/internal/model"
)

func defaultClassifier() *classifier.Classifier {
	return classifier.New(classifier.DefaultDictionary(), classifier.DefaultOptions())
}

// testDictionary wraps cats with the two categories every dictionary must declare.
func testDictionary(t *testing.T, cats ...classifier.CategorySpec) *classifier.Dictionary {
	t.Helper()
	spec := classifier.DictionarySpec{
		Categories: append([]classifier.CategorySpec{
			{ID: classifier.LeadershipCategory, Core: []string{"executive"}},
		}, cats...),
	}
	spec.Categories = append(spec.Categories, classifier.CategorySpec{
		ID: classifier.FallbackCategory, Core: []string{"clerk"},
	})
	d, err := classifier.NewDictionary(spec)
	require.NoError(t, err)
	return d
}

func TestClassify_LeadershipGradeOverride(t *testing.T) {
	c := defaultClassifier()

	res := c.Classify(model.Posting{Grade: "D-1", Title: "Programme Specialist"})

	assert.Equal(t, classifier.LeadershipCategory, res.Primary)
	assert.Equal(t, 95, res.Confidence)
	require.Len(t, res.Reasoning, 1)
	assert.Contains(t, res.Reasoning[0], `grade "D-1"`)
	assert.Empty(t, res.Secondary)
}

func TestClassify_LeadershipOverridesKeywordContent(t *testing.T) {
	c := defaultClassifier()

	for _, grade := range []string{"USG", "ASG", "D-2", "D1", "P-5", "P6"} {
		t.Run(grade, func(t *testing.T) {
			res := c.Classify(model.Posting{
				Grade:       grade,
				Title:       "Software Developer",
				Description: "machine learning cloud devops software software",
			})
			assert.Equal(t, classifier.LeadershipCategory, res.Primary)
			assert.Equal(t, 95, res.Confidence)
		})
	}
}

func TestClassify_LeadershipTitlePhrase(t *testing.T) {
	c := defaultClassifier()

	res := c.Classify(model.Posting{Grade: "P-4", Title: "Head of Communications Unit"})

	assert.Equal(t, classifier.LeadershipCategory, res.Primary)
	assert.Equal(t, 95, res.Confidence)
	assert.Contains(t, res.Reasoning[0], `title contains "head of"`)
}

func TestClassify_BelowLeadershipThresholdIsScored(t *testing.T) {
	c := defaultClassifier()

	res := c.Classify(model.Posting{Grade: "P-4", Title: "Software Developer"})

	assert.Equal(t, "digital-technology", res.Primary)
}

func TestClassify_CoreKeywordsClampAt100(t *testing.T) {
	c := defaultClassifier()

	res := c.Classify(model.Posting{
		Title:       "Software Engineer",
		Description: "Build machine learning pipelines. Experience with machine learning is essential.",
	})

	// software 1x (+40), machine learning 2x (+80), title bonus software (+20) = 140.
	assert.Equal(t, "digital-technology", res.Primary)
	assert.Equal(t, 100, res.Confidence)
	assert.Contains(t, res.Reasoning, `core keyword "machine learning" matched 2x (+80)`)
	assert.Contains(t, res.Reasoning, `title contains core keyword "software" (+20)`)
	assert.Contains(t, res.Reasoning, "score clamped from 140 to 100")
	assert.False(t, res.Flags.LowConfidence)
	assert.False(t, res.Flags.Ambiguous)
	assert.Empty(t, res.Flags.EmergingTerms)
}

func TestClassify_ReportsExactScoreBelowClamp(t *testing.T) {
	c := defaultClassifier()

	res := c.Classify(model.Posting{Title: "Analyst", Description: "Maintain cloud services."})

	assert.Equal(t, "digital-technology", res.Primary)
	assert.Equal(t, 40, res.Confidence)
	assert.False(t, res.Flags.LowConfidence)
}

func TestClassify_NoSignalFallsBack(t *testing.T) {
	c := defaultClassifier()

	res := c.Classify(model.Posting{Title: "Xyz"})

	assert.Equal(t, classifier.FallbackCategory, res.Primary)
	assert.Equal(t, 0, res.Confidence)
	assert.True(t, res.Flags.LowConfidence)
	assert.Empty(t, res.Secondary)
}

func TestClassify_TieBreakKeepsDeclarationOrder(t *testing.T) {
	d := testDictionary(t,
		classifier.CategorySpec{ID: "second", Core: []string{"alpha"}},
		classifier.CategorySpec{ID: "first", Core: []string{"alpha"}},
	)
	c := classifier.New(d, classifier.DefaultOptions())

	res := c.Classify(model.Posting{Description: "alpha"})

	assert.Equal(t, "second", res.Primary)
	assert.Equal(t, 40, res.Confidence)
	require.Len(t, res.Secondary, 1)
	assert.Equal(t, model.CategoryScore{Category: "first", Confidence: 40}, res.Secondary[0])
}

func TestClassify_SecondaryThresholdAndAmbiguity(t *testing.T) {
	d := testDictionary(t,
		classifier.CategorySpec{ID: "a", Core: []string{"alpha"}},
		classifier.CategorySpec{ID: "b", Core: []string{"beta"}},
		classifier.CategorySpec{ID: "g", Support: []string{"gamma"}},
	)
	c := classifier.New(d, classifier.DefaultOptions())

	res := c.Classify(model.Posting{Description: "alpha alpha beta gamma"})
	assert.Equal(t, "a", res.Primary)
	assert.Equal(t, 80, res.Confidence)
	assert.Equal(t, []model.CategoryScore{{Category: "b", Confidence: 40}}, res.Secondary)
	assert.False(t, res.Flags.Ambiguous)

	res = c.Classify(model.Posting{Description: "alpha alpha alpha beta beta"})
	assert.Equal(t, "a", res.Primary)
	assert.Equal(t, 100, res.Confidence)
	assert.True(t, res.Flags.Ambiguous)
}

func TestClassify_SecondaryCappedAtTwo(t *testing.T) {
	d := testDictionary(t,
		classifier.CategorySpec{ID: "a", Core: []string{"alpha"}},
		classifier.CategorySpec{ID: "b", Core: []string{"beta"}},
		classifier.CategorySpec{ID: "c", Core: []string{"gamma"}},
		classifier.CategorySpec{ID: "d", Core: []string{"delta"}},
	)
	c := classifier.New(d, classifier.DefaultOptions())

	res := c.Classify(model.Posting{Description: "alpha alpha beta gamma delta"})

	assert.Equal(t, "a", res.Primary)
	assert.Equal(t, []model.CategoryScore{
		{Category: "b", Confidence: 40},
		{Category: "c", Confidence: 40},
	}, res.Secondary)
}

func TestClassify_ContextPairAndTitleBonus(t *testing.T) {
	d := testDictionary(t,
		classifier.CategorySpec{ID: "water", Core: []string{"hydrology"}, ContextPairs: [][]string{{"river", "bank"}}},
	)
	c := classifier.New(d, classifier.DefaultOptions())

	res := c.Classify(model.Posting{Description: "a bank near the river"})
	assert.Equal(t, "water", res.Primary)
	assert.Equal(t, 25, res.Confidence)
	assert.True(t, res.Flags.LowConfidence)

	res = c.Classify(model.Posting{Title: "Hydrology Officer"})
	assert.Equal(t, 60, res.Confidence)
}

func TestClassify_WholeWordMatching(t *testing.T) {
	d := testDictionary(t, classifier.CategorySpec{ID: "it", Core: []string{"ict"}})
	c := classifier.New(d, classifier.DefaultOptions())

	res := c.Classify(model.Posting{Description: "strict district restrictions"})

	assert.Equal(t, classifier.FallbackCategory, res.Primary)
	assert.Equal(t, 0, res.Confidence)
}

func TestClassify_LabelsContributeToText(t *testing.T) {
	c := defaultClassifier()

	res := c.Classify(model.Posting{Title: "Officer", Labels: []string{"Procurement", "Logistics"}})

	assert.Equal(t, "supply-chain-logistics", res.Primary)
	assert.Equal(t, 80, res.Confidence)
}

func TestClassify_EmergingTerms(t *testing.T) {
	d := testDictionary(t, classifier.CategorySpec{ID: "a", Core: []string{"alpha"}})
	c := classifier.New(d, classifier.DefaultOptions())

	res := c.Classify(model.Posting{Description: "alpha zephyr quasar nebula pulsar comets quasar"})
	assert.Equal(t, []string{"zephyr", "quasar", "nebula", "pulsar", "comets"}, res.Flags.EmergingTerms)

	res = c.Classify(model.Posting{Description: "alpha zephyr quasar nebula"})
	assert.Empty(t, res.Flags.EmergingTerms, "three unknown words are not enough to surface")

	res = c.Classify(model.Posting{Description: "alpha tiny odd 2024 12345 zephyr"})
	assert.Empty(t, res.Flags.EmergingTerms, "short and numeric words are ignored")
}

func TestClassify_NilDictionaryReturnsFallback(t *testing.T) {
	var c classifier.Classifier

	res := c.Classify(model.Posting{Title: "Software Developer"})

	assert.Equal(t, classifier.FallbackCategory, res.Primary)
	assert.Equal(t, 25, res.Confidence)
	assert.Contains(t, res.Reasoning[0], "classification fallback")
}

func TestClassify_Deterministic(t *testing.T) {
	c := defaultClassifier()
	p := model.Posting{
		Title:       "Climate Adaptation Specialist",
		Description: "Support climate adaptation and disaster risk reduction programmes with strong monitoring.",
		Labels:      []string{"environment", "resilience"},
	}

	first := c.Classify(p)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify(p))
	}
}

func TestClassify_ConfidenceBoundsAndCategorySet(t *testing.T) {
	c := defaultClassifier()
	d := classifier.DefaultDictionary()
	postings := []model.Posting{
		{},
		{Title: "Nurse", Description: "health health health clinical vaccine malaria hospital"},
		{Title: "Finance Assistant", Grade: "G-5", Description: "budget accounting payroll"},
		{Title: "Consultant", Grade: "Consultant"},
		{Title: "Regional Director", Grade: "D-2"},
		{Title: "Refugee Protection Officer", Description: "emergency response for refugees and displaced people"},
		{Description: "économie développement santé"},
	}

	for _, p := range postings {
		res := c.Classify(p)
		assert.GreaterOrEqual(t, res.Confidence, 0)
		assert.LessOrEqual(t, res.Confidence, 100)
		assert.True(t, d.Has(res.Primary), "primary %q must be a declared category", res.Primary)
		for _, s := range res.Secondary {
			assert.Greater(t, s.Confidence, 30)
			assert.True(t, d.Has(s.Category))
		}
	}
}

func TestNewDictionary_Validation(t *testing.T) {
	cases := []struct {
		name string
		spec classifier.DictionarySpec
	}{
		{"empty", classifier.DictionarySpec{}},
		{"missing fallback", classifier.DictionarySpec{Categories: []classifier.CategorySpec{{ID: classifier.LeadershipCategory}}}},
		{"missing leadership", classifier.DictionarySpec{Categories: []classifier.CategorySpec{{ID: classifier.FallbackCategory}}}},
		{"duplicate", classifier.DictionarySpec{Categories: []classifier.CategorySpec{
			{ID: classifier.LeadershipCategory}, {ID: classifier.FallbackCategory}, {ID: classifier.FallbackCategory},
		}}},
		{"bad pair", classifier.DictionarySpec{Categories: []classifier.CategorySpec{
			{ID: classifier.LeadershipCategory}, {ID: classifier.FallbackCategory, ContextPairs: [][]string{{"one"}}},
		}}},
		{"empty keyword", classifier.DictionarySpec{Categories: []classifier.CategorySpec{
			{ID: classifier.LeadershipCategory, Core: []string{"--"}}, {ID: classifier.FallbackCategory},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := classifier.NewDictionary(tc.spec)
			assert.Error(t, err)
		})
	}
}

func TestDefaultDictionary_Shape(t *testing.T) {
	d := classifier.DefaultDictionary()

	ids := d.Categories()
	assert.Equal(t, classifier.LeadershipCategory, ids[0])
	assert.Contains(t, ids, "digital-technology")
	assert.True(t, d.Has(classifier.FallbackCategory))
	assert.Equal(t, classifier.FallbackCategory, d.Fallback())
	assert.Equal(t, "Digital & Technology", d.Name("digital-technology"))
	assert.Same(t, d, classifier.DefaultDictionary())
}

func TestLoadDictionary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.yaml")
	content := `
fallback: operations-administration
leadership_titles: ["chief of"]
categories:
  - id: leadership-executive
    core: [executive]
  - id: water
    name: Water
    core: [hydrology]
    support: [rivers]
    context_pairs:
      - [river, bank]
  - id: operations-administration
    core: [clerk]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	d, err := classifier.LoadDictionary(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"leadership-executive", "water", "operations-administration"}, d.Categories())

	c := classifier.New(d, classifier.DefaultOptions())
	res := c.Classify(model.Posting{Title: "Hydrology Officer", Description: "rivers"})
	assert.Equal(t, "water", res.Primary)
	assert.Equal(t, 80, res.Confidence)

	res = c.Classify(model.Posting{Title: "Chief of Section"})
	assert.Equal(t, classifier.LeadershipCategory, res.Primary)
}

func TestLoadDictionary_Errors(t *testing.T) {
	_, err := classifier.LoadDictionary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [broken"), 0644))
	_, err = classifier.LoadDictionary(path)
	assert.Error(t, err)
}

func TestSeniority(t *testing.T) {
	cases := map[string]string{
		"USG":         classifier.SeniorityExecutive,
		"ASG":         classifier.SeniorityExecutive,
		"D-1":         classifier.SeniorityExecutive,
		"d-2":         classifier.SeniorityExecutive,
		"P-5":         classifier.SenioritySenior,
		"P-4":         classifier.SenioritySenior,
		"P-3":         classifier.SeniorityMid,
		"P2":          classifier.SeniorityEntry,
		"P-1":         classifier.SeniorityEntry,
		"NO-D":        classifier.SenioritySenior,
		"NO-C":        classifier.SeniorityMid,
		"NO-A":        classifier.SeniorityEntry,
		"G-7":         classifier.SenioritySenior,
		"G-6":         classifier.SeniorityMid,
		"G-4":         classifier.SeniorityEntry,
		"Internship":  classifier.SeniorityIntern,
		"Consultancy": classifier.SeniorityConsultant,
		"Consultant":  classifier.SeniorityConsultant,
		"UNV":         classifier.SeniorityVolunteer,
		"Volunteer":   classifier.SeniorityVolunteer,
		"":            classifier.SeniorityUnknown,
		"FS-5":        classifier.SeniorityUnknown,
	}
	for grade, want := range cases {
		assert.Equal(t, want, classifier.Seniority(grade), "Seniority(%q)", grade)
	}
}

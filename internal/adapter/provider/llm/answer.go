package llm

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

const explanationLimit = 300

type answer struct {
	PossibleTriggers *[]string `json:"possibleTriggers"`
	Explanation      *string   `json:"explanation"`
}

// parseSuggestion accepts a JSON object with possibleTriggers and
// explanation, optionally wrapped in a Markdown code fence.
func parseSuggestion(text string) (*domain.Suggestion, error) {
	var a answer
	if err := json.Unmarshal([]byte(sanitizeJSONText(text)), &a); err != nil {
		return nil, err
	}
	if a.PossibleTriggers == nil {
		return nil, errors.New("possibleTriggers missing")
	}
	if a.Explanation == nil {
		return nil, errors.New("explanation missing")
	}
	return &domain.Suggestion{
		PossibleTriggers: *a.PossibleTriggers,
		Explanation:      *a.Explanation,
		Source:           domain.SuggestionSourceModel,
	}, nil
}

func sanitizeJSONText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	firstNL := strings.IndexByte(s, '\n')
	if firstNL == -1 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	s = s[firstNL+1:]

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// degraded builds a suggestion from free text by matching known food words.
func degraded(text string) *domain.Suggestion {
	explanation := text
	if r := []rune(text); len(r) > explanationLimit {
		explanation = string(r[:explanationLimit])
	}
	return &domain.Suggestion{
		PossibleTriggers: extractTriggers(text),
		Explanation:      explanation + "...",
		Source:           domain.SuggestionSourceDegraded,
	}
}

// extractTriggers returns the vocabulary words found in text, capitalized,
// in order of first appearance.
func extractTriggers(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })

	triggers := []string{}
	seen := make(map[string]struct{})
	for _, w := range words {
		lower := strings.ToLower(w)
		if _, ok := vocabulary[lower]; !ok {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		triggers = append(triggers, capitalize(lower))
	}
	return triggers
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

var vocabulary = func() map[string]struct{} {
	words := []string{
		// German
		"paprika", "nudelauflauf", "apfel", "banane", "milch", "ei", "nuss", "weizen",
		"soja", "fisch", "meeresfrüchte", "erdnuss", "tomate", "zitrus", "schokolade",
		"käse", "brot", "fleisch", "reis", "kartoffel", "zwiebel", "knoblauch", "gewürz",
		"kräuter", "öl", "butter", "zucker", "honig", "joghurt", "quark", "sahne",
		"mandel", "haselnuss", "walnuss", "cashew", "sesam", "senf", "sellerie",
		"petersilie", "dill", "basilikum", "oregano", "thymian", "rosmarin", "pfeffer",
		"chili", "curry", "ingwer", "zimt", "vanille", "kakao", "kaffee", "tee",
		"alkohol", "bier", "wein", "limonade", "saft", "wasser",
		// English
		"apple", "banana", "milk", "egg", "nut", "wheat", "soy", "fish", "seafood",
		"shellfish", "peanut", "tomato", "citrus", "chocolate", "cheese", "bread",
		"meat", "rice", "potato", "onion", "garlic", "spice", "herbs", "oil", "sugar",
		"honey", "yogurt", "cream", "almond", "hazelnut", "walnut", "sesame", "mustard",
		"celery", "parsley", "basil", "thyme", "rosemary", "pepper", "ginger",
		"cinnamon", "vanilla", "cocoa", "coffee", "tea", "alcohol", "beer", "wine",
		"lemonade", "juice", "water", "gluten", "shrimp", "strawberry",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// illustrative is the canned development response. It is flagged so that it
// is never shown as analysis.
func illustrative(now time.Time) *domain.Suggestion {
	return &domain.Suggestion{
		PossibleTriggers: []string{"Paprika", "Pasta bake"},
		Explanation: "Illustrative example, not an analysis of your data: paprika and pasta bake " +
			"often appear together with digestive symptoms. Please consult a doctor for a professional diagnosis.",
		Source:      domain.SuggestionSourceIllustrative,
		GeneratedAt: now.UTC(),
	}
}

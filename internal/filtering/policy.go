// Package filtering decides which vulnerability texts are worth reporting.
package filtering

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	cverrors "cvereporter/internal/errors"
)

// PolicyConfig is the on-disk keyword configuration.
type PolicyConfig struct {
	AcceptAll            bool     `yaml:"ALL_VALID"`
	DescriptionKeywords  []string `yaml:"DESCRIPTION_KEYWORDS"`
	DescriptionKeywordsI []string `yaml:"DESCRIPTION_KEYWORDS_I"`
	ProductKeywords      []string `yaml:"PRODUCT_KEYWORDS"`
	ProductKeywordsI     []string `yaml:"PRODUCT_KEYWORDS_I"`
}

// Policy is a validated, immutable keyword policy.
type Policy struct {
	acceptAll   bool
	description keywordSet
	product     keywordSet
}

type keywordSet struct {
	sensitive   []keyword
	insensitive []keyword
}

type keyword struct {
	text    string
	pattern *regexp.Regexp
}

// LoadPolicy reads and validates a YAML keyword file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cverrors.NewConfigurationError("keywords_file", "cannot read "+path, err)
	}

	var cfg PolicyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, cverrors.NewConfigurationError("keywords_file", "invalid YAML in "+path, err)
	}

	return NewPolicy(cfg)
}

// NewPolicy validates cfg and compiles its keywords. Case-insensitive
// keywords are lower-cased here so matching never has to.
func NewPolicy(cfg PolicyConfig) (*Policy, error) {
	p := &Policy{acceptAll: cfg.AcceptAll}

	var err error
	if p.description.sensitive, err = compileKeywords("DESCRIPTION_KEYWORDS", cfg.DescriptionKeywords, false); err != nil {
		return nil, err
	}
	if p.description.insensitive, err = compileKeywords("DESCRIPTION_KEYWORDS_I", cfg.DescriptionKeywordsI, true); err != nil {
		return nil, err
	}
	if p.product.sensitive, err = compileKeywords("PRODUCT_KEYWORDS", cfg.ProductKeywords, false); err != nil {
		return nil, err
	}
	if p.product.insensitive, err = compileKeywords("PRODUCT_KEYWORDS_I", cfg.ProductKeywordsI, true); err != nil {
		return nil, err
	}

	return p, nil
}

// nonWord matches one character outside Unicode letters, numbers and
// underscore. RE2's \b only knows ASCII word characters.
const nonWord = `[^\pL\pN_]`

func compileKeywords(field string, words []string, lower bool) ([]keyword, error) {
	compiled := make([]keyword, 0, len(words))
	for i, w := range words {
		if lower {
			w = strings.ToLower(w)
		}
		if err := validateKeyword(w); err != nil {
			return nil, cverrors.NewConfigurationError(fmt.Sprintf("%s[%d]", field, i), err.Error(), nil)
		}

		pattern, err := regexp.Compile(`(?:^|` + nonWord + `)(` + regexp.QuoteMeta(w) + `)(?:` + nonWord + `|$)`)
		if err != nil {
			return nil, cverrors.NewConfigurationError(fmt.Sprintf("%s[%d]", field, i), "cannot compile keyword "+w, err)
		}
		compiled = append(compiled, keyword{text: w, pattern: pattern})
	}
	return compiled, nil
}

// validateKeyword rejects keywords a word boundary can never delimit,
// e.g. "c++" or " ssh". Word characters are Unicode letters, numbers and underscore.
func validateKeyword(w string) error {
	if strings.TrimSpace(w) == "" {
		return fmt.Errorf("empty keyword")
	}
	first, _ := utf8.DecodeRuneInString(w)
	last, _ := utf8.DecodeLastRuneInString(w)
	if !isWordRune(first) || !isWordRune(last) {
		return fmt.Errorf("keyword %q must start and end with a letter, digit or underscore", w)
	}
	return nil
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// AcceptAll reports whether every record qualifies regardless of keywords.
func (p *Policy) AcceptAll() bool {
	return p.acceptAll
}

// Empty reports whether the policy can never qualify a record.
func (p *Policy) Empty() bool {
	return !p.acceptAll && p.KeywordCount() == 0
}

// KeywordCount returns the number of configured keywords across all lists.
func (p *Policy) KeywordCount() int {
	return len(p.description.sensitive) + len(p.description.insensitive) +
		len(p.product.sensitive) + len(p.product.insensitive)
}

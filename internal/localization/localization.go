package localization

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed translations/*.yaml
var translationsFS embed.FS

const DefaultLanguage = "en"

var Languages = []string{"ru", "en"}

type Service struct {
	translations map[string]map[string]interface{}
}

func NewService() (*Service, error) {
	s := &Service{
		translations: make(map[string]map[string]interface{}),
	}

	for _, lang := range Languages {
		data, err := translationsFS.ReadFile(fmt.Sprintf("translations/%s.yaml", lang))
		if err != nil {
			return nil, fmt.Errorf("read %s translations: %w", lang, err)
		}

		var translations map[string]interface{}
		if err := yaml.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("parse %s translations: %w", lang, err)
		}

		s.translations[lang] = translations
	}

	return s, nil
}

// Get retrieves a translation by key for the given language.
// Key format: "section.key". Params replace {{name}} placeholders.
// Unknown languages fall back to English, unknown keys are returned as is.
func (s *Service) Get(lang, key string, params map[string]string) string {
	text, ok := s.lookup(lang, key)
	if !ok {
		return key
	}
	return replacePlaceholders(text, params)
}

// Variants returns the text of key in every language. Used to match reply
// keyboard buttons regardless of the language they were rendered in.
func (s *Service) Variants(key string) []string {
	variants := make([]string, 0, len(Languages))
	for _, lang := range Languages {
		if text, ok := s.lookup(lang, key); ok {
			variants = append(variants, text)
		}
	}
	return variants
}

// Matches reports whether text equals key in any language.
func (s *Service) Matches(key, text string) bool {
	for _, v := range s.Variants(key) {
		if v == text {
			return true
		}
	}
	return false
}

func (s *Service) lookup(lang, key string) (string, bool) {
	langTranslations, ok := s.translations[lang]
	if !ok {
		langTranslations = s.translations[DefaultLanguage]
	}

	var current interface{} = langTranslations
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return "", false
		}
		current = m[part]
	}

	text, ok := current.(string)
	return text, ok
}

func replacePlaceholders(text string, params map[string]string) string {
	if len(params) == 0 {
		return text
	}

	pairs := make([]string, 0, len(params)*2)
	for key, value := range params {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

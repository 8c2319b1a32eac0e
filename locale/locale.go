// Package locale translates content text keys. Locale files are YAML
// documents named after their language tag (en.yaml, fr-CA.yaml); nested
// maps flatten to dotted keys.
package locale

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is the locale used when nothing else is configured.
const DefaultLocale = "en"

// Option configures a Manager.
type Option func(*Manager)

// WithFallback sets the last locale tried for every key.
func WithFallback(code string) Option {
	return func(m *Manager) { m.fallback = canonical(code) }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manager holds loaded translations and the active locale.
type Manager struct {
	current      string
	fallback     string
	translations map[string]map[string]string
	missing      map[string]struct{}
	logger       *zap.Logger
}

// New creates a manager with locale as the active locale.
func New(locale string, opts ...Option) *Manager {
	m := &Manager{
		current:      canonical(locale),
		fallback:     DefaultLocale,
		translations: map[string]map[string]string{},
		missing:      map[string]struct{}{},
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadDir loads every *.yaml file in dir as one locale. A missing directory
// loads nothing.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Debug("no locales directory", zap.String("dir", dir))
			return nil
		}
		return fmt.Errorf("reading locales directory %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("reading locale %s: %w", e.Name(), err)
		}
		code := strings.TrimSuffix(e.Name(), ".yaml")
		if err := m.Load(code, data); err != nil {
			return fmt.Errorf("locale %s: %w", e.Name(), err)
		}
	}
	return nil
}

// Load replaces the translations of locale code with the YAML document data.
func (m *Manager) Load(code string, data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing locale data: %w", err)
	}
	flat := map[string]string{}
	flatten(doc, "", flat)

	code = canonical(code)
	m.translations[code] = flat
	m.logger.Debug("locale loaded", zap.String("locale", code), zap.Int("keys", len(flat)))
	return nil
}

// SetLocale switches the active locale. Unloaded locales are allowed; keys
// then resolve through the fallback chain.
func (m *Manager) SetLocale(code string) {
	m.current = canonical(code)
}

// Locale returns the active locale.
func (m *Manager) Locale() string {
	return m.current
}

// Translate returns the text for key, trying the active locale, its base
// language and then the fallback. Unknown keys are recorded and returned
// unchanged.
func (m *Manager) Translate(key string) string {
	for _, code := range m.chain() {
		if text, ok := m.translations[code][key]; ok {
			return text
		}
	}
	if _, seen := m.missing[key]; !seen {
		m.missing[key] = struct{}{}
		m.logger.Debug("missing translation", zap.String("key", key), zap.String("locale", m.current))
	}
	return key
}

// Has reports whether key resolves anywhere in the fallback chain.
func (m *Manager) Has(key string) bool {
	for _, code := range m.chain() {
		if _, ok := m.translations[code][key]; ok {
			return true
		}
	}
	return false
}

// Available returns the loaded locales in sorted order.
func (m *Manager) Available() []string {
	codes := make([]string, 0, len(m.translations))
	for code := range m.translations {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// MissingKeys returns every key Translate could not resolve, sorted.
func (m *Manager) MissingKeys() []string {
	keys := make([]string, 0, len(m.missing))
	for k := range m.missing {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ExportMissing writes the missing keys to path as a YAML locale template
// with empty values. Nothing is written when no key is missing.
func (m *Manager) ExportMissing(path string) error {
	if len(m.missing) == 0 {
		return nil
	}
	template := make(map[string]string, len(m.missing))
	for k := range m.missing {
		template[k] = ""
	}
	data, err := yaml.Marshal(template)
	if err != nil {
		return fmt.Errorf("encoding missing keys: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing missing keys: %w", err)
	}
	return nil
}

// chain is the lookup order for the active locale.
func (m *Manager) chain() []string {
	chain := []string{m.current}
	if tag, err := language.Parse(m.current); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			if b := base.String(); !slices.Contains(chain, b) {
				chain = append(chain, b)
			}
		}
	}
	if !slices.Contains(chain, m.fallback) {
		chain = append(chain, m.fallback)
	}
	return chain
}

// canonical normalizes a locale code (fr_ca, FR-ca) to its BCP 47 form.
// Codes that do not parse are kept as written.
func canonical(code string) string {
	code = strings.TrimSpace(code)
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return code
	}
	return tag.String()
}

func flatten(data map[string]any, prefix string, out map[string]string) {
	for k, v := range data {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(val, key, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

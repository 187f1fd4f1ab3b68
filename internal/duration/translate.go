package duration

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Translator maps an English label to the display language. namespace is
// opaque here; implementations use it to pick a catalogue.
type Translator interface {
	Translate(text, namespace string) string
}

// TranslatorFunc adapts a plain function to Translator.
type TranslatorFunc func(text, namespace string) string

func (f TranslatorFunc) Translate(text, namespace string) string {
	return f(text, namespace)
}

// Identity returns labels unchanged.
var Identity Translator = TranslatorFunc(func(text, _ string) string { return text })

// CatalogTranslator serves one namespace from an x/text message catalogue.
// Labels without an entry, and other namespaces, pass through unchanged.
type CatalogTranslator struct {
	namespace string
	entries   map[string]struct{}
	printer   *message.Printer
}

// NewCatalogTranslator registers entries (English label -> translation) for tag.
func NewCatalogTranslator(namespace string, tag language.Tag, entries map[string]string) (*CatalogTranslator, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	known := make(map[string]struct{}, len(entries))
	for key, msg := range entries {
		if err := b.SetString(tag, key, msg); err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w", key, err)
		}
		known[key] = struct{}{}
	}
	return &CatalogTranslator{
		namespace: namespace,
		entries:   known,
		printer:   message.NewPrinter(tag, message.Catalog(b)),
	}, nil
}

func (c *CatalogTranslator) Translate(text, namespace string) string {
	if namespace != c.namespace {
		return text
	}
	if _, ok := c.entries[text]; !ok {
		return text
	}
	return c.printer.Sprintf(text)
}

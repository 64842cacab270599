package extractor

import (
	"fmt"

	"ocrdesk/internal/config"
	"ocrdesk/internal/port"
)

// ProviderFactory is a function that creates an InvoiceExtractor from an extractor config.
type ProviderFactory func(cfg *config.ExtractorConfig) (port.InvoiceExtractor, error)

// registry of extractor provider factories, populated explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers an extractor provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewExtractor creates an InvoiceExtractor from config using the registered factory.
func NewExtractor(cfg *config.ExtractorConfig) (port.InvoiceExtractor, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown extractor provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

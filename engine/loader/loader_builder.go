package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithDocument is an option builder that pre-populates the document cache.
//
// Parameters:
//   - key: the cache key
//   - doc: the document to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the document option to a loader
func WithDocument(key string, doc *Document) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[key] = doc
	}
}

// WithValidation turns schema validation on or off. It is on by default.
func WithValidation(enabled bool) LoaderBuilderOption {
	return func(l *loader) {
		l.validate = enabled
	}
}

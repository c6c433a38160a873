package extract

// Extractor turns raw HTML into a Document. The crawler depends on this
// interface so tests can substitute canned documents.
type Extractor interface {
	Extract(input []byte) (Document, error)
}

// HTMLExtractor is the default Extractor backed by Parse.
type HTMLExtractor struct{}

func (HTMLExtractor) Extract(input []byte) (Document, error) {
	return Parse(input)
}

package tokenization

// Tokenizer splits text into morphological tokens. Implementations must be
// safe for concurrent use.
type Tokenizer interface {
	Tokenize(text string) ([]Token, error)
}

// DebugTokenizer additionally exposes the analysis lattice as a dot graph.
type DebugTokenizer interface {
	Tokenizer
	DebugAnalyze(text string) (string, error)
}

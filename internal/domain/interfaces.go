package domain

// Splitter turns raw text into an ordered list of chunk strings.
// Splitting is pure and deterministic: identical input yields
// byte-identical output.
type Splitter interface {
	Split(text string) []string
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

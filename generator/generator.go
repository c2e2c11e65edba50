package generator

import "context"

// GenerateFunc produces an answer to a question from an assembled context
// block. It models a long-latency, fallible external call: implementations
// must honor the context deadline and return an explicit error on failure,
// never a silent best-effort answer.
type GenerateFunc func(ctx context.Context, contextBlock string, question string) (string, error)

// InsufficientContextAnswer is returned when no retrieved chunk clears the
// similarity threshold. The generator is never invoked in that case.
const InsufficientContextAnswer = "I couldn't find relevant information in the documents to answer this question."

package rag

import (
	"fmt"
	"strings"
)

const (
	noContext     = "No relevant information found in the documents. Please answer using your general knowledge."
	unknownSource = "Unknown source"
)

var sourceKeys = []string{"filename", "source", "_source_file"}

// BuildPrompt renders the retrieval prompt. contexts and sources are index-aligned.
func BuildPrompt(query string, contexts, sources []string) string {
	contextText := noContext
	if len(contexts) > 0 {
		blocks := make([]string, len(contexts))
		for i, c := range contexts {
			src := unknownSource
			if i < len(sources) {
				src = sources[i]
			}
			blocks[i] = fmt.Sprintf("Source: %s\nContent: %s", src, c)
		}
		contextText = strings.Join(blocks, "\n\n")
	}

	return `<s>[INST] You are a helpful AI assistant. Use the following context to answer the question.
If the context is not relevant, answer the question using your general knowledge.
At the end of your response, only mention the source files if you used the provided context.

Context from documents:
` + contextText + `

Question: ` + query + `

Please provide a helpful answer. [/INST]`
}

// BuildDirectPrompt renders the general-knowledge prompt used when no search is needed.
func BuildDirectPrompt(query string) string {
	return `<s>[INST] You are a helpful AI assistant. Answer the following question using your general knowledge.

Question: ` + query + `
Answer: [/INST]`
}

// SourceName returns the text after the last slash of the first metadata key
// naming a file. A value ending in a slash yields an empty name.
func SourceName(metadata map[string]string) string {
	for _, key := range sourceKeys {
		v, ok := metadata[key]
		if !ok {
			continue
		}
		return v[strings.LastIndex(v, "/")+1:]
	}
	return unknownSource
}

// Unique returns items without duplicates, keeping first occurrences in order.
func Unique(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

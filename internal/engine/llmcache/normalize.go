package llmcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// maxNormalizedLen is the cutoff beyond which the middle of the
	// normalized text is replaced with a short content hash, keeping keys
	// stable while still distinguishing near-duplicate long prompts.
	maxNormalizedLen = 1000
	edgeLen          = 500
	shortHashLen     = 8
)

var punctuationReplacer = strings.NewReplacer(
	".", "", ",", "", "!", "", "?", "", ";", "", ":", "",
	`"`, "", "'", "",
)

// Normalize canonicalizes prompt text so near-identical prompts produce the
// same cache key: lowercase, punctuation and quotes stripped, whitespace runs
// collapsed to single spaces.
func Normalize(text string) string {
	normalized := strings.ToLower(text)
	normalized = punctuationReplacer.Replace(normalized)
	normalized = strings.Join(strings.Fields(normalized), " ")

	// Edges are sliced on rune boundaries so the key text stays valid UTF-8.
	if runes := []rune(normalized); len(runes) > maxNormalizedLen {
		sum := sha256.Sum256([]byte(normalized))
		digest := hex.EncodeToString(sum[:])[:shortHashLen]
		normalized = string(runes[:edgeLen]) + digest + string(runes[len(runes)-edgeLen:])
	}
	return normalized
}

// Key derives the cache key for a normalized (prompt, system, provider,
// model) tuple.
func Key(provider, model, promptText, systemPrompt string) string {
	material := fmt.Sprintf("%s|%s|%s|%s", provider, model, Normalize(promptText), Normalize(systemPrompt))
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:])
}

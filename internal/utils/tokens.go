package utils

// CountTokens estimates the number of tokens in the given text,
// approximating 1 token ~= 4 characters. Used for debug output only;
// real budgets are enforced in runes by the inference client.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	// Ensure at least 1 token for any non-empty text
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

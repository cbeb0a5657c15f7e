package chat

// Title shortens message to its first n runes, marking the cut with "...".
func Title(message string, n int) string {
	runes := []rune(message)
	if len(runes) <= n {
		return message
	}
	return string(runes[:n]) + "..."
}

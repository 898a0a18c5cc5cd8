package chat

import (
	"unicode/utf8"

	"github.com/firebase/genkit/go/ai"
)

// estimateTokens provides a rough token count.
// Uses rune count divided by 2 as a conservative estimate that works
// for both English (~4 chars/token) and CJK (~1.5 chars/token) text.
func estimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 2
}

// estimateMessageTokens estimates tokens in a single message.
func estimateMessageTokens(msg *ai.Message) int {
	total := 0
	for _, part := range msg.Content {
		total += estimateTokens(part.Text)
	}
	return total
}

// estimateMessagesTokens estimates total tokens across messages.
func estimateMessagesTokens(msgs []*ai.Message) int {
	total := 0
	for _, msg := range msgs {
		total += estimateMessageTokens(msg)
	}
	return total
}

// ABOUTME: Confirmation capability injected into destructive commands.
// ABOUTME: Lets the UI, CLI prompt, MCP flag and tests answer the same question.
package journal

import "context"

// Confirmer answers a yes/no question, blocking until answered.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// ConfirmFunc adapts a function to a Confirmer.
type ConfirmFunc func(ctx context.Context, message string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, message string) bool {
	return f(ctx, message)
}

// Answer returns a Confirmer that always gives the same answer.
func Answer(yes bool) Confirmer {
	return ConfirmFunc(func(context.Context, string) bool { return yes })
}

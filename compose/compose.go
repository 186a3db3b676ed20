// Package compose turns an estimate into the message sent to the customer.
package compose

import (
	"context"
	"fmt"
	"strings"
)

// Request carries what a composer needs to phrase a notification.
type Request struct {
	Description    string
	EstimatedHours int
	LocationID     int
	// Method is the human-readable label of how the estimate was produced.
	Method string
}

// Func composes a customer notification.
type Func func(ctx context.Context, req Request) (string, error)

// GenerateFunc calls a text-generation model with a system and user prompt.
type GenerateFunc func(ctx context.Context, system, prompt string) (string, error)

// SummarizeFunc shortens long descriptions before they are indexed.
type SummarizeFunc func(ctx context.Context, text string) (string, error)

// Fallback is the fixed message used whenever composition fails.
func Fallback(hours int) string {
	return fmt.Sprintf("We've received your ticket and are working to resolve it within %d hours.", hours)
}

// NoMatchGuidance is sent when a ticket is rejected for lack of similar issues.
const NoMatchGuidance = "We've received your ticket, but couldn't find similar issues to estimate resolution time. " +
	"Please provide more specific details about your technical problem so we can better assist you."

const notifySystem = "You are a customer support assistant writing short, empathetic ticket acknowledgements."

// Prompt renders the notification prompt for req.
func Prompt(req Request) string {
	return fmt.Sprintf(`Generate an empathetic customer service notification:
Issue: %s
Estimated Resolution: %d hours
Location: %d
Matching Method: %s
Create a professional, reassuring message that explains we've received their ticket and provide the estimated resolution time.
Notification:`, req.Description, req.EstimatedHours, req.LocationID, req.Method)
}

// Notifier composes notifications with a text-generation model.
func Notifier(gen GenerateFunc) Func {
	return func(ctx context.Context, req Request) (string, error) {
		out, err := gen(ctx, notifySystem, Prompt(req))
		if err != nil {
			return "", fmt.Errorf("generate notification: %w", err)
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return "", fmt.Errorf("generate notification: empty response")
		}
		return out, nil
	}
}

const summarizeSystem = "You summarize technical support tickets, keeping every technical detail needed to diagnose the issue."

// Summarizer shortens text to about maxChars using a text-generation model.
func Summarizer(gen GenerateFunc, maxChars int) SummarizeFunc {
	return func(ctx context.Context, text string) (string, error) {
		prompt := fmt.Sprintf("Summarize the following support ticket in at most %d characters:\n\n%s", maxChars, text)
		out, err := gen(ctx, summarizeSystem, prompt)
		if err != nil {
			return "", fmt.Errorf("summarize: %w", err)
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return "", fmt.Errorf("summarize: empty response")
		}
		return out, nil
	}
}

// Truncate cuts text to n runes followed by an ellipsis.
func Truncate(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}

package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/aretw0/steprelay/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

type redactionMiddleware struct {
	next     ports.TraceStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks every match of the
// patterns in output chunks, error messages and string token values before a
// trace is saved. Invalid patterns panic.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.TraceStore) ports.TraceStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, id string, trace *domain.Trace) error {
	// The caller keeps its unmasked trace.
	cloned := trace.Clone()

	for i := range cloned.Outputs {
		cloned.Outputs[i].Text = m.mask(cloned.Outputs[i].Text)
	}
	for i := range cloned.Errors {
		cloned.Errors[i] = m.mask(cloned.Errors[i])
	}
	for _, step := range cloned.Steps {
		for i, tok := range step.Tokens {
			if s, ok := tok.Value.(string); ok {
				step.Tokens[i].Value = m.mask(s)
			}
		}
	}

	return m.next.Save(ctx, id, cloned)
}

func (m *redactionMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}

func (m *redactionMiddleware) Load(ctx context.Context, id string) (*domain.Trace, error) {
	return m.next.Load(ctx, id)
}

func (m *redactionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

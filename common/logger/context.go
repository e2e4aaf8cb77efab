package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs
// within a context. Fields flow through context enrichment so submission
// context (subject, category, ids) is included without every call site
// repeating it.
type LogFields struct {
	SubjectID    *string // per-identity history scope (UUID)
	Category     *string // prediction category, e.g. "heart"
	SubmissionID *int64  // snowflake id tagging one submission
	EntryID      *int64  // persisted history entry id
	Component    string  // component name, e.g. "console.feed.hub"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking
// precedence. Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.SubjectID != nil {
		result.SubjectID = next.SubjectID
	}
	if next.Category != nil {
		result.Category = next.Category
	}
	if next.SubmissionID != nil {
		result.SubmissionID = next.SubmissionID
	}
	if next.EntryID != nil {
		result.EntryID = next.EntryID
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline.
func Ptr[T any](v T) *T {
	return &v
}

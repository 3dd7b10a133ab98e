package model

import "fmt"

// ValidationIssue describes one reason a document failed validation.
type ValidationIssue struct {
	Field  string
	Reason string
}

func (i ValidationIssue) Error() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Reason)
}

// Validate checks the invariants from spec §3/§6: id/kind/title/content
// present, kind recognized, kind-specific metadata complete, content
// non-empty after trimming. It returns every issue found, not just the
// first, so callers can report a complete rejection reason.
func Validate(d Document) []ValidationIssue {
	var issues []ValidationIssue

	if d.ID == "" {
		issues = append(issues, ValidationIssue{"id", "must not be empty"})
	}
	if d.Title == "" {
		issues = append(issues, ValidationIssue{"title", "must not be empty"})
	}
	if d.Kind == "" {
		issues = append(issues, ValidationIssue{"type", "must not be empty"})
	} else if !validKinds[d.Kind] {
		issues = append(issues, ValidationIssue{"type", fmt.Sprintf("unrecognized kind %q", d.Kind)})
	}
	if d.Content.Empty() {
		issues = append(issues, ValidationIssue{"content", "must not be empty"})
	}

	for _, key := range requiredMetadataKeys[d.Kind] {
		if _, ok := d.Metadata[key]; !ok {
			issues = append(issues, ValidationIssue{
				Field:  "metadata." + key,
				Reason: fmt.Sprintf("required for kind %q", d.Kind),
			})
		}
	}

	return issues
}

// IsValid is a convenience wrapper for callers that only need a boolean.
func IsValid(d Document) bool {
	return len(Validate(d)) == 0
}

package plan

import "strings"

// PathError captures a single validation problem at a document path, like
// "items[2].trim.end: before trim start".
type PathError struct {
	Path    string
	Message string
}

func (e PathError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ValidationErrors aggregates every problem found in one pass.
type ValidationErrors []PathError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(errs))
	for i, err := range errs {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

// Issues returns a copy of the underlying errors.
func (errs ValidationErrors) Issues() []PathError {
	return append([]PathError(nil), errs...)
}

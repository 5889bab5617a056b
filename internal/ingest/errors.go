package ingest

import (
	"errors"
	"fmt"
)

// Terminal failure kinds of an ingestion. An *Error always unwraps to exactly
// one of these, plus the underlying cause when there is one.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("article not found")
	ErrDisambiguation  = errors.New("ambiguous title")
	ErrIngestionFailed = errors.New("ingestion failed")
)

// Stage names the pipeline step an ingestion stopped at.
type Stage string

const (
	StageValidate Stage = "validate"
	StageFetch    Stage = "fetch"
	StageRender   Stage = "render"
	StageArticle  Stage = "persist_article"
	StageLink     Stage = "persist_link"
	StageIndex    Stage = "persist_index"
)

// Error is a classified ingestion failure.
type Error struct {
	Stage Stage
	Kind  error
	Title string
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ingest %q: %s: %v", e.Title, e.Stage, e.Kind)
	}
	return fmt.Sprintf("ingest %q: %s: %v: %v", e.Title, e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Message returns the text shown to the caller.
func (e *Error) Message() string {
	switch e.Kind {
	case ErrInvalidInput:
		return "A page title is required."
	case ErrNotFound:
		return fmt.Sprintf("No Wikipedia article was found for %q.", e.Title)
	case ErrDisambiguation:
		return fmt.Sprintf("%q is ambiguous on Wikipedia, please use a more specific title.", e.Title)
	}
	switch e.Stage {
	case StageFetch:
		return fmt.Sprintf("Wikipedia could not be reached for %q, try again later.", e.Title)
	case StageRender:
		return fmt.Sprintf("The page for %q could not be generated.", e.Title)
	}
	return fmt.Sprintf("The article %q could not be saved.", e.Title)
}

// Message returns the caller-facing text for err, falling back to err.Error()
// for errors that did not come from the pipeline.
func Message(err error) string {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Message()
	}
	return err.Error()
}

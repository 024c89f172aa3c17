// Package surface abstracts the live form page. Implementations drive a real
// browser (Chrome over the DevTools protocol) or a static HTML document for
// dry runs and tests; everything downstream sees only this interface.
package surface

import (
	"context"
	"fmt"

	"github.com/jonathan/form-autofill/internal/types"
)

// ContainerHandle is an opaque reference to one question container on the
// current page.
type ContainerHandle string

// Surface is the contract the pipeline drives a form page through.
type Surface interface {
	// ListQuestionContainers returns handles for every question container on
	// the current page, in document order.
	ListQuestionContainers(ctx context.Context) ([]ContainerHandle, error)
	// ExtractLabel returns the raw (uncleaned) question label for a container.
	ExtractLabel(ctx context.Context, c ContainerHandle) (string, error)
	// ExtractFields returns the per-type field handles inside a container.
	ExtractFields(ctx context.Context, c ContainerHandle) (types.FieldSet, error)
	// ReadFieldValue returns the current value of a text, textarea, or select
	// field. Other field types read as empty.
	ReadFieldValue(ctx context.Context, h types.FieldHandle) (string, error)
	// SetFieldValue clears a text or textarea field and writes value into it.
	SetFieldValue(ctx context.Context, h types.FieldHandle, value string) error
	// ClickOption clicks a radio or checkbox field if its visible label
	// contains label (case-insensitive). A checkbox that is already selected
	// is left alone. Returns whether the label matched.
	ClickOption(ctx context.Context, h types.FieldHandle, label string) (bool, error)
	// SelectOption selects the first option of a select field whose text
	// contains option (case-insensitive). Returns whether an option matched.
	SelectOption(ctx context.Context, h types.FieldHandle, option string) (bool, error)
	// CurrentPageURL returns the URL of the page currently displayed.
	CurrentPageURL(ctx context.Context) (string, error)
}

// ConnectivityError reports that the page state cannot be read at all. It is
// the only surface failure that is fatal to a whole session.
type ConnectivityError struct {
	Message string
	Cause   error
}

func (e *ConnectivityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("surface connectivity error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("surface connectivity error: %s", e.Message)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Cause
}

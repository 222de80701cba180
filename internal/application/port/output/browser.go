package output

import (
	"context"

	"webpilot/internal/domain/entity"
)

// BrowserPort is the control channel to one exclusively-owned browser
// context. Selectors are resolved from a prior snapshot's element table.
type BrowserPort interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	TypeText(ctx context.Context, selector, text string) error
	Scroll(ctx context.Context, direction entity.ScrollDirection) error
	ExtractText(ctx context.Context, selector string) (string, error)

	// Snapshot captures the page state before an action executes. It wraps
	// entity.ErrExtraction when the context is unreachable or navigation
	// never settles within the bounded wait.
	Snapshot(ctx context.Context) (*entity.PageState, error)

	CurrentURL() string
	Close()
}

// StateExtractor is the snapshot-only view of the browser the controller
// depends on.
type StateExtractor interface {
	Snapshot(ctx context.Context) (*entity.PageState, error)
}

// ActionExecutor executes one planned action against the browser and maps
// the result onto the failure taxonomy. The error return is reserved for
// unrecoverable misuse (an action submitted after finish); everything the
// session can recover from travels inside the Outcome.
type ActionExecutor interface {
	Execute(ctx context.Context, state *entity.PageState, action entity.Action) (entity.Outcome, error)
}

// Package services – create-book-with-image workflow.
//
// Creating a book with a cover is a strict two-step sequence: the image must
// be uploaded and its URL known before the book record is created. The flow
// is modeled as an explicit state machine instead of a callback nested inside
// an observer registration; the upload subscription is invocation-scoped and
// released deterministically, so a completion can never fire the create step
// twice, and completions from an older upload invocation are discarded.
package services

import (
	"context"
	"strings"
	"sync"

	"github.com/cduarte/estante/internal/domain"
	"github.com/cduarte/estante/internal/outcome"
)

// FlowState names the phases of the create-with-image workflow.
type FlowState int

const (
	// FlowNotStarted is the initial state.
	FlowNotStarted FlowState = iota
	// FlowUploading means the cover upload is in flight.
	FlowUploading
	// FlowUploaded means the upload finished and yielded a URL.
	FlowUploaded
	// FlowCreating means the book creation is in flight.
	FlowCreating
	// FlowDone means the book was created.
	FlowDone
	// FlowFailed means either step failed; the failure outcome is on the
	// catalog service's CreateResult channel.
	FlowFailed
)

// String returns a stable name for logging.
func (s FlowState) String() string {
	switch s {
	case FlowNotStarted:
		return "not_started"
	case FlowUploading:
		return "uploading"
	case FlowUploaded:
		return "uploaded"
	case FlowCreating:
		return "creating"
	case FlowDone:
		return "done"
	default:
		return "failed"
	}
}

// CreateBookFlow drives one upload-then-create sequence. A flow is single
// use; construct a new one per attempt.
type CreateBookFlow struct {
	catalog *CatalogService

	mu    sync.Mutex
	state FlowState
}

// NewCreateBookFlow constructs an idle flow over the given catalog service.
func NewCreateBookFlow(catalog *CatalogService) *CreateBookFlow {
	return &CreateBookFlow{catalog: catalog}
}

// State reports the flow's current phase.
func (f *CreateBookFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *CreateBookFlow) setState(s FlowState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// Start validates the request, then runs the upload and chains the creation
// once the upload's URL is known. The final outcome (success or failure of
// either step) is published on the catalog service's CreateResult channel.
// Validation failures are returned synchronously and the flow stays idle.
//
// The upload subscription is held only until the outcome of this flow's own
// upload invocation arrives; outcomes tagged with any other invocation ID
// (a concurrent upload from another screen, a stale completion) are skipped.
func (f *CreateBookFlow) Start(ctx context.Context, req domain.CreateBookRequest, imagePath string) error {
	if strings.TrimSpace(req.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(req.Author) == "" {
		return ErrAuthorRequired
	}
	if req.CategoryID <= 0 {
		return ErrCategoryRequired
	}
	if strings.TrimSpace(imagePath) == "" {
		return ErrImageRequired
	}

	f.setState(FlowUploading)

	sub, unsubscribe := f.catalog.UploadResult.Subscribe()
	inv := f.catalog.UploadImage(ctx, imagePath)

	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				// Screen torn down; abandon without publishing.
				f.setState(FlowFailed)
				return
			case o, ok := <-sub:
				if !ok {
					f.setState(FlowFailed)
					return
				}
				if o.Invocation != inv {
					continue
				}
				if !o.Ok() {
					f.setState(FlowFailed)
					f.catalog.CreateResult.Publish(outcome.Outcome[domain.Book]{
						Kind:       o.Kind,
						Message:    o.Message,
						Err:        o.Err,
						Invocation: o.Invocation,
					})
					return
				}

				f.setState(FlowUploaded)
				withImage := req
				withImage.ImageURL = o.Value

				f.setState(FlowCreating)
				createSub, createUnsub := f.catalog.CreateResult.Subscribe()
				createInv, err := f.catalog.CreateBook(ctx, withImage)
				if err != nil {
					// Fields were validated above; reaching this means the
					// request was mutated concurrently. Surface as failed.
					createUnsub()
					f.setState(FlowFailed)
					return
				}
				f.watchCreate(ctx, createSub, createUnsub, createInv)
				return
			}
		}
	}()
	return nil
}

// watchCreate waits for the outcome of this flow's create invocation and
// records the terminal state. The outcome itself is already on CreateResult
// for the screen; the flow only tracks the phase.
func (f *CreateBookFlow) watchCreate(ctx context.Context, sub <-chan outcome.Outcome[domain.Book], unsubscribe func(), inv string) {
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			f.setState(FlowFailed)
			return
		case o, ok := <-sub:
			if !ok {
				f.setState(FlowFailed)
				return
			}
			if o.Invocation != inv {
				continue
			}
			if o.Ok() {
				f.setState(FlowDone)
			} else {
				f.setState(FlowFailed)
			}
			return
		}
	}
}

package source

import (
	"fmt"

	"flipbook/common"
)

// SourceLoadError means document could not be opened. Viewer stays empty.
type SourceLoadError struct {
	Location string
	Err      error
}

func (e *SourceLoadError) Error() string {
	return fmt.Sprintf("unable to load document %q: %v", e.Location, e.Err)
}

func (e *SourceLoadError) Unwrap() error { return e.Err }

// PageFetchError means single page could not be fetched or rasterized. The
// page stays empty until requested again.
type PageFetchError struct {
	Index    int
	Fidelity common.Fidelity
	Err      error
}

func (e *PageFetchError) Error() string {
	return fmt.Sprintf("unable to fetch page %d (%s): %v", e.Index, e.Fidelity, e.Err)
}

func (e *PageFetchError) Unwrap() error { return e.Err }

// LinkResolutionError means link destination is unknown. Link stays inert.
type LinkResolutionError struct {
	Destination string
	Err         error
}

func (e *LinkResolutionError) Error() string {
	return fmt.Sprintf("unable to resolve destination %q: %v", e.Destination, e.Err)
}

func (e *LinkResolutionError) Unwrap() error { return e.Err }

func fetchError(index int, fid common.Fidelity, err error) error {
	if err == nil {
		return nil
	}
	return &PageFetchError{Index: index, Fidelity: fid, Err: err}
}

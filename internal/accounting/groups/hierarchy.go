package groups

import (
	"context"
	"fmt"

	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

var (
	// ErrCircularReference indicates the candidate parent chain loops.
	ErrCircularReference = fmt.Errorf("%w: circular parent reference", shared.ErrConflict)
	// ErrDepthExceeded indicates the chain is deeper than MaxGroupLevel.
	ErrDepthExceeded = fmt.Errorf("%w: group nesting deeper than %d levels", shared.ErrConflict, MaxGroupLevel)
	// ErrParentNotFound indicates the candidate parent is absent or deleted.
	ErrParentNotFound = fmt.Errorf("%w: parent group", shared.ErrNotFound)
)

// ParentLookup resolves a group's parent reference. It returns
// shared.ErrNotFound when the group itself is absent or soft-deleted.
type ParentLookup interface {
	ParentOf(ctx context.Context, companyID, groupID int64) (*int64, error)
}

// ComputeLevel walks the parent chain upward from candidateParentID and
// returns the level the node would take under that parent (0 for a root).
// selfID, when non-nil, is the node being edited: encountering it on the
// walk means the edit would re-parent the node under its own subtree.
//
// The walk keeps a visited set; revisiting any node fails with
// ErrCircularReference. Walking more than MaxGroupLevel hops without
// reaching a root fails with ErrDepthExceeded. Descendants of the node are
// not touched here; the service re-levels them after the write.
func ComputeLevel(ctx context.Context, lookup ParentLookup, companyID int64, candidateParentID, selfID *int64) (int, error) {
	if candidateParentID == nil {
		return 0, nil
	}

	visited := make(map[int64]struct{}, MaxGroupLevel+1)
	if selfID != nil {
		visited[*selfID] = struct{}{}
	}

	current := *candidateParentID
	hops := 0
	for {
		if _, seen := visited[current]; seen {
			return 0, ErrCircularReference
		}
		visited[current] = struct{}{}
		hops++
		if hops > MaxGroupLevel {
			return 0, ErrDepthExceeded
		}
		parent, err := lookup.ParentOf(ctx, companyID, current)
		if err != nil {
			return 0, err
		}
		if parent == nil {
			return hops, nil
		}
		current = *parent
	}
}

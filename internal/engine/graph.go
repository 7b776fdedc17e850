package engine

import (
	"context"
	"fmt"

	"loyalty/internal/domain"
)

// Hop is one ancestor on an upline path. Level 1 is the direct sponsor.
type Hop struct {
	MemberID uint
	Level    int
}

// UplinePath walks sponsor edges upward from memberID, at most maxLevels hops.
// A root member yields an empty path. Revisiting a member is a GraphIntegrityError.
func UplinePath(ctx context.Context, edges EdgeReader, memberID uint, maxLevels int) ([]Hop, error) {
	visited := map[uint]struct{}{memberID: {}}
	trail := []uint{memberID}
	path := make([]Hop, 0, maxLevels)

	current := memberID
	for level := 1; level <= maxLevels; level++ {
		parent, ok, err := edges.ParentOf(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("resolve sponsor of %d: %w", current, err)
		}
		if !ok {
			break
		}
		trail = append(trail, parent)
		if _, seen := visited[parent]; seen {
			return nil, &domain.GraphIntegrityError{MemberID: parent, Path: trail}
		}
		visited[parent] = struct{}{}
		path = append(path, Hop{MemberID: parent, Level: level})
		current = parent
	}
	return path, nil
}

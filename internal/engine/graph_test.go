package engine

import (
	"context"
	"errors"
	"testing"

	"loyalty/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestUplinePath(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	s.chain(1, 2, 3, 4)

	path, err := UplinePath(context.Background(), memEdges{s}, 1, domain.MaxLevels)
	require.NoError(t, err)
	require.Equal(t, []Hop{{MemberID: 2, Level: 1}, {MemberID: 3, Level: 2}, {MemberID: 4, Level: 3}}, path)

	t.Run("root has empty path", func(t *testing.T) {
		path, err := UplinePath(context.Background(), memEdges{s}, 4, domain.MaxLevels)
		require.NoError(t, err)
		require.Empty(t, path)
	})

	t.Run("stops at max levels", func(t *testing.T) {
		path, err := UplinePath(context.Background(), memEdges{s}, 1, 2)
		require.NoError(t, err)
		require.Len(t, path, 2)
		require.Equal(t, uint(3), path[1].MemberID)
	})
}

func TestUplinePath_Cycle(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	s.parents[1] = 2
	s.parents[2] = 3
	s.parents[3] = 2

	_, err := UplinePath(context.Background(), memEdges{s}, 1, domain.MaxLevels)
	var gerr *domain.GraphIntegrityError
	require.True(t, errors.As(err, &gerr))
	require.Equal(t, uint(2), gerr.MemberID)
	require.Equal(t, []uint{1, 2, 3, 2}, gerr.Path)
}

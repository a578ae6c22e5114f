package harvest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPageCursorRejectsBadPageSizes(t *testing.T) {
	t.Parallel()

	_, err := NewPageCursor(0)
	require.Error(t, err)

	_, err = NewPageCursor(-10)
	require.Error(t, err)

	_, err = NewPageCursor(ResultWindowCeiling + 1)
	require.Error(t, err)
}

func TestPageCursorOffsetsStrictlyIncrease(t *testing.T) {
	t.Parallel()

	cursor, err := NewPageCursor(500)
	require.NoError(t, err)

	prev := -1
	for cursor.InWindow() {
		require.Greater(t, cursor.Offset(), prev)
		// The next request window must fit entirely under the ceiling.
		require.LessOrEqual(t, cursor.Offset()+cursor.PageSize(), ResultWindowCeiling)
		prev = cursor.Offset()
		require.NoError(t, cursor.Advance(cursor.PageSize()))
	}
	// 19 full pages of 500 fit under 9,999; the 20th would straddle it.
	require.Equal(t, 9500, cursor.Offset())
}

func TestPageCursorAdvanceByReturnedCount(t *testing.T) {
	t.Parallel()

	cursor, err := NewPageCursor(500)
	require.NoError(t, err)

	require.NoError(t, cursor.Advance(500))
	require.NoError(t, cursor.Advance(200))
	require.Equal(t, 700, cursor.Offset())
}

func TestPageCursorRejectsNonPositiveAdvance(t *testing.T) {
	t.Parallel()

	cursor, err := NewPageCursor(500)
	require.NoError(t, err)

	require.Error(t, cursor.Advance(0))
	require.Error(t, cursor.Advance(-1))
	require.Equal(t, 0, cursor.Offset())
}

func TestPageCursorWindowBoundary(t *testing.T) {
	t.Parallel()

	cursor, err := NewPageCursor(9999)
	require.NoError(t, err)
	// A single full-window page is allowed exactly once.
	require.True(t, cursor.InWindow())
	require.NoError(t, cursor.Advance(9999))
	require.False(t, cursor.InWindow())
}

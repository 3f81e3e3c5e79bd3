package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	want := SaleCursor{CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 123000, time.UTC), ID: 42}

	got, err := DecodeCursor(EncodeCursor(want))
	require.NoError(t, err)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, want.ID, got.ID)
}

func TestDecodeEmptyCursorStartsAfterNow(t *testing.T) {
	cursor, err := DecodeCursor("")
	require.NoError(t, err)
	assert.True(t, cursor.CreatedAt.After(time.Now()))
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("!!not-base64!!")
	assert.Error(t, err)
}

func TestNormalizePage(t *testing.T) {
	page, size := normalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)

	_, size = normalizePage(3, 1000)
	assert.Equal(t, MaxPageSize, size)
}

func TestNewOffsetPage(t *testing.T) {
	p := newOffsetPage([]int{}, 21, 2, 10)
	assert.Equal(t, 3, p.TotalPages)

	p = newOffsetPage([]int{}, 0, 1, 10)
	assert.Equal(t, 0, p.TotalPages)
}

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/vecta/backend-go/internal/document"
)

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(pgx.ErrNoRows, "get"), ErrNotFound)
	assert.ErrorIs(t, notFound(fmt.Errorf("scan: %w", pgx.ErrNoRows), "get"), ErrNotFound)

	boom := errors.New("boom")
	err := notFound(boom, "get latest snapshot")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "get latest snapshot: boom", err.Error())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: uniqueViolation}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: uniqueViolation})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "42P01"}))
	assert.False(t, isUniqueViolation(nil))
}

func TestDocumentEncoding(t *testing.T) {
	data, err := encodeDocument(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	sample := document.NewSampleDocument()
	data, err = encodeDocument(sample)
	require.NoError(t, err)
	back, err := decodeDocument(data)
	require.NoError(t, err)
	require.Len(t, back, len(sample))
	for i := range sample {
		assert.Equal(t, sample[i].ID, back[i].ID)
		assert.Equal(t, sample[i].Points, back[i].Points)
	}

	_, err = decodeDocument([]byte(`{"not":"an array"}`))
	assert.Error(t, err)
}

func TestNewPoolRejectsBadURL(t *testing.T) {
	_, err := NewPool(context.Background(), "postgres://%zz")
	assert.Error(t, err)
}

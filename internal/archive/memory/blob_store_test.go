package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutObjectRecordsPayload(t *testing.T) {
	t.Parallel()

	store := New()
	uri, err := store.PutObject(context.Background(), "k/deals.json", "application/json", strings.NewReader(`{"deals":[]}`))
	require.NoError(t, err)
	require.Equal(t, "mem://k/deals.json", uri)

	data, ok := store.Object("k/deals.json")
	require.True(t, ok)
	require.Equal(t, `{"deals":[]}`, string(data))
	require.Equal(t, 1, store.Len())
}

func TestPutObjectRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := New().PutObject(context.Background(), "", "", strings.NewReader("x"))
	require.Error(t, err)
}

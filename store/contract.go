package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunContract runs a suite of tests to verify that a Store implementation
// adheres to the defined interface contract.
func RunContract(t *testing.T, st Store) {
	ctx := context.Background()
	id := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("SaveAndLoad", func(t *testing.T) {
		err := st.Save(ctx, id, []byte(`{"count":42}`))
		require.NoError(t, err, "Save should not return error")

		loaded, err := st.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, []byte(`{"count":42}`), loaded)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, st.Save(ctx, id, []byte(`v1`)))
		require.NoError(t, st.Save(ctx, id, []byte(`v2`)))

		loaded, err := st.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []byte(`v2`), loaded)
	})

	t.Run("LoadNonExistent", func(t *testing.T) {
		_, err := st.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, st.Save(ctx, id, []byte(`gone soon`)))

		err := st.Delete(ctx, id)
		require.NoError(t, err, "Delete should not return error")

		_, err = st.Load(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound, "Load after Delete should return ErrNotFound")

		assert.NoError(t, st.Delete(ctx, id), "deleting an absent id is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		require.NoError(t, st.Save(ctx, id1, []byte(`a`)))
		require.NoError(t, st.Save(ctx, id2, []byte(`b`)))

		defer func() {
			_ = st.Delete(ctx, id1)
			_ = st.Delete(ctx, id2)
		}()

		ids, err := st.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

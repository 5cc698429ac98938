package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := New()
	assert.Equal(t, 0, r.Len())

	_, ok := r.Lookup("a")
	assert.False(t, ok)

	require.NoError(t, r.Record("a", "inst-1"))
	require.NoError(t, r.Record("b", "inst-2"))

	id, ok := r.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "inst-1", id)
	assert.Equal(t, 2, r.Len())

	t.Run("second record for a schema is rejected", func(t *testing.T) {
		err := r.Record("a", "inst-3")
		assert.ErrorIs(t, err, ErrDuplicate)
		id, _ := r.Lookup("a")
		assert.Equal(t, "inst-1", id)
	})

	t.Run("entries keep recording order", func(t *testing.T) {
		entries := r.Entries()
		assert.Equal(t, []Entry{{"a", "inst-1"}, {"b", "inst-2"}}, entries)

		entries[0].InstanceID = "mutated"
		id, _ := r.Lookup("a")
		assert.Equal(t, "inst-1", id)
		assert.Equal(t, "inst-1", r.Entries()[0].InstanceID)
	})
}

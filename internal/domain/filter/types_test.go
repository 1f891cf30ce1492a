package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	item, err := Parse("stock:lte:5")
	require.NoError(t, err)
	assert.Equal(t, Item{Field: "stock", Operator: LessOrEqual, Value: "5"}, item)

	item, err = Parse("name:contains:cola:zero")
	require.NoError(t, err)
	assert.Equal(t, "cola:zero", item.Value)

	item, err = Parse("category_id:null")
	require.NoError(t, err)
	assert.Equal(t, IsNull, item.Operator)
	assert.Nil(t, item.Value)

	for _, bad := range []string{"stock", "stock:lte", "stock:like:x"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

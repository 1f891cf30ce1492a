package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
)

type mockCatalog struct {
	entity.BaseCatalog
	Code    string `db:"code" json:"code"`
	Name    string `db:"name" json:"name"`
	Ignored string `db:"-"`
	NoTag   string
}

func TestExtractDBColumns_Order(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	assert.Equal(t, []string{"id", "created_at", "lifecycle", "updated_at", "code", "name"}, cols)
}

func TestStructToMap_Embedded(t *testing.T) {
	now := time.Now().UTC()
	cat := mockCatalog{
		BaseCatalog: entity.BaseCatalog{
			BaseEntity: entity.BaseEntity{ID: id.New(), CreatedAt: now},
			Lifecycle:  entity.LifecycleInactive,
			UpdatedAt:  now,
		},
		Code:    "7750001",
		Name:    "Inca Kola 500ml",
		Ignored: "x",
	}

	m := StructToMap(&cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, entity.LifecycleInactive, m["lifecycle"])
	assert.Equal(t, "7750001", m["code"])
	assert.Equal(t, "Inca Kola 500ml", m["name"])
	assert.NotContains(t, m, "Ignored")
	assert.Len(t, m, 6)
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
}

package postgres

import (
	"reflect"
	"sync"
)

// columnMeta is the cached db-tag layout of a struct type.
type columnMeta struct {
	// direct fields: index -> column
	fields []columnField
	// anonymous embedded structs, walked recursively
	embedded []int
}

type columnField struct {
	index  int
	column string
}

var columnCache sync.Map // map[reflect.Type]*columnMeta

func metaFor(t reflect.Type) *columnMeta {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.(*columnMeta)
	}

	meta := &columnMeta{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				meta.embedded = append(meta.embedded, i)
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			meta.fields = append(meta.fields, columnField{index: i, column: tag})
		}
	}

	columnCache.Store(t, meta)
	return meta
}

// ExtractDBColumns lists the "db" columns of T, embedded structs first-in-order.
// Called once per repository at construction time.
//
//	columns := ExtractDBColumns[product.Product]()
//	// ["id", "created_at", "lifecycle", "updated_at", "code", "name", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	meta := metaFor(t)
	var cols []string
	fi, ei := 0, 0
	// keep declaration order between direct and embedded fields
	for i := 0; i < t.NumField(); i++ {
		switch {
		case ei < len(meta.embedded) && meta.embedded[ei] == i:
			cols = append(cols, columnsOf(t.Field(i).Type)...)
			ei++
		case fi < len(meta.fields) && meta.fields[fi].index == i:
			cols = append(cols, meta.fields[fi].column)
			fi++
		}
	}
	return cols
}

// StructToMap converts a struct to a column -> value map using "db" tags.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metaFor(rv.Type())
	res := make(map[string]any, len(meta.fields))
	for _, f := range meta.fields {
		res[f.column] = rv.Field(f.index).Interface()
	}
	for _, idx := range meta.embedded {
		for k, val := range StructToMap(rv.Field(idx).Interface()) {
			res[k] = val
		}
	}
	return res
}

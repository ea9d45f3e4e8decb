package database

import (
	"fmt"

	"github.com/huandu/go-sqlbuilder"
)

// Binder is implemented by every go-sqlbuilder builder.
type Binder interface {
	Var(arg any) string
}

func NewInsertBuilder() *sqlbuilder.InsertBuilder {
	return sqlbuilder.PostgreSQL.NewInsertBuilder()
}

func NewUpdateBuilder() *sqlbuilder.UpdateBuilder {
	return sqlbuilder.PostgreSQL.NewUpdateBuilder()
}

func NewDeleteBuilder() *sqlbuilder.DeleteBuilder {
	return sqlbuilder.PostgreSQL.NewDeleteBuilder()
}

func NewSelectBuilder() *sqlbuilder.SelectBuilder {
	return sqlbuilder.PostgreSQL.NewSelectBuilder()
}

// JSONBContains renders `column @> $n::jsonb`.
func JSONBContains(b Binder, column string, document []byte) string {
	return fmt.Sprintf("%s @> %s::jsonb", column, b.Var(string(document)))
}

// JSONBSet renders an assignment replacing one top level key of a jsonb column.
func JSONBSet(b Binder, column string, key string, value []byte) string {
	return fmt.Sprintf("%s = jsonb_set(%s, ARRAY[%s]::text[], %s::jsonb, true)", column, column, b.Var(key), b.Var(string(value)))
}

// JSONBField renders `column -> $n`.
func JSONBField(b Binder, column string, key string) string {
	return fmt.Sprintf("%s -> %s", column, b.Var(key))
}


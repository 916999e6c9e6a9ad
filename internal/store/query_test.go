package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestConditions_EmptyValuesIgnored(t *testing.T) {
	var c conditions
	c.eq("status", "")
	c.eqUUID("tenant_id", nil)
	c.in("status", "")
	c.in("status", " , ,")
	c.search("")
	c.gte("created_at", time.Time{})
	c.lte("created_at", time.Time{})

	assert.Equal(t, "TRUE", c.where())
	assert.Empty(t, c.args)
}

func TestConditions_PositionalArgsInOrder(t *testing.T) {
	id := uuid.New()
	var c conditions
	c.eqUUID("tenant_id", &id)
	c.eq("status", "active")
	c.search("crane", "name", "code")

	assert.Equal(t, "tenant_id = $1 AND status = $2 AND (name ILIKE $3 OR code ILIKE $3)", c.where())
	assert.Equal(t, []any{id, "active", "%crane%"}, c.args)
	assert.Equal(t, 4, c.nextArg())
}

func TestConditions_InList(t *testing.T) {
	var c conditions
	c.in("status", "active, frozen ,suspended")

	assert.Equal(t, "status = ANY($1)", c.where())
	assert.Equal(t, []any{[]string{"active", "frozen", "suspended"}}, c.args)
}

func TestConditions_InListSingleValueDegradesToEquality(t *testing.T) {
	var c conditions
	c.in("status", "active")

	assert.Equal(t, "status = $1", c.where())
	assert.Equal(t, []any{"active"}, c.args)
}

func TestConditions_SearchEscapesLikeMetacharacters(t *testing.T) {
	var c conditions
	c.search("50%_done", "title")

	assert.Equal(t, []any{`%50\%\_done%`}, c.args)
}

func TestConditions_InclusiveDateRange(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	var c conditions
	c.gte("created_at", from)
	c.lte("created_at", to)

	assert.Equal(t, "created_at >= $1 AND created_at <= $2", c.where())
}

func TestOrderBy_AllowedField(t *testing.T) {
	allowed := map[string]bool{"name": true, "created_at": true}
	assert.Equal(t, "ORDER BY name ASC, id", orderBy(allowed, "name", "asc"))
}

func TestOrderBy_UnknownFieldFallsBack(t *testing.T) {
	allowed := map[string]bool{"name": true, "created_at": true}
	assert.Equal(t, "ORDER BY created_at DESC, id", orderBy(allowed, "key_hash", "asc"))
	assert.Equal(t, "ORDER BY created_at DESC, id", orderBy(allowed, "", "asc"))
}

func TestOrderBy_BadDirectionFallsBack(t *testing.T) {
	allowed := map[string]bool{"name": true}
	assert.Equal(t, "ORDER BY name DESC, id", orderBy(allowed, "name", "sideways"))
}

func TestClampPage_Defaults(t *testing.T) {
	limit, offset := clampPage(ListParams{})
	assert.Equal(t, defaultPerPage, limit)
	assert.Equal(t, 0, offset)
}

func TestClampPage_AboveMaxClamps(t *testing.T) {
	limit, offset := clampPage(ListParams{Page: 3, PerPage: 500})
	assert.Equal(t, maxPerPage, limit)
	assert.Equal(t, 2*maxPerPage, offset)
}

func TestClampPage_NegativePageTreatedAsFirst(t *testing.T) {
	limit, offset := clampPage(ListParams{Page: -2, PerPage: 10})
	assert.Equal(t, 10, limit)
	assert.Equal(t, 0, offset)
}

package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsuite/fieldops/internal/query"
)

func TestCompilePredicateConditions(t *testing.T) {
	t.Parallel()

	assignee := uuid.New()
	p := query.Predicate{
		Conditions: map[string]any{
			query.FieldStatus:     "in_progress",
			query.FieldAssignedTo: assignee,
		},
	}

	where, args, err := compilePredicate(p, workOrderColumns, []any{uuid.New()})
	require.NoError(t, err)

	// Fields compile in sorted order regardless of map iteration.
	assert.Equal(t, " AND w.assigned_to = $2 AND w.status = $3", where)
	require.Len(t, args, 3)
	assert.Equal(t, assignee, args[1])
	assert.Equal(t, "in_progress", args[2])
}

func TestCompilePredicateDeterministic(t *testing.T) {
	t.Parallel()

	p := query.Predicate{
		Conditions: map[string]any{
			query.FieldStatus:   "new",
			query.FieldType:     "repair",
			query.FieldPriority: "high",
		},
	}

	first, _, err := compilePredicate(p, workOrderColumns, nil)
	require.NoError(t, err)

	for range 20 {
		again, _, err := compilePredicate(p, workOrderColumns, nil)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCompilePredicateSearchGroup(t *testing.T) {
	t.Parallel()

	p := query.Predicate{
		Search: &query.SearchGroup{
			Fields: []string{query.FieldName, query.FieldEmail},
			Term:   "acme",
		},
	}

	where, args, err := compilePredicate(p, customerColumns, []any{uuid.New()})
	require.NoError(t, err)

	// All branches of the OR share the one search argument.
	assert.Equal(t, " AND (cu.name ILIKE $2 OR cu.email ILIKE $2)", where)
	require.Len(t, args, 2)
	assert.Equal(t, "%acme%", args[1])
}

func TestCompilePredicateSearchTermEscaped(t *testing.T) {
	t.Parallel()

	p := query.Predicate{
		Search: &query.SearchGroup{
			Fields: []string{query.FieldName},
			Term:   `50%_off\sale`,
		},
	}

	_, args, err := compilePredicate(p, customerColumns, nil)
	require.NoError(t, err)
	require.Len(t, args, 1)
	assert.Equal(t, `%50\%\_off\\sale%`, args[0])
}

func TestCompilePredicateUnknownField(t *testing.T) {
	t.Parallel()

	t.Run("condition", func(t *testing.T) {
		t.Parallel()

		p := query.Predicate{Conditions: map[string]any{"tenant_id": uuid.New()}}
		_, _, err := compilePredicate(p, customerColumns, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown filter field "tenant_id"`)
	})

	t.Run("search_field", func(t *testing.T) {
		t.Parallel()

		p := query.Predicate{Search: &query.SearchGroup{Fields: []string{"password_hash"}, Term: "x"}}
		_, _, err := compilePredicate(p, customerColumns, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown search field "password_hash"`)
	})
}

func TestCompilePredicateEmpty(t *testing.T) {
	t.Parallel()

	where, args, err := compilePredicate(query.Predicate{}, workOrderColumns, []any{uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Len(t, args, 1)
}

func TestCompilePredicateEmptySearchTerm(t *testing.T) {
	t.Parallel()

	p := query.Predicate{Search: &query.SearchGroup{Fields: []string{query.FieldName}, Term: ""}}
	where, args, err := compilePredicate(p, customerColumns, nil)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestCursorClause(t *testing.T) {
	t.Parallel()

	t.Run("no_cursor", func(t *testing.T) {
		t.Parallel()

		clause, args := cursorClause("w", "work_orders", query.PageOptions{Take: 51}, 1, []any{uuid.New()})
		assert.Empty(t, clause)
		assert.Len(t, args, 1)
	})

	t.Run("with_cursor", func(t *testing.T) {
		t.Parallel()

		after := uuid.New()
		clause, args := cursorClause("w", "work_orders", query.PageOptions{Take: 51, After: &after}, 1, []any{uuid.New()})

		assert.Equal(t,
			" AND (w.created_at, w.id) > (SELECT cur.created_at, cur.id FROM work_orders cur WHERE cur.tenant_id = $1 AND cur.id = $2)",
			clause,
		)
		require.Len(t, args, 2)
		assert.Equal(t, after, args[1])
	})
}

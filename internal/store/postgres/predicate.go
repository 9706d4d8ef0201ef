package postgres

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fieldsuite/fieldops/internal/query"
)

// columnMap translates query field names into qualified SQL columns for one
// entity's listing query. Fields outside the map are rejected so a predicate
// can never smuggle arbitrary SQL identifiers.
type columnMap map[string]string

// compilePredicate renders p as " AND ..." clauses appended to a WHERE that
// already scopes the tenant. Equality conditions are emitted in sorted field
// order so identical predicates always compile to identical SQL; the search
// group compiles to a parenthesized OR of ILIKE matches sharing one argument.
// Returned args extend the given slice.
func compilePredicate(p query.Predicate, cols columnMap, args []any) (string, []any, error) {
	var sb strings.Builder

	fields := make([]string, 0, len(p.Conditions))
	for f := range p.Conditions {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, f := range fields {
		col, ok := cols[f]
		if !ok {
			return "", nil, fmt.Errorf("postgres.compilePredicate: unknown filter field %q", f)
		}
		args = append(args, p.Conditions[f])
		fmt.Fprintf(&sb, " AND %s = $%d", col, len(args))
	}

	if p.Search != nil && p.Search.Term != "" {
		args = append(args, "%"+escapeLike(p.Search.Term)+"%")
		n := len(args)

		parts := make([]string, 0, len(p.Search.Fields))
		for _, f := range p.Search.Fields {
			col, ok := cols[f]
			if !ok {
				return "", nil, fmt.Errorf("postgres.compilePredicate: unknown search field %q", f)
			}
			parts = append(parts, fmt.Sprintf("%s ILIKE $%d", col, n))
		}
		fmt.Fprintf(&sb, " AND (%s)", strings.Join(parts, " OR "))
	}

	return sb.String(), args, nil
}

// escapeLike neutralizes LIKE metacharacters in a user-supplied search term.
func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

// cursorClause appends the keyset condition for pages after a cursor row.
// alias/table name the paginated relation; the subquery resolves the cursor
// row's position within the same tenant so foreign cursors match nothing.
func cursorClause(alias, table string, opts query.PageOptions, tenantArg int, args []any) (string, []any) {
	if opts.After == nil {
		return "", args
	}
	args = append(args, *opts.After)
	clause := fmt.Sprintf(
		" AND (%s.created_at, %s.id) > (SELECT cur.created_at, cur.id FROM %s cur WHERE cur.tenant_id = $%d AND cur.id = $%d)",
		alias, alias, table, tenantArg, len(args),
	)
	return clause, args
}

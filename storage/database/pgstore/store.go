// Package pgstore implements store.Store on postgres: statements are built with squirrel, run and scanned with sqlx.
package pgstore

import (
	"context"
	"database/sql"
	"regexp"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/store"
)

var (
	identRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	psql       = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
)

type Store struct {
	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(db, "postgres")}
}

func quote(ident string) (string, error) {
	if !identRegex.MatchString(ident) {
		return "", errors.Errorf("invalid identifier %q", ident)
	}
	return pq.QuoteIdentifier(ident), nil
}

func quoteCollection(collection string) (string, error) {
	if !store.IsCollection(collection) {
		return "", errors.Errorf("unknown collection %q", collection)
	}
	return quote(collection)
}

func columns(rows ...store.Row) []string {
	set := make(map[string]bool)
	for _, r := range rows {
		for k := range r {
			set[k] = true
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// eq returns the equality of c; a nil value becomes IS NULL.
func eq(c store.Cond) (sq.Eq, error) {
	col, err := quote(c.Field)
	if err != nil {
		return nil, err
	}
	return sq.Eq{col: c.Value}, nil
}

func buildSelect(collection string, f store.Filter) (string, []interface{}, error) {
	tbl, err := quoteCollection(collection)
	if err != nil {
		return "", nil, err
	}
	qb := psql.Select("*").From(tbl)

	for _, c := range f.Where {
		cond, err := eq(c)
		if err != nil {
			return "", nil, err
		}
		qb = qb.Where(cond)
	}
	if len(f.AnyOf) > 0 {
		anyOf := make(sq.Or, 0, len(f.AnyOf))
		for _, c := range f.AnyOf {
			cond, err := eq(c)
			if err != nil {
				return "", nil, err
			}
			anyOf = append(anyOf, cond)
		}
		qb = qb.Where(anyOf)
	}

	for _, ord := range f.OrderBy {
		col, err := quote(ord.Field)
		if err != nil {
			return "", nil, err
		}
		ord.Field = col
		qb = qb.OrderBy(ord.String())
	}
	if f.Limit > 0 {
		qb = qb.Limit(uint64(f.Limit))
	}
	return qb.ToSql()
}

func insertBuilder(collection string, rows []store.Row) (sq.InsertBuilder, error) {
	tbl, err := quoteCollection(collection)
	if err != nil {
		return sq.InsertBuilder{}, err
	}
	ib := psql.Insert(tbl)

	cols := columns(rows...)
	if len(cols) == 0 {
		// every column takes its default
		ib = ib.Columns(`"id"`)
		for range rows {
			ib = ib.Values(sq.Expr("DEFAULT"))
		}
		return ib, nil
	}

	quoted := make([]string, 0, len(cols))
	for _, c := range cols {
		q, err := quote(c)
		if err != nil {
			return sq.InsertBuilder{}, err
		}
		quoted = append(quoted, q)
	}
	ib = ib.Columns(quoted...)
	for _, r := range rows {
		vals := make([]interface{}, 0, len(cols))
		for _, c := range cols {
			v, ok := r[c]
			if !ok {
				vals = append(vals, sq.Expr("DEFAULT"))
				continue
			}
			vals = append(vals, v)
		}
		ib = ib.Values(vals...)
	}
	return ib, nil
}

func buildInsert(collection string, rows []store.Row) (string, []interface{}, error) {
	ib, err := insertBuilder(collection, rows)
	if err != nil {
		return "", nil, err
	}
	return ib.Suffix("RETURNING *").ToSql()
}

func buildUpdate(collection, id string, changes store.Row) (string, []interface{}, error) {
	tbl, err := quoteCollection(collection)
	if err != nil {
		return "", nil, err
	}
	byID := sq.Eq{`"id"`: id}

	ub := psql.Update(tbl)
	var sets int
	for _, c := range columns(changes) {
		if c == "id" {
			continue
		}
		col, err := quote(c)
		if err != nil {
			return "", nil, err
		}
		ub = ub.Set(col, changes[c])
		sets++
	}
	if sets == 0 {
		return psql.Select("*").From(tbl).Where(byID).ToSql()
	}
	return ub.Where(byID).Suffix("RETURNING *").ToSql()
}

func buildUpsert(collection string, conflictKey []string, row store.Row) (string, []interface{}, error) {
	if len(conflictKey) == 0 {
		return "", nil, errors.New("upsert requires a conflict key")
	}
	ib, err := insertBuilder(collection, []store.Row{row})
	if err != nil {
		return "", nil, err
	}

	keys := make([]string, 0, len(conflictKey))
	isKey := make(map[string]bool, len(conflictKey))
	for _, k := range conflictKey {
		col, err := quote(k)
		if err != nil {
			return "", nil, err
		}
		keys = append(keys, col)
		isKey[k] = true
	}

	var sets []string
	for _, c := range columns(row) {
		if isKey[c] || c == "id" {
			continue
		}
		col := pq.QuoteIdentifier(c)
		sets = append(sets, col+" = EXCLUDED."+col)
	}
	if len(sets) == 0 {
		// no-op update so that RETURNING yields the existing row
		sets = append(sets, keys[0]+" = EXCLUDED."+keys[0])
	}
	return ib.Suffix(
		"ON CONFLICT (" + strings.Join(keys, ", ") + ") DO UPDATE SET " + strings.Join(sets, ", ") + " RETURNING *",
	).ToSql()
}

func (s *Store) query(ctx context.Context, q string, args []interface{}) ([]store.Row, error) {
	rows, err := s.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make([]store.Row, 0)
	for rows.Next() {
		r := make(map[string]interface{})
		if err = rows.MapScan(r); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) Select(ctx context.Context, collection string, f store.Filter) ([]store.Row, error) {
	q, args, err := buildSelect(collection, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, q, args)
	return rows, errors.Wrapf(err, "selecting %s", collection)
}

func (s *Store) Insert(ctx context.Context, collection string, rows ...store.Row) ([]store.Row, error) {
	if len(rows) == 0 {
		return []store.Row{}, nil
	}
	q, args, err := buildInsert(collection, rows)
	if err != nil {
		return nil, err
	}
	inserted, err := s.query(ctx, q, args)
	return inserted, errors.Wrapf(err, "inserting into %s", collection)
}

func (s *Store) Update(ctx context.Context, collection, id string, changes store.Row) (store.Row, error) {
	q, args, err := buildUpdate(collection, id, changes)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, q, args)
	if err != nil {
		return nil, errors.Wrapf(err, "updating %s", collection)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	tbl, err := quoteCollection(collection)
	if err != nil {
		return err
	}
	q, args, err := psql.Delete(tbl).Where(sq.Eq{`"id"`: id}).ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, q, args...)
	return errors.Wrapf(err, "deleting from %s", collection)
}

func (s *Store) Upsert(ctx context.Context, collection string, conflictKey []string, row store.Row) (store.Row, error) {
	q, args, err := buildUpsert(collection, conflictKey, row)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, q, args)
	if err != nil {
		return nil, errors.Wrapf(err, "upserting %s", collection)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

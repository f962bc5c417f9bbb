// Package postgres implements the document store on a Postgres jsonb table.
// Entities live in one table keyed by their websafe key; ancestor scoping
// uses a path-prefix scan, and filters translate to jsonb expressions.
package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"confcentral/internal/datastore"
)

const schema = `
CREATE TABLE IF NOT EXISTS entities (
	key   TEXT PRIMARY KEY,
	kind  TEXT NOT NULL,
	path  TEXT NOT NULL,
	props JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS entities_kind_path_idx ON entities (kind, path);
CREATE SEQUENCE IF NOT EXISTS entity_ids;
`

// Serialization failures are retried by RunInTransaction.
const (
	sqlstateSerializationFailure = "40001"
	txAttempts                   = 3
)

type DocStore struct {
	DB *sql.DB
}

// NewDocStore returns a document store backed by db.
func NewDocStore(db *sql.DB) *DocStore {
	return &DocStore{DB: db}
}

// EnsureSchema creates the entities table and id sequence if absent.
func (s *DocStore) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, schema)
	return err
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getEntity(ctx context.Context, q querier, key *datastore.Key) (*datastore.Entity, error) {
	var raw []byte
	err := q.QueryRowContext(ctx, `SELECT props FROM entities WHERE key = $1`, key.Encode()).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, datastore.ErrNoSuchEntity
		}
		return nil, err
	}
	props, err := decodeProps(raw)
	if err != nil {
		return nil, err
	}
	return &datastore.Entity{Key: key, Props: props}, nil
}

func putEntity(ctx context.Context, q querier, e *datastore.Entity) error {
	raw, err := json.Marshal(e.Props)
	if err != nil {
		return fmt.Errorf("marshal props: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO entities (key, kind, path, props)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET props = EXCLUDED.props
	`, e.Key.Encode(), e.Key.Kind, e.Key.Path(), raw)
	return err
}

func deleteEntity(ctx context.Context, q querier, key *datastore.Key) error {
	_, err := q.ExecContext(ctx, `DELETE FROM entities WHERE key = $1`, key.Encode())
	return err
}

func (s *DocStore) Get(ctx context.Context, key *datastore.Key) (*datastore.Entity, error) {
	return getEntity(ctx, s.DB, key)
}

func (s *DocStore) Put(ctx context.Context, e *datastore.Entity) error {
	return putEntity(ctx, s.DB, e)
}

func (s *DocStore) Delete(ctx context.Context, key *datastore.Key) error {
	return deleteEntity(ctx, s.DB, key)
}

// GetMulti fetches all keys in one round trip; missing slots stay nil.
func (s *DocStore) GetMulti(ctx context.Context, keys []*datastore.Key) ([]*datastore.Entity, error) {
	out := make([]*datastore.Entity, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	websafe := make([]string, len(keys))
	for i, k := range keys {
		websafe[i] = k.Encode()
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT key, props FROM entities WHERE key = ANY($1)`, pq.Array(websafe))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string]map[string]any)
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		props, err := decodeProps(raw)
		if err != nil {
			return nil, err
		}
		found[key] = props
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, k := range keys {
		if props, ok := found[websafe[i]]; ok {
			out[i] = &datastore.Entity{Key: k, Props: props}
		}
	}
	return out, nil
}

func (s *DocStore) AllocateID(ctx context.Context, kind string, parent *datastore.Key) (*datastore.Key, error) {
	var id int64
	if err := s.DB.QueryRowContext(ctx, `SELECT nextval('entity_ids')`).Scan(&id); err != nil {
		return nil, fmt.Errorf("allocate id: %w", err)
	}
	return datastore.IDKey(kind, id, parent), nil
}

// Run translates the query to SQL. Numeric filter values compare through a
// ::numeric cast; string equality also matches multi-valued properties via
// the jsonb containment operator. Ordering uses the raw jsonb value, which
// orders numbers numerically and strings lexicographically.
func (s *DocStore) Run(ctx context.Context, q datastore.Query) (datastore.Iterator, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT key, props FROM entities WHERE kind = $1`)
	args = append(args, q.Kind)

	if q.Ancestor != nil {
		args = append(args, likeEscape(q.Ancestor.Path())+"/%")
		fmt.Fprintf(&sb, ` AND path LIKE $%d ESCAPE '\'`, len(args))
	}
	for _, f := range q.Filters {
		args = append(args, f.Value)
		n := len(args)
		switch f.Value.(type) {
		case int64:
			fmt.Fprintf(&sb, ` AND (props->>'%s')::numeric %s $%d`, f.Field, opSQL(f.Op), n)
		default:
			if f.Op == datastore.OpEqual {
				fmt.Fprintf(&sb, ` AND (props->>'%s' = $%d OR props->'%s' ? $%d)`, f.Field, n, f.Field, n)
			} else {
				fmt.Fprintf(&sb, ` AND props->>'%s' %s $%d`, f.Field, opSQL(f.Op), n)
			}
		}
	}
	if len(q.Orders) > 0 {
		var keys []string
		for _, o := range q.Orders {
			dir := "ASC"
			if o.Descending {
				dir = "DESC"
			}
			keys = append(keys, fmt.Sprintf(`props->'%s' %s`, o.Field, dir))
		}
		sb.WriteString(` ORDER BY ` + strings.Join(keys, ", "))
	}

	rows, err := s.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	return &rowIterator{rows: rows}, nil
}

// Key names come from user input (profile keys are emails), so the ancestor
// path can carry LIKE metacharacters. An unescaped underscore would widen the
// prefix match to unrelated parents.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likeEscape(s string) string {
	return likeEscaper.Replace(s)
}

func opSQL(op datastore.Operator) string {
	if op == datastore.OpNotEqual {
		return "<>"
	}
	return string(op)
}

type rowIterator struct {
	rows *sql.Rows
}

func (it *rowIterator) Next() (*datastore.Entity, error) {
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, err
		}
		return nil, datastore.Done
	}
	var websafe string
	var raw []byte
	if err := it.rows.Scan(&websafe, &raw); err != nil {
		return nil, err
	}
	key, err := datastore.DecodeKey(websafe)
	if err != nil {
		return nil, err
	}
	props, err := decodeProps(raw)
	if err != nil {
		return nil, err
	}
	return &datastore.Entity{Key: key, Props: props}, nil
}

type pgTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *pgTx) Get(key *datastore.Key) (*datastore.Entity, error) {
	return getEntity(t.ctx, t.tx, key)
}

func (t *pgTx) Put(e *datastore.Entity) error {
	return putEntity(t.ctx, t.tx, e)
}

func (t *pgTx) Delete(key *datastore.Key) error {
	return deleteEntity(t.ctx, t.tx, key)
}

// RunInTransaction runs fn in a serializable transaction, which makes the
// commit atomic across entity groups. Serialization failures are retried a
// bounded number of times; fn may therefore run more than once.
func (s *DocStore) RunInTransaction(ctx context.Context, fn func(tx datastore.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < txAttempts; attempt++ {
		tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if err := fn(&pgTx{ctx: ctx, tx: tx}); err != nil {
			_ = tx.Rollback()
			return err
		}
		err = tx.Commit()
		if err == nil {
			return nil
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == sqlstateSerializationFailure {
			lastErr = err
			continue
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return fmt.Errorf("transaction retries exhausted: %w", lastErr)
}

// decodeProps normalizes jsonb into the store's property value types:
// integral numbers become int64, arrays become []string.
func decodeProps(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode props: %w", err)
	}
	props := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case json.Number:
			n, err := val.Int64()
			if err != nil {
				return nil, fmt.Errorf("decode props: non-integral number for %q", k)
			}
			props[k] = n
		case []any:
			strs := make([]string, 0, len(val))
			for _, item := range val {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("decode props: non-string array element for %q", k)
				}
				strs = append(strs, s)
			}
			props[k] = strs
		default:
			props[k] = v
		}
	}
	return props, nil
}

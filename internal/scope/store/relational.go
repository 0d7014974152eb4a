package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	// Drivers registered with database/sql: "pgx" for Postgres, "sqlite"
	// for embedded files and the test suite.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// RelationalEngine adapts the store contract onto a SQL database. The
// table backing a collection is created lazily on first write, with
// column types inferred from the first document's values. The inferred
// schema is fixed after that: writes that introduce new fields later
// reference a column that does not exist, fail, and roll back.
type RelationalEngine struct {
	db     *sql.DB
	d      dialect
	logger zerolog.Logger

	mu     sync.Mutex
	tables map[string]bool // positive cache of ensured tables
}

// NewRelationalEngine opens and pings a SQL database. driver selects the
// dialect: "pgx"/"postgres" or "sqlite".
func NewRelationalEngine(ctx context.Context, driver, dsn string, logger zerolog.Logger) (*RelationalEngine, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrBackendUnavailable, d.driverName(), err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrBackendUnavailable, d.driverName(), err)
	}

	return &RelationalEngine{
		db:     db,
		d:      d,
		logger: logger,
		tables: make(map[string]bool),
	}, nil
}

func (e *RelationalEngine) Name() string { return "relational/" + e.d.driverName() }

func (e *RelationalEngine) Close(_ context.Context) error {
	return e.db.Close()
}

func (e *RelationalEngine) Collections(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, e.d.listTablesQuery())
	if err != nil {
		return nil, opErr(e.Name(), "collections", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, opErr(e.Name(), "collections", err)
		}
		names = append(names, name)
	}
	return names, opErr(e.Name(), "collections", rows.Err())
}

func (e *RelationalEngine) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	if err := validateIdent(collection); err != nil {
		return "", err
	}
	keys, err := fieldKeys(fields)
	if err != nil {
		return "", err
	}
	if err := e.ensureTable(ctx, collection, fields, keys); err != nil {
		return "", err
	}

	cols := make([]string, 0, len(keys))
	phs := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		v, err := e.encode(fields[k])
		if err != nil {
			return "", opErr(e.Name(), "create", err)
		}
		cols = append(cols, quoteIdent(k))
		phs = append(phs, e.d.placeholder(len(args)+1))
		args = append(args, v)
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING "id"`,
		quoteIdent(collection), strings.Join(cols, ", "), strings.Join(phs, ", "))

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return "", opErr(e.Name(), "create", err)
	}
	var id any
	if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&id); err != nil {
		_ = tx.Rollback()
		return "", opErr(e.Name(), "create", err)
	}
	if err := tx.Commit(); err != nil {
		return "", opErr(e.Name(), "create", err)
	}
	return idString(id), nil
}

func (e *RelationalEngine) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := validateIdent(collection); err != nil {
		return Document{}, err
	}
	exists, err := e.tableExists(ctx, collection)
	if err != nil {
		return Document{}, err
	}
	if !exists {
		return Document{}, ErrNotFound
	}

	stmt := fmt.Sprintf(`SELECT * FROM %s WHERE "id" = %s`,
		quoteIdent(collection), e.d.placeholder(1))
	rows, err := e.db.QueryContext(ctx, stmt, idArg(id))
	if err != nil {
		return Document{}, opErr(e.Name(), "get", err)
	}
	defer func() { _ = rows.Close() }()

	docs, err := e.scanDocuments(rows)
	if err != nil {
		return Document{}, opErr(e.Name(), "get", err)
	}
	if len(docs) == 0 {
		return Document{}, ErrNotFound
	}
	return docs[0], nil
}

func (e *RelationalEngine) Update(ctx context.Context, collection, id string, fields Fields) (int64, error) {
	if err := validateIdent(collection); err != nil {
		return 0, err
	}
	keys, err := fieldKeys(fields)
	if err != nil {
		return 0, err
	}
	exists, err := e.tableExists(ctx, collection)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	var sets []string
	var args []any
	for _, k := range keys {
		// ID and created_at are immutable; updated_at is stamped below.
		if k == "id" || k == "created_at" || k == "updated_at" {
			continue
		}
		v, err := e.encode(fields[k])
		if err != nil {
			return 0, opErr(e.Name(), "update", err)
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = %s", quoteIdent(k), e.d.placeholder(len(args))))
	}
	args = append(args, e.d.bindTime(time.Now()))
	sets = append(sets, fmt.Sprintf(`"updated_at" = %s`, e.d.placeholder(len(args))))
	args = append(args, idArg(id))

	stmt := fmt.Sprintf(`UPDATE %s SET %s WHERE "id" = %s`,
		quoteIdent(collection), strings.Join(sets, ", "), e.d.placeholder(len(args)))

	return e.execCount(ctx, "update", stmt, args)
}

func (e *RelationalEngine) Delete(ctx context.Context, collection, id string) (int64, error) {
	if err := validateIdent(collection); err != nil {
		return 0, err
	}
	exists, err := e.tableExists(ctx, collection)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	stmt := fmt.Sprintf(`DELETE FROM %s WHERE "id" = %s`,
		quoteIdent(collection), e.d.placeholder(1))
	return e.execCount(ctx, "delete", stmt, []any{idArg(id)})
}

func (e *RelationalEngine) List(ctx context.Context, collection string, opts ListOptions) ([]Document, error) {
	if err := validateIdent(collection); err != nil {
		return nil, err
	}
	exists, err := e.tableExists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []Document{}, nil
	}

	where, args, err := e.buildWhere(opts.Query)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT * FROM %s%s", quoteIdent(collection), where)

	if len(opts.Sort) > 0 {
		var orders []string
		for _, s := range opts.Sort {
			if err := validateIdent(s.Field); err != nil {
				return nil, err
			}
			dir := "ASC"
			if s.Direction < 0 {
				dir = "DESC"
			}
			orders = append(orders, quoteIdent(s.Field)+" "+dir)
		}
		fmt.Fprintf(&sb, " ORDER BY %s", strings.Join(orders, ", "))
	}

	if limit := opts.limit(); limit >= 0 {
		fmt.Fprintf(&sb, " LIMIT %d", limit)
	} else if opts.Skip > 0 {
		// OFFSET requires a LIMIT clause in both dialects.
		fmt.Fprintf(&sb, " LIMIT %s", e.d.noLimit())
	}
	if opts.Skip > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", opts.Skip)
	}

	rows, err := e.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, opErr(e.Name(), "list", err)
	}
	defer func() { _ = rows.Close() }()

	docs, err := e.scanDocuments(rows)
	if err != nil {
		return nil, opErr(e.Name(), "list", err)
	}
	return docs, nil
}

func (e *RelationalEngine) Count(ctx context.Context, collection string, query Query) (int64, error) {
	if err := validateIdent(collection); err != nil {
		return 0, err
	}
	exists, err := e.tableExists(ctx, collection)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	where, args, err := e.buildWhere(query)
	if err != nil {
		return 0, err
	}
	stmt := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quoteIdent(collection), where)

	var n int64
	if err := e.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, opErr(e.Name(), "count", err)
	}
	return n, nil
}

// execCount runs a mutating statement inside a transaction and reports
// the affected row count. Any failure rolls back.
func (e *RelationalEngine) execCount(ctx context.Context, op, stmt string, args []any) (int64, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, opErr(e.Name(), op, err)
	}
	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		_ = tx.Rollback()
		return 0, opErr(e.Name(), op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, opErr(e.Name(), op, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, opErr(e.Name(), op, err)
	}
	return n, nil
}

// encode converts a field value into a bindable parameter, routing
// timestamps through the dialect.
func (e *RelationalEngine) encode(v any) (any, error) {
	out, err := encodeValue(v)
	if err != nil {
		return nil, err
	}
	if t, ok := out.(time.Time); ok {
		return e.d.bindTime(t), nil
	}
	return out, nil
}

// buildWhere translates a Query into an AND-chain of equality predicates
// with every value bound as a parameter.
func (e *RelationalEngine) buildWhere(query Query) (string, []any, error) {
	if len(query) == 0 {
		return "", nil, nil
	}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conds []string
	var args []any
	for _, k := range keys {
		if err := validateIdent(k); err != nil {
			return "", nil, err
		}
		v, err := e.encode(query[k])
		if err != nil {
			return "", nil, opErr(e.Name(), "query", err)
		}
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = %s", quoteIdent(k), e.d.placeholder(len(args))))
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// ensureTable creates the collection's table on first write, inferring
// one column per field from the sample document. Creation is idempotent:
// existence is checked first, and a positive result is cached.
func (e *RelationalEngine) ensureTable(ctx context.Context, collection string, fields Fields, keys []string) error {
	exists, err := e.tableExists(ctx, collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	cols := make([]string, 0, len(keys)+3)
	for _, k := range keys {
		cols = append(cols, quoteIdent(k)+" "+e.d.columnType(inferKind(fields[k])))
	}
	if _, ok := fields["id"]; !ok {
		cols = append([]string{e.d.identityColumn()}, cols...)
	}
	if _, ok := fields["created_at"]; !ok {
		cols = append(cols, `"created_at" TIMESTAMP DEFAULT CURRENT_TIMESTAMP`)
	}
	if _, ok := fields["updated_at"]; !ok {
		cols = append(cols, `"updated_at" TIMESTAMP DEFAULT CURRENT_TIMESTAMP`)
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(collection), strings.Join(cols, ", "))
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return opErr(e.Name(), "create table", err)
	}

	e.logger.Info().Str("collection", collection).Int("columns", len(cols)).Msg("created table")

	e.mu.Lock()
	e.tables[collection] = true
	e.mu.Unlock()
	return nil
}

func (e *RelationalEngine) tableExists(ctx context.Context, collection string) (bool, error) {
	e.mu.Lock()
	cached := e.tables[collection]
	e.mu.Unlock()
	if cached {
		return true, nil
	}

	var exists bool
	if err := e.db.QueryRowContext(ctx, e.d.tableExistsQuery(), collection).Scan(&exists); err != nil {
		return false, opErr(e.Name(), "table exists", err)
	}
	if exists {
		e.mu.Lock()
		e.tables[collection] = true
		e.mu.Unlock()
	}
	return exists, nil
}

// scanDocuments maps generic result rows back onto Documents, using the
// declared column types to rebuild booleans, timestamps and JSON values.
func (e *RelationalEngine) scanDocuments(rows *sql.Rows) ([]Document, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	docs := []Document{}
	for rows.Next() {
		vals := make([]any, len(colTypes))
		ptrs := make([]any, len(colTypes))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		doc := Document{Fields: make(Fields, len(colTypes))}
		for i, ct := range colTypes {
			v := decodeColumn(vals[i], ct.DatabaseTypeName())
			switch ct.Name() {
			case "id":
				doc.ID = idString(v)
			case "created_at":
				doc.CreatedAt, _ = v.(time.Time)
			case "updated_at":
				doc.UpdatedAt, _ = v.(time.Time)
			default:
				doc.Fields[ct.Name()] = v
			}
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// decodeColumn converts a scanned value back into the field vocabulary.
// typeName is the declared column type reported by the driver.
func decodeColumn(v any, typeName string) any {
	typeName = strings.ToUpper(typeName)
	switch {
	case strings.Contains(typeName, "BOOL"):
		return coerceBool(v)
	case strings.Contains(typeName, "TIMESTAMP"), strings.Contains(typeName, "DATETIME"):
		return coerceTime(v)
	case strings.Contains(typeName, "JSON"):
		return coerceJSON(v)
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func coerceBool(v any) any {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	default:
		return v
	}
}

// sqliteTimeLayouts covers the formats SQLite hands back for timestamp
// columns: CURRENT_TIMESTAMP defaults and driver-bound time.Time values.
var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

func coerceTime(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t
	case []byte:
		return parseTimeString(string(t))
	case string:
		return parseTimeString(t)
	default:
		return v
	}
}

func parseTimeString(s string) any {
	for _, layout := range sqliteTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return s
}

func coerceJSON(v any) any {
	var raw []byte
	switch t := v.(type) {
	case []byte:
		raw = t
	case string:
		raw = []byte(t)
	default:
		return v
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}
	return decoded
}

func idString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

// idArg binds a facade-level string id in a way that works against both
// identity (integer) and caller-supplied (text) id columns.
func idArg(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validateIdent rejects collection and field names that cannot be safely
// quoted into generated SQL. Values are always bound as parameters;
// identifiers cannot be, so they are validated instead.
func validateIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: invalid identifier %q", ErrInvalidInput, name)
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

// fieldKeys returns the field names in deterministic order, validating
// each one as a safe column identifier.
func fieldKeys(fields Fields) ([]string, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if err := validateIdent(k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

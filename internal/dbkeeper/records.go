package dbkeeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/drstein77/shopsphere/internal/records"
	"github.com/jackc/pgx/v5"
)

// Records are stored as JSONB documents keyed by table name, so the keeper
// can serve as a records.Client in place of the hosted backend.

const withID = `data || jsonb_build_object('Id', id)`

// FetchRecords supports EqualTo conditions and ordering on top-level fields.
func (kp *DBKeeper) FetchRecords(ctx context.Context, table string, opts records.QueryOptions) ([]json.RawMessage, error) {
	var (
		query strings.Builder
		args  = []any{table}
	)
	query.WriteString(`SELECT ` + withID + ` FROM records WHERE table_name = $1`)

	if err := records.CheckConditions(opts.Where); err != nil {
		return nil, err
	}
	for _, c := range opts.Where {
		args = append(args, c.FieldName, fmt.Sprint(c.Values[0]))
		fmt.Fprintf(&query, ` AND data ->> $%d = $%d`, len(args)-1, len(args))
	}

	query.WriteString(` ORDER BY `)
	for _, o := range opts.OrderBy {
		args = append(args, o.FieldName)
		dir := "ASC"
		if strings.EqualFold(o.SortType, "DESC") {
			dir = "DESC"
		}
		fmt.Fprintf(&query, `data ->> $%d %s, `, len(args), dir)
	}
	query.WriteString(`id`)

	if p := opts.PagingInfo; p != nil {
		if p.Limit > 0 {
			args = append(args, p.Limit)
			fmt.Fprintf(&query, ` LIMIT $%d`, len(args))
		}
		if p.Offset > 0 {
			args = append(args, p.Offset)
			fmt.Fprintf(&query, ` OFFSET $%d`, len(args))
		}
	}

	rows, err := kp.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	docs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("failed to collect records: %w", err)
	}

	result := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		projected, err := records.Project(doc, opts.Fields)
		if err != nil {
			return nil, err
		}
		result = append(result, projected)
	}
	return result, nil
}

func (kp *DBKeeper) GetRecordByID(ctx context.Context, table string, id int64) (json.RawMessage, error) {
	var doc []byte
	err := kp.pool.QueryRow(ctx,
		`SELECT `+withID+` FROM records WHERE table_name = $1 AND id = $2`, table, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return doc, nil
}

func (kp *DBKeeper) CreateRecord(ctx context.Context, table string, record any) (json.RawMessage, error) {
	data, err := document(record)
	if err != nil {
		return nil, err
	}

	var doc []byte
	err = kp.pool.QueryRow(ctx,
		`INSERT INTO records (table_name, data) VALUES ($1, $2::jsonb) RETURNING `+withID,
		table, string(data)).Scan(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to insert record: %w", err)
	}
	return doc, nil
}

// UpdateRecord merges the given fields into the stored document.
func (kp *DBKeeper) UpdateRecord(ctx context.Context, table string, id int64, record any) (json.RawMessage, error) {
	data, err := document(record)
	if err != nil {
		return nil, err
	}

	var doc []byte
	err = kp.pool.QueryRow(ctx,
		`UPDATE records SET data = data || $3::jsonb WHERE table_name = $1 AND id = $2 RETURNING `+withID,
		table, id, string(data)).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}
	return doc, nil
}

func (kp *DBKeeper) DeleteRecord(ctx context.Context, table string, ids []int64) error {
	if _, err := kp.pool.Exec(ctx,
		`DELETE FROM records WHERE table_name = $1 AND id = ANY($2)`, table, ids); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}

// document encodes record as a JSON object without its Id.
func document(record any) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("record is not an object: %w", err)
	}
	delete(fields, "Id")
	return json.Marshal(fields)
}

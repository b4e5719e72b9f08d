package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var ErrUnknownTable = errors.New("unknown table")

// FieldRef names a column in a query, mirroring the backend wire format
type FieldRef struct {
	Field struct {
		Name string `json:"Name"`
	} `json:"Field"`
}

func Field(name string) FieldRef {
	var f FieldRef
	f.Field.Name = name
	return f
}

type Condition struct {
	FieldName string `json:"FieldName"`
	Operator  string `json:"Operator"`
	Values    []any  `json:"Values"`
}

type OrderBy struct {
	FieldName string `json:"fieldName"`
	SortType  string `json:"SortType"`
}

type PagingInfo struct {
	Limit  int `json:"Limit"`
	Offset int `json:"Offset"`
}

// QueryOptions narrows a list call. Empty Fields selects the table defaults.
type QueryOptions struct {
	Fields     []FieldRef  `json:"Fields,omitempty"`
	Where      []Condition `json:"where,omitempty"`
	OrderBy    []OrderBy   `json:"orderBy,omitempty"`
	PagingInfo *PagingInfo `json:"pagingInfo,omitempty"`
}

// Client is the backend contract shared by every record table.
// GetRecordByID, CreateRecord and UpdateRecord return nil data when the backend has none.
type Client interface {
	FetchRecords(ctx context.Context, table string, opts QueryOptions) ([]json.RawMessage, error)
	GetRecordByID(ctx context.Context, table string, id int64) (json.RawMessage, error)
	CreateRecord(ctx context.Context, table string, record any) (json.RawMessage, error)
	UpdateRecord(ctx context.Context, table string, id int64, record any) (json.RawMessage, error)
	DeleteRecord(ctx context.Context, table string, ids []int64) error
}

type Log interface {
	Error(string, ...zap.Field)
}

// Observer is told about the outcome of every backend call
type Observer interface {
	RecordCall(table, op string, err error)
}

type nopObserver struct{}

func (nopObserver) RecordCall(string, string, error) {}

// Service wraps a Client for a single table and decodes records into T.
type Service[T any] struct {
	table    string
	fields   []string
	client   Client
	log      Log
	observer Observer
}

func NewService[T any](table string, fields []string, client Client, log Log, observer Observer) *Service[T] {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service[T]{
		table:    table,
		fields:   fields,
		client:   client,
		log:      log,
		observer: observer,
	}
}

func (s *Service[T]) Table() string {
	return s.table
}

// List fetches records. A missing result is an empty slice, not an error.
func (s *Service[T]) List(ctx context.Context, opts QueryOptions) (result []T, err error) {
	defer func() { s.observer.RecordCall(s.table, "list", err) }()

	if len(opts.Fields) == 0 {
		for _, name := range s.fields {
			opts.Fields = append(opts.Fields, Field(name))
		}
	}

	raw, err := s.client.FetchRecords(ctx, s.table, opts)
	if err != nil {
		s.log.Error("Error fetching records", zap.String("table", s.table), zap.Error(err))
		return nil, fmt.Errorf("client.FetchRecords[%s]: %w", s.table, err)
	}

	result = make([]T, 0, len(raw))
	for _, r := range raw {
		var rec T
		if err = json.Unmarshal(r, &rec); err != nil {
			s.log.Error("Error decoding record", zap.String("table", s.table), zap.Error(err))
			return nil, fmt.Errorf("failed to decode %s record: %w", s.table, err)
		}
		result = append(result, rec)
	}

	return result, nil
}

// GetByID returns nil when the record does not exist.
func (s *Service[T]) GetByID(ctx context.Context, id int64) (_ *T, err error) {
	defer func() { s.observer.RecordCall(s.table, "get", err) }()

	raw, err := s.client.GetRecordByID(ctx, s.table, id)
	if err != nil {
		s.log.Error("Error fetching record", zap.String("table", s.table), zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("client.GetRecordByID[%s/%d]: %w", s.table, id, err)
	}

	return s.decode(raw)
}

func (s *Service[T]) Create(ctx context.Context, record T) (_ *T, err error) {
	defer func() { s.observer.RecordCall(s.table, "create", err) }()

	raw, err := s.client.CreateRecord(ctx, s.table, record)
	if err != nil {
		s.log.Error("Error creating record", zap.String("table", s.table), zap.Error(err))
		return nil, fmt.Errorf("client.CreateRecord[%s]: %w", s.table, err)
	}

	return s.decode(raw)
}

func (s *Service[T]) Update(ctx context.Context, id int64, record T) (_ *T, err error) {
	defer func() { s.observer.RecordCall(s.table, "update", err) }()

	raw, err := s.client.UpdateRecord(ctx, s.table, id, record)
	if err != nil {
		s.log.Error("Error updating record", zap.String("table", s.table), zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("client.UpdateRecord[%s/%d]: %w", s.table, id, err)
	}

	return s.decode(raw)
}

// Delete reports true once the backend accepted the deletion.
func (s *Service[T]) Delete(ctx context.Context, id int64) (_ bool, err error) {
	defer func() { s.observer.RecordCall(s.table, "delete", err) }()

	if err = s.client.DeleteRecord(ctx, s.table, []int64{id}); err != nil {
		s.log.Error("Error deleting record", zap.String("table", s.table), zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("client.DeleteRecord[%s/%d]: %w", s.table, id, err)
	}

	return true, nil
}

func (s *Service[T]) decode(raw json.RawMessage) (*T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode %s record: %w", s.table, err)
	}
	return &rec, nil
}

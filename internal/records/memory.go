package records

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// MemoryClient keeps records in process memory. It serves as the backend when
// neither the hosted service nor a database is configured.
type MemoryClient struct {
	mx     sync.RWMutex
	tables map[string]map[int64]map[string]json.RawMessage
	nextID int64
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{tables: make(map[string]map[int64]map[string]json.RawMessage)}
}

// FetchRecords evaluates EqualTo conditions and ordering on top-level fields,
// then paging and field selection. Ties are broken by id.
func (m *MemoryClient) FetchRecords(_ context.Context, table string, opts QueryOptions) ([]json.RawMessage, error) {
	if err := CheckConditions(opts.Where); err != nil {
		return nil, err
	}

	m.mx.RLock()
	defer m.mx.RUnlock()

	rows := m.tables[table]
	ids := slices.DeleteFunc(slices.Sorted(maps.Keys(rows)), func(id int64) bool {
		return !matches(rows[id], opts.Where)
	})
	slices.SortStableFunc(ids, func(a, b int64) int {
		return compareRows(rows[a], rows[b], opts.OrderBy)
	})

	if p := opts.PagingInfo; p != nil {
		start := min(max(p.Offset, 0), len(ids))
		end := len(ids)
		if p.Limit > 0 {
			end = min(start+p.Limit, len(ids))
		}
		ids = ids[start:end]
	}

	result := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		data, err := json.Marshal(rows[id])
		if err != nil {
			return nil, err
		}
		projected, err := Project(data, opts.Fields)
		if err != nil {
			return nil, err
		}
		result = append(result, projected)
	}
	return result, nil
}

func (m *MemoryClient) GetRecordByID(_ context.Context, table string, id int64) (json.RawMessage, error) {
	m.mx.RLock()
	defer m.mx.RUnlock()

	row, ok := m.tables[table][id]
	if !ok {
		return nil, nil
	}
	return json.Marshal(row)
}

func (m *MemoryClient) CreateRecord(_ context.Context, table string, record any) (json.RawMessage, error) {
	fields, err := toFields(record)
	if err != nil {
		return nil, err
	}

	m.mx.Lock()
	defer m.mx.Unlock()

	m.nextID++
	id := m.nextID
	fields["Id"] = json.RawMessage(fmt.Sprint(id))

	if m.tables[table] == nil {
		m.tables[table] = make(map[int64]map[string]json.RawMessage)
	}
	m.tables[table][id] = fields

	return json.Marshal(fields)
}

// UpdateRecord merges the given fields into an existing record; unknown ids yield nil data.
func (m *MemoryClient) UpdateRecord(_ context.Context, table string, id int64, record any) (json.RawMessage, error) {
	fields, err := toFields(record)
	if err != nil {
		return nil, err
	}

	m.mx.Lock()
	defer m.mx.Unlock()

	row, ok := m.tables[table][id]
	if !ok {
		return nil, nil
	}
	maps.Copy(row, fields)
	row["Id"] = json.RawMessage(fmt.Sprint(id))

	return json.Marshal(row)
}

func (m *MemoryClient) DeleteRecord(_ context.Context, table string, ids []int64) error {
	m.mx.Lock()
	defer m.mx.Unlock()

	for _, id := range ids {
		delete(m.tables[table], id)
	}
	return nil
}

func toFields(record any) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("record is not an object: %w", err)
	}
	delete(fields, "Id")
	return fields, nil
}

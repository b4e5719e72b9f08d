package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/drstein77/shopsphere/internal/models"
	"github.com/shopspring/decimal"
)

var catalogColumns = []string{"id", "name", "category", "price", "rating", "description", "images"}

// list values inside a CSV cell
const listSeparator = "|"

// ReadCatalogCSV parses a catalog CSV with a header row. The id, name,
// category and price columns are required; rating, description and images
// (pipe separated) are optional. A repeated id yields ErrConflict.
func ReadCatalogCSV(r io.Reader) ([]models.CatalogItem, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catalog CSV is empty")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range catalogColumns[:4] {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("catalog CSV is missing column %q", required)
		}
	}

	var (
		items []models.CatalogItem
		seen  = make(map[int64]struct{})
	)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		item, err := parseRecord(record, columns)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("line %d: item %d repeated: %w", line, item.ID, ErrConflict)
		}
		seen[item.ID] = struct{}{}
		items = append(items, item)
	}

	return items, nil
}

func parseRecord(record []string, columns map[string]int) (models.CatalogItem, error) {
	get := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var (
		item models.CatalogItem
		err  error
	)

	if item.ID, err = strconv.ParseInt(get("id"), 10, 64); err != nil || item.ID <= 0 {
		return item, fmt.Errorf("invalid id %q", get("id"))
	}
	if item.Name = get("name"); item.Name == "" {
		return item, fmt.Errorf("item %d has no name", item.ID)
	}
	if item.Category = get("category"); item.Category == "" {
		return item, fmt.Errorf("item %d has no category", item.ID)
	}
	if item.Price, err = decimal.NewFromString(get("price")); err != nil || item.Price.IsNegative() {
		return item, fmt.Errorf("item %d has invalid price %q", item.ID, get("price"))
	}
	if rating := get("rating"); rating != "" {
		if item.Rating, err = strconv.ParseFloat(rating, 64); err != nil || item.Rating < 0 || item.Rating > 5 {
			return item, fmt.Errorf("item %d has invalid rating %q", item.ID, rating)
		}
	}
	item.Description = get("description")
	if images := get("images"); images != "" {
		item.ImageRefs = strings.Split(images, listSeparator)
	}

	return item, nil
}

// WriteCatalogCSV writes items in the format ReadCatalogCSV accepts.
func WriteCatalogCSV(w io.Writer, items []models.CatalogItem) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(catalogColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, item := range items {
		err := writer.Write([]string{
			strconv.FormatInt(item.ID, 10),
			item.Name,
			item.Category,
			item.Price.StringFixed(2),
			strconv.FormatFloat(item.Rating, 'f', -1, 64),
			item.Description,
			strings.Join(item.ImageRefs, listSeparator),
		})
		if err != nil {
			return fmt.Errorf("failed to write item %d: %w", item.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

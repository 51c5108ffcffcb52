package repository

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/personnel-api/internal/models"
)

var (
	// ErrUnknownColumn is returned when a column is outside the table allow-list.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNoFields is returned when an insert or update has nothing to write.
	ErrNoFields = errors.New("no fields to write")
)

// Statement is a query template with its ordered bind arguments.
// Placeholders are written as ? and rebound per driver at execution time.
type Statement struct {
	Query string
	Args  []interface{}
}

// Filter is a single equality condition.
type Filter struct {
	Column string
	Value  interface{}
}

// Page orders and bounds a select. A non-positive Limit disables LIMIT/OFFSET.
type Page struct {
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

// keyColumn reports whether column may identify rows of t.
func keyColumn(t models.Table, column string) bool {
	return column == models.ColumnID || (column == models.ColumnPersonID && t.Allows(column))
}

func readableColumn(t models.Table, column string) bool {
	return column == models.ColumnID || t.Allows(column)
}

// sortedColumns validates fields against t and returns its keys in a stable order.
func sortedColumns(t models.Table, fields map[string]interface{}) ([]string, error) {
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !t.Allows(col) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols, nil
}

// BuildInsert inserts every field and returns the generated id.
func BuildInsert(t models.Table, fields map[string]interface{}) (Statement, error) {
	cols, err := sortedColumns(t, fields)
	if err != nil {
		return Statement{}, err
	}
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, col := range cols {
		names[i] = quoteIdent(col)
		marks[i] = "?"
		args[i] = fields[col]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		quoteIdent(t.Name), strings.Join(names, ", "), strings.Join(marks, ", "))
	return Statement{Query: query, Args: args}, nil
}

// BuildUpdate sets every field on rows where idColumn equals idValue.
func BuildUpdate(t models.Table, fields map[string]interface{}, idColumn string, idValue interface{}) (Statement, error) {
	if !keyColumn(t, idColumn) {
		return Statement{}, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, idColumn)
	}
	cols, err := sortedColumns(t, fields)
	if err != nil {
		return Statement{}, err
	}
	sets := make([]string, len(cols))
	args := make([]interface{}, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = quoteIdent(col) + " = ?"
		args = append(args, fields[col])
	}
	args = append(args, idValue)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		quoteIdent(t.Name), strings.Join(sets, ", "), quoteIdent(idColumn))
	return Statement{Query: query, Args: args}, nil
}

// BuildDelete removes rows where idColumn equals idValue.
func BuildDelete(t models.Table, idColumn string, idValue interface{}) (Statement, error) {
	if !keyColumn(t, idColumn) {
		return Statement{}, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, idColumn)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quoteIdent(t.Name), quoteIdent(idColumn))
	return Statement{Query: query, Args: []interface{}{idValue}}, nil
}

// BuildFilteredSelect projects columns from t, applying filters as a conjunction
// in the order given, then ordering and paging.
func BuildFilteredSelect(columns []string, t models.Table, filters []Filter, page Page) (Statement, error) {
	if len(columns) == 0 {
		return Statement{}, ErrNoFields
	}
	names := make([]string, len(columns))
	for i, col := range columns {
		if !readableColumn(t, col) {
			return Statement{}, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, col)
		}
		names[i] = quoteIdent(col)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(names, ", "), quoteIdent(t.Name))

	args := make([]interface{}, 0, len(filters)+2)
	for i, f := range filters {
		if !readableColumn(t, f.Column) {
			return Statement{}, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, f.Column)
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(quoteIdent(f.Column) + " = ?")
		args = append(args, f.Value)
	}

	orderBy := page.OrderBy
	if orderBy == "" {
		orderBy = models.ColumnID
	}
	if !readableColumn(t, orderBy) {
		return Statement{}, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, orderBy)
	}
	direction := "ASC"
	if page.Desc {
		direction = "DESC"
	}
	fmt.Fprintf(&b, " ORDER BY %s %s", quoteIdent(orderBy), direction)

	if page.Limit > 0 {
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, page.Limit, page.Offset)
	}

	return Statement{Query: b.String(), Args: args}, nil
}

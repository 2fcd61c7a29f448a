// Package loadsql builds the parameterized single-table statements the
// insertion engine issues: insert, update, replace, delete, and the
// equality-predicate select used for reference lookups and existing-record
// matching.
//
// All values are parameterized with positional placeholders - never
// interpolated. Table and column names are interpolated (placeholders cannot
// stand for identifiers) and are therefore validated first.
package loadsql

import (
	"fmt"
	"strings"
)

// ValidIdent reports whether s is safe to interpolate as a table or column
// name: ASCII letters, digits, and underscore, not starting with a digit.
func ValidIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func checkIdents(table string, columnSets ...[]string) error {
	if !ValidIdent(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	for _, cols := range columnSets {
		if len(cols) == 0 {
			return fmt.Errorf("table %s: empty column list", table)
		}
		for _, c := range cols {
			if !ValidIdent(c) {
				return fmt.Errorf("table %s: invalid column name %q", table, c)
			}
		}
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Insert builds "INSERT INTO t (a, b) VALUES (?, ?)".
func Insert(table string, columns []string) (string, error) {
	if err := checkIdents(table, columns); err != nil {
		return "", err
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		placeholders(len(columns))), nil
}

// Replace builds "INSERT OR REPLACE INTO t (a, b) VALUES (?, ?)".
// Identifier columns are supplied among the columns, so a conflicting row is
// overwritten in place and a re-run of the same batch is idempotent.
func Replace(table string, columns []string) (string, error) {
	if err := checkIdents(table, columns); err != nil {
		return "", err
	}
	return fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		placeholders(len(columns))), nil
}

// Update builds "UPDATE t SET a = ?, b = ? WHERE k1 = ? AND k2 = ?".
// Bind arguments are the set values followed by the key values.
func Update(table string, setColumns, keyColumns []string) (string, error) {
	if err := checkIdents(table, setColumns, keyColumns); err != nil {
		return "", err
	}
	sets := make([]string, len(setColumns))
	for i, c := range setColumns {
		sets[i] = c + " = ?"
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		table,
		strings.Join(sets, ", "),
		equality(keyColumns)), nil
}

// Delete builds "DELETE FROM t WHERE m1 = ? AND m2 = ?".
func Delete(table string, matchColumns []string) (string, error) {
	if err := checkIdents(table, matchColumns); err != nil {
		return "", err
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", table, equality(matchColumns)), nil
}

// Select builds "SELECT a, b FROM t WHERE m1 = ? AND m2 = ?".
// Used for reference lookups and existing-record matching; the caller takes
// the first returned row.
func Select(table string, selectColumns, matchColumns []string) (string, error) {
	if err := checkIdents(table, selectColumns, matchColumns); err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(selectColumns, ", "),
		table,
		equality(matchColumns)), nil
}

// equality builds "a = ? AND b = ?" in column order.
func equality(columns []string) string {
	preds := make([]string, len(columns))
	for i, c := range columns {
		preds[i] = c + " = ?"
	}
	return strings.Join(preds, " AND ")
}

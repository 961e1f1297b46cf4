package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
)

// MaxBindParams is the number of bind parameters Postgres accepts in one
// statement.
const MaxBindParams = 65535

// RowsPerStatement returns how many rows of width cols fit in one statement.
func RowsPerStatement(cols int) int {
	if cols <= 0 {
		return MaxBindParams
	}
	return MaxBindParams / cols
}

// InsertRows adds rows to base and executes it in as many statements as the
// bind parameter limit requires. Every row must hold cols values. Call it
// inside RunInTx so a failing chunk rolls back the earlier ones.
func InsertRows(ctx context.Context, q Querier, base squirrel.InsertBuilder, cols int, rows [][]any) error {
	return insertChunked(ctx, q, base, rows, RowsPerStatement(cols))
}

func insertChunked(ctx context.Context, q Querier, base squirrel.InsertBuilder, rows [][]any, perStmt int) error {
	for start := 0; start < len(rows); start += perStmt {
		end := min(start+perStmt, len(rows))
		stmt := base
		for _, row := range rows[start:end] {
			stmt = stmt.Values(row...)
		}
		if _, err := Exec(ctx, q, stmt); err != nil {
			return fmt.Errorf("insert rows %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}

package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Diagnosis is the log-only view of a failure: its code, every wrapped
// layer, and the SQL state when a Postgres driver produced it.
type Diagnosis struct {
	Code       Code
	Chain      []string
	SQLState   string
	Constraint string
	Table      string
	Detail     string
}

// HasSQLState reports whether a Postgres error was found in the chain.
func (d Diagnosis) HasSQLState() bool { return d.SQLState != "" }

// Fields flattens d into structured log fields.
func (d Diagnosis) Fields() map[string]any {
	fields := map[string]any{"error_chain": d.Chain}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	if d.HasSQLState() {
		fields["sql_state"] = d.SQLState
		fields["sql_constraint"] = d.Constraint
		fields["sql_table"] = d.Table
		fields["sql_detail"] = d.Detail
	}
	return fields
}

// Diagnose walks err and collects what a log reader needs to trace it.
// Both the pgx and lib/pq error types are recognized.
func Diagnose(err error) Diagnosis {
	var d Diagnosis
	if err == nil {
		return d
	}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for layer := err; layer != nil; layer = stdErrors.Unwrap(layer) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", layer, layer))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case stdErrors.As(err, &pgxErr):
		d.SQLState, d.Constraint, d.Table, d.Detail = pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName, pgxErr.Detail
	case stdErrors.As(err, &pqErr):
		d.SQLState, d.Constraint, d.Table, d.Detail = string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Detail
	}
	return d
}

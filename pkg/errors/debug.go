package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
)

// Backends a dump can attribute a failure to.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

// ErrorDump is the log-only breakdown of an error. It names the storage
// backend that raised the root cause so local cache failures and remote
// failures can be told apart in the logs.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	Backend  string `json:"backend,omitempty"`
	TimedOut bool   `json:"timed_out,omitempty"`

	SQLState   string `json:"sql_state,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Fields flattens the dump for structured logging, dropping empty entries.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	for key, value := range map[string]string{
		"backend":         d.Backend,
		"sql_state":       d.SQLState,
		"constraint":      d.Constraint,
		"table":           d.Table,
		"backend_detail":  d.Detail,
		"backend_message": d.Message,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	if d.TimedOut {
		fields["timed_out"] = true
	}
	return fields
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
		TimedOut:   errors.Is(err, context.DeadlineExceeded),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.Backend = BackendPostgres
		d.SQLState = pgxErr.Code
		d.Constraint = pgxErr.ConstraintName
		d.Table = pgxErr.TableName
		d.Detail = pgxErr.Detail
		d.Message = pgxErr.Message
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.Backend = BackendPostgres
		d.SQLState = string(pqErr.Code)
		d.Constraint = pqErr.Constraint
		d.Table = pqErr.Table
		d.Detail = pqErr.Detail
		d.Message = pqErr.Message
		return d
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		d.Backend = BackendSQLite
		d.SQLState = liteErr.ExtendedCode.Error()
		d.Message = liteErr.Error()
		return d
	}

	// redis.Nil is a reply, not a failure, but still names the backend.
	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		d.Backend = BackendRedis
		d.Message = redisErr.Error()
		return d
	}

	return d
}

package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/besf/portal/internal/errors"
)

// Classify returns a normalized error class suitable for tagging metrics and logs.
// Application errors use their code, Postgres errors their SQLSTATE class, and anything
// else the innermost concrete type in snake case.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	case goerrors.Is(err, redis.Nil):
		return "redis_nil"
	}

	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}

	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		return "pg_" + strings.ToLower(pgErr.Code[:2])
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}

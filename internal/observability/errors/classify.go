// Package errors derives low-cardinality error classes for metric tags.
package errors

import (
	"context"
	goerrors "errors"
	"net"
	"os"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Classify returns a short error class suitable for tagging metrics and logs.
// Context, filesystem, network and Postgres failures get fixed names; anything
// else is named after the innermost concrete error type, e.g. "json_syntaxerror".
func Classify(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	case goerrors.Is(err, os.ErrNotExist):
		return "not_exist"
	}

	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) {
		return "postgres_" + strings.ToLower(pgErr.Code)
	}
	var netErr net.Error
	if goerrors.As(err, &netErr) {
		return "network"
	}

	return typeName(innermost(err))
}

func innermost(err error) error {
	for {
		next := goerrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	name := strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
	if name == "" {
		return "unknown"
	}
	return name
}

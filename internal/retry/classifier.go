package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// Transient PostgreSQL error codes outside the always-transient classes.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeLockNotAvailable     = "55P03"
)

// Classes 08 (connection exception), 53 (insufficient resources) and
// 57 (operator intervention) are retried as a whole.
var transientPgClasses = []string{"08", "53", "57"}

var transientMessages = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"no such host",
	"network is unreachable",
	"server closed the connection",
	"unexpected eof",
	"too many connections",
}

// PostgresClassifier treats connection failures, resource exhaustion,
// serialization conflicts and lock timeouts as transient.
type PostgresClassifier struct{}

func NewPostgresClassifier() *PostgresClassifier {
	return &PostgresClassifier{}
}

func (c *PostgresClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		for _, class := range transientPgClasses {
			if strings.HasPrefix(pgErr.Code, class) {
				return true
			}
		}
		switch pgErr.Code {
		case pgCodeSerializationFailure, pgCodeDeadlockDetected, pgCodeLockNotAvailable:
			return true
		}
		return false
	}

	return isNetworkError(err) || containsAny(err.Error(), transientMessages)
}

// SQLiteClassifier treats a busy or locked database file as transient.
type SQLiteClassifier struct{}

func NewSQLiteClassifier() *SQLiteClassifier {
	return &SQLiteClassifier{}
}

func (c *SQLiteClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(), []string{"sqlite_busy", "database is locked", "sqlite_locked"})
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH} {
			if errors.Is(opErr.Err, errno) {
				return true
			}
		}
	}
	return false
}

func containsAny(msg string, patterns []string) bool {
	msg = strings.ToLower(msg)
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

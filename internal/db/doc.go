// Package db opens pgx connection pools for the Postgres payload sink.
//
// Two authentication methods are supported: the password (or passwordless)
// connection URL as given, and AWS RDS IAM, where a short-lived token replaces
// the password on every new physical connection. Pool creation retries
// transient failures with internal/retry.
package db

package db

import (
	"context"
	"fmt"
	"net"
	"strings"

	"cloud.google.com/go/cloudsqlconn"
)

// Dialer opens connections to a Cloud SQL instance.
type Dialer interface {
	Dial(ctx context.Context, instance string, opts ...cloudsqlconn.DialOption) (net.Conn, error)
	Close() error
}

// NewCloudSQLDialer returns a dialer using IAM database authentication with
// Application Default Credentials.
func NewCloudSQLDialer(ctx context.Context) (Dialer, error) {
	d, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("create Cloud SQL dialer: %w", err)
	}
	return d, nil
}

// validInstance checks the project:region:instance connection name shape.
// Domain-scoped projects add one leading segment.
func validInstance(name string) bool {
	parts := strings.Split(name, ":")
	if len(parts) != 3 && len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

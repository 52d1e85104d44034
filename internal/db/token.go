package db

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
)

// RDSTokenLifetime is how long an RDS IAM token is accepted.
const RDSTokenLifetime = 15 * time.Minute

// TokenProvider supplies a short-lived password.
type TokenProvider interface {
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider without secrets.
	String() string
}

// AWSIAMTokenProvider builds RDS IAM tokens from the default AWS credential chain.
type AWSIAMTokenProvider struct {
	endpoint string
	region   string
	username string
}

// NewAWSIAMTokenProvider requires endpoint as host:port.
func NewAWSIAMTokenProvider(endpoint, region, username string) (*AWSIAMTokenProvider, error) {
	switch {
	case endpoint == "" || endpoint == ":0":
		return nil, fmt.Errorf("AWS IAM auth requires a host in the postgres URL")
	case region == "":
		return nil, fmt.Errorf("AWS IAM auth requires a region (sinks.postgres.aws_region or $AWS_REGION)")
	case username == "":
		return nil, fmt.Errorf("AWS IAM auth requires a user in the postgres URL")
	}
	return &AWSIAMTokenProvider{endpoint: endpoint, region: region, username: username}, nil
}

func (p *AWSIAMTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(p.region))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("load AWS config: %w", err)
	}
	token, err := auth.BuildAuthToken(ctx, p.endpoint, p.region, p.username, cfg.Credentials)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build RDS auth token: %w", err)
	}
	return token, time.Now().Add(RDSTokenLifetime), nil
}

func (p *AWSIAMTokenProvider) String() string {
	return fmt.Sprintf("AWS IAM (endpoint=%s, region=%s, user=%s)", p.endpoint, p.region, p.username)
}

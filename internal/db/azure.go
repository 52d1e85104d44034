package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// AzurePostgresScope is the Entra ID scope for Azure Database for PostgreSQL.
const AzurePostgresScope = "https://ossrdbms-aad.database.windows.net/.default"

// AzureTokenProvider turns an Entra ID credential into Postgres passwords.
type AzureTokenProvider struct {
	credential  azcore.TokenCredential
	description string
}

// NewAzureTokenProvider uses a service principal when tenantID, clientID and
// clientSecret are all set, and the DefaultAzureCredential chain (environment,
// workload identity, managed identity, Azure CLI) when none are.
func NewAzureTokenProvider(tenantID, clientID, clientSecret string) (*AzureTokenProvider, error) {
	set := 0
	for _, v := range []string{tenantID, clientID, clientSecret} {
		if v != "" {
			set++
		}
	}
	switch set {
	case 0:
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("create Azure default credential: %w", err)
		}
		return &AzureTokenProvider{credential: cred, description: "Azure Entra ID (default credential)"}, nil
	case 3:
		cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
		if err != nil {
			return nil, fmt.Errorf("create Azure service principal credential: %w", err)
		}
		return &AzureTokenProvider{
			credential:  cred,
			description: fmt.Sprintf("Azure Entra ID (tenant=%s, client=%s)", tenantID, clientID),
		}, nil
	default:
		return nil, fmt.Errorf("azure service principal auth requires tenant ID, client ID and client secret together")
	}
}

// NewAzureTokenProviderFromCredential wraps an existing credential.
func NewAzureTokenProviderFromCredential(cred azcore.TokenCredential, description string) *AzureTokenProvider {
	return &AzureTokenProvider{credential: cred, description: description}
}

func (p *AzureTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	token, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{AzurePostgresScope}})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("acquire Entra ID token: %w", err)
	}
	return token.Token, token.ExpiresOn, nil
}

func (p *AzureTokenProvider) String() string { return p.description }

package secret

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/drinkbar/pginit/pkg/pginit"
)

// SecretsManagerClient is the subset of the AWS Secrets Manager API the
// source needs. Narrowing the interface keeps tests free of the real SDK
// client.
type SecretsManagerClient interface {
	GetSecretValue(
		ctx context.Context, input *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManagerSource reads the role password from AWS Secrets Manager.
// The secret reference has the form "id" or "id#field"; with a field, the
// secret string is parsed as a JSON object and the named field is used,
// matching how RDS-managed secrets store credentials.
type AWSSecretsManagerSource struct {
	client   SecretsManagerClient
	secretID string
	field    string
}

// ParseSecretRef splits an "id#field" reference.
func ParseSecretRef(ref string) (secretID, field string) {
	secretID, field, _ = strings.Cut(ref, "#")
	return secretID, field
}

// NewAWSSecretsManagerSource creates a source for the given secret reference
// using the default AWS credential chain.
func NewAWSSecretsManagerSource(ctx context.Context, ref string) (*AWSSecretsManagerSource, error) {
	secretID, field := ParseSecretRef(ref)
	if secretID == "" {
		return nil, fmt.Errorf("empty AWS secret reference: %w", pginit.ErrInvalidConfig)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSecretsManagerSource{
		client:   secretsmanager.NewFromConfig(cfg),
		secretID: secretID,
		field:    field,
	}, nil
}

// NewAWSSecretsManagerSourceWithClient creates a source with an injected
// client, for tests.
func NewAWSSecretsManagerSourceWithClient(client SecretsManagerClient, secretID, field string) *AWSSecretsManagerSource {
	return &AWSSecretsManagerSource{
		client:   client,
		secretID: secretID,
		field:    field,
	}
}

// Resolve fetches the secret value. Binary secrets are rejected; the role
// password must be a string.
func (s *AWSSecretsManagerSource) Resolve(ctx context.Context) (string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch secret %s: %w", s.secretID, err)
	}

	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value: %w", s.secretID, pginit.ErrMissingPassword)
	}

	value := *out.SecretString
	if s.field != "" {
		var fields map[string]string
		if err := json.Unmarshal([]byte(value), &fields); err != nil {
			return "", fmt.Errorf("secret %s is not a JSON object, cannot extract field %q: %w", s.secretID, s.field, err)
		}
		value = fields[s.field]
	}

	if value == "" {
		return "", fmt.Errorf("secret %s resolved to an empty password: %w", s.secretID, pginit.ErrMissingPassword)
	}

	return value, nil
}

func (s *AWSSecretsManagerSource) String() string {
	if s.field != "" {
		return fmt.Sprintf("aws-secretsmanager(%s#%s)", s.secretID, s.field)
	}
	return fmt.Sprintf("aws-secretsmanager(%s)", s.secretID)
}

package conf

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// GetPgConnStrFromEnv assembles the connection string for the shared
// contest database that the score cache lives in. Against a local postgres
// the password comes straight from the environment; everywhere else it is
// fetched from AWS Secrets Manager.
func GetPgConnStrFromEnv() string {
	host := os.Getenv("POSTGRES_HOST")
	port := os.Getenv("POSTGRES_PORT")
	user := os.Getenv("POSTGRES_USER")
	db := os.Getenv("POSTGRES_DB")
	ssl := os.Getenv("POSTGRES_SSLMODE")

	pw := os.Getenv("POSTGRES_PW")
	if host != "localhost" {
		pw = pgPasswordFromSecretsManager()
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, pw, db, ssl)
}

func pgPasswordFromSecretsManager() string {
	secretName := os.Getenv("POSTGRES_PASSWORD_SECRET_NAME")
	if secretName == "" {
		panic("POSTGRES_PASSWORD_SECRET_NAME not set in .env file")
	}

	secretValue, err := getSecretFromAWS(secretName)
	if err != nil {
		panic(fmt.Sprintf("failed to get postgres password from AWS: %v", err))
	}

	// the secret is the JSON document the RDS console generates
	var secret struct {
		Password string `json:"password"`
	}
	if err := json.Unmarshal([]byte(secretValue), &secret); err != nil {
		panic(fmt.Sprintf("failed to parse postgres password secret: %v", err))
	}
	return secret.Password
}

func getSecretFromAWS(secretName string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return "", err
	}

	svc := secretsmanager.NewFromConfig(cfg)
	result, err := svc.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return "", err
	}
	return *result.SecretString, nil
}

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"
	"github.com/sicko7947/rollcall"
)

// Kind names a backend implementation
type Kind string

const (
	KindFile     Kind = "file"
	KindDynamoDB Kind = "dynamodb"
	KindMongo    Kind = "mongo"
	KindMemory   Kind = "memory"
)

// Config selects and configures the backend at process start
type Config struct {
	Kind Kind

	// File backend
	DataDir string

	// DynamoDB backend; an empty endpoint uses the AWS default resolver
	DynamoDBTable    string
	DynamoDBEndpoint string

	// Mongo backend
	MongoURI      string
	MongoDatabase string
}

// DefaultConfig provides backend defaults
var DefaultConfig = Config{
	Kind:          KindFile,
	DataDir:       "./data",
	DynamoDBTable: "rollcall",
	MongoDatabase: "devign-attendance",
}

// ParseKind maps a configuration string to a Kind
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindFile, KindDynamoDB, KindMongo, KindMemory:
		return k, nil
	case "":
		return DefaultConfig.Kind, nil
	default:
		return "", fmt.Errorf("unknown store backend %q", s)
	}
}

// NewBackend opens the configured backend. Failure here is fatal for the process.
func NewBackend(ctx context.Context, cfg Config, logger zerolog.Logger) (rollcall.Backend, error) {
	switch cfg.Kind {
	case KindFile, "":
		dir := cfg.DataDir
		if dir == "" {
			dir = DefaultConfig.DataDir
		}
		return NewFileStore(dir, logger)

	case KindDynamoDB:
		if cfg.DynamoDBTable == "" {
			return nil, fmt.Errorf("dynamodb table name is required")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoDBEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
			}
		})
		return NewDynamoDBStore(client, cfg.DynamoDBTable), nil

	case KindMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("mongodb uri is required")
		}
		database := cfg.MongoDatabase
		if database == "" {
			database = DefaultConfig.MongoDatabase
		}
		return OpenMongoStore(ctx, cfg.MongoURI, database)

	case KindMemory:
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Kind)
	}
}

// Verify that every backend implements the interface
var (
	_ rollcall.Backend = (*FileStore)(nil)
	_ rollcall.Backend = (*DynamoDBStore)(nil)
	_ rollcall.Backend = (*MongoStore)(nil)
	_ rollcall.Backend = (*MemoryStore)(nil)
)

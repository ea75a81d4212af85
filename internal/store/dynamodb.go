package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/interview"
)

type DynamoMode string

const (
	DynamoModeLocal DynamoMode = "local"
	DynamoModeAWS   DynamoMode = "aws"

	latestResumeID = "latest"
)

type DynamoConfig struct {
	Mode            DynamoMode `mapstructure:"mode"`
	Endpoint        string     `mapstructure:"endpoint"`
	Region          string     `mapstructure:"region"`
	InterviewsTable string     `mapstructure:"interviews-table"`
	ResumesTable    string     `mapstructure:"resumes-table"`
}

type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// DynamoDBStore keeps audit records in DynamoDB. The most recent resume is
// also written under a fixed key so it can be read back with one GetItem.
type DynamoDBStore struct {
	client dynamoAPI
	config DynamoConfig
	logger *zap.Logger
	now    func() time.Time
}

func (c DynamoConfig) withDefaults() DynamoConfig {
	if c.Mode == "" {
		c.Mode = DynamoModeAWS
	}
	if c.Endpoint == "" {
		c.Endpoint = "http://localhost:8000"
	}
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	if c.InterviewsTable == "" {
		c.InterviewsTable = "hire-interviews"
	}
	if c.ResumesTable == "" {
		c.ResumesTable = "hire-resumes"
	}
	return c
}

func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger *zap.Logger) (*DynamoDBStore, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	var client *dynamodb.Client
	if cfg.Mode == DynamoModeLocal {
		// Build the client directly: LoadDefaultConfig probes IMDS, which hangs
		// outside AWS when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := newDynamoDBStore(client, cfg, logger)

	if cfg.Mode == DynamoModeLocal {
		if err := store.createTablesIfNotExist(ctx); err != nil {
			return nil, err
		}
	}

	logger.Info("dynamodb store initialized",
		zap.String("mode", string(cfg.Mode)),
		zap.String("region", cfg.Region),
	)

	return store, nil
}

func newDynamoDBStore(client dynamoAPI, cfg DynamoConfig, logger *zap.Logger) *DynamoDBStore {
	return &DynamoDBStore{client: client, config: cfg.withDefaults(), logger: logger, now: time.Now}
}

func (s *DynamoDBStore) SaveInterview(ctx context.Context, id string, conversation []interview.Turn) error {
	item, err := attributevalue.MarshalMap(InterviewRecord{
		ID:           id,
		Conversation: conversation,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal interview record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.InterviewsTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save interview record: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) SaveResume(ctx context.Context, resume ResumeRecord) error {
	if resume.ID == "" {
		resume.ID = uuid.NewString()
	}

	for _, id := range []string{resume.ID, latestResumeID} {
		record := resume
		record.ID = id

		item, err := attributevalue.MarshalMap(record)
		if err != nil {
			return fmt.Errorf("failed to marshal resume record: %w", err)
		}

		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.config.ResumesTable),
			Item:      item,
		})
		if err != nil {
			return fmt.Errorf("failed to save resume record: %w", err)
		}
	}
	return nil
}

func (s *DynamoDBStore) LatestResume(ctx context.Context) (*ResumeRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.ResumesTable),
		Key: map[string]dbtypes.AttributeValue{
			"ID": &dbtypes.AttributeValueMemberS{Value: latestResumeID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get latest resume: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var resume ResumeRecord
	if err := attributevalue.UnmarshalMap(out.Item, &resume); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resume record: %w", err)
	}
	return &resume, nil
}

func (s *DynamoDBStore) Close() error { return nil }

// createTablesIfNotExist creates the tables for local development.
func (s *DynamoDBStore) createTablesIfNotExist(ctx context.Context) error {
	for _, table := range []string{s.config.InterviewsTable, s.config.ResumesTable} {
		_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(table),
		})
		if err == nil {
			s.logger.Info("table already exists", zap.String("table", table))
			continue
		}

		_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName: aws.String(table),
			KeySchema: []dbtypes.KeySchemaElement{
				{AttributeName: aws.String("ID"), KeyType: dbtypes.KeyTypeHash},
			},
			AttributeDefinitions: []dbtypes.AttributeDefinition{
				{AttributeName: aws.String("ID"), AttributeType: dbtypes.ScalarAttributeTypeS},
			},
			BillingMode: dbtypes.BillingModePayPerRequest,
		})
		if err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
		s.logger.Info("table created", zap.String("table", table))
	}
	return nil
}

// Package lambdaboot holds the cold-start helpers shared by the Lambda
// entry points: AWS config, S3, DynamoDB, SSM and startup logging.
package lambdaboot

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-video-generator/internal/jobs"
	"github.com/fpang/ai-video-generator/internal/logging"
	"github.com/fpang/ai-video-generator/internal/notify"
	"github.com/fpang/ai-video-generator/internal/s3util"
)

// AWSClients holds the AWS config and the SSM client.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config. Fatals on error.
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{Config: cfg, SSM: ssm.NewFromConfig(cfg)}
}

// InitArtifacts creates the S3 artifact store for bucket. Fatals if the
// bucket name is empty.
func InitArtifacts(cfg aws.Config, bucket string) *s3util.Artifacts {
	if bucket == "" {
		log.Fatal().Str("envVar", "MEDIA_BUCKET_NAME").Msg("Bucket environment variable is required")
	}
	client := s3.NewFromConfig(cfg)
	return &s3util.Artifacts{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
	}
}

// InitJobStore creates the DynamoDB job store for table. Fatals if the
// table name is empty.
func InitJobStore(cfg aws.Config, table string) *jobs.DynamoStore {
	if table == "" {
		log.Fatal().Str("envVar", "DYNAMO_TABLE_NAME").Msg("DynamoDB table environment variable is required")
	}
	return jobs.NewDynamoStore(dynamodb.NewFromConfig(cfg), table)
}

// InitDispatcher creates the async worker dispatcher. Fatals if the
// function ARN is empty.
func InitDispatcher(cfg aws.Config, functionARN string) *jobs.LambdaDispatcher {
	if functionARN == "" {
		log.Fatal().Str("envVar", "WORKER_LAMBDA_ARN").Msg("Worker Lambda ARN is required")
	}
	return &jobs.LambdaDispatcher{Client: lambdasvc.NewFromConfig(cfg), FunctionARN: functionARN}
}

// InitNotifier creates the EventBridge notifier, or nil when no bus is
// configured.
func InitNotifier(cfg aws.Config, bus string) *notify.EventBridge {
	if bus == "" {
		log.Warn().Str("envVar", "EVENT_BUS_NAME").Msg("Event bus not set, completion events disabled")
		return nil
	}
	return notify.New(eventbridge.NewFromConfig(cfg), bus)
}

// LoadGeminiKey fetches the Gemini API key from SSM Parameter Store unless
// GEMINI_API_KEY is already set, and returns it. Fatals on error.
func LoadGeminiKey(ssmClient *ssm.Client, paramName string) string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	ssmStart := time.Now()
	result, err := ssmClient.GetParameter(context.Background(), &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		log.Fatal().Err(err).Str("param", paramName).Msg("Failed to read API key from SSM")
	}
	key := aws.ToString(result.Parameter.Value)
	os.Setenv("GEMINI_API_KEY", key)
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("Gemini API key loaded from SSM")
	return key
}

// StartupLog starts a startup logger with the time spent since initStart.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}

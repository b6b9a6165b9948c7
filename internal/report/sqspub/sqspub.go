package sqspub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// API is the part of the SQS client the publisher needs.
type API interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher sends feedback messages as JSON bodies to an SQS queue. Every
// message carries the plan id as the plan_id string attribute.
type Publisher struct {
	client   API
	queueURL string
	logger   *slog.Logger
}

func New(client API, queueURL string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// Connect loads the default AWS configuration. An empty region falls back to
// whatever the environment or shared config provides.
func Connect(ctx context.Context, queueURL string, region string, logger *slog.Logger) (*Publisher, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return New(sqs.NewFromConfig(cfg), queueURL, logger), nil
}

func (p *Publisher) Publish(ctx context.Context, planID string, msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	out, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(b)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"plan_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(planID),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	p.logger.Debug("sent message", "queue", p.queueURL, "plan_id", planID, "message_id", aws.ToString(out.MessageId))
	return nil
}

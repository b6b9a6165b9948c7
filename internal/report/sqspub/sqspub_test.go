package sqspub_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/programme-lv/codecheck/api"
	"github.com/programme-lv/codecheck/internal/logging"
	"github.com/programme-lv/codecheck/internal/report/sqspub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestPublishSendsMessage(t *testing.T) {
	client := &fakeSQS{}
	p := sqspub.New(client, "https://sqs.eu-central-1.amazonaws.com/1/feedback", logging.Discard())

	fb := api.NewFeedback("p1", "sum", api.Invalid)
	fb.Errors = []string{"does not compile"}
	require.NoError(t, p.Publish(context.Background(), "p1", fb))

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "https://sqs.eu-central-1.amazonaws.com/1/feedback", aws.ToString(in.QueueUrl))
	assert.Equal(t, "p1", aws.ToString(in.MessageAttributes["plan_id"].StringValue))
	assert.Equal(t, "String", aws.ToString(in.MessageAttributes["plan_id"].DataType))

	var got api.Feedback
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &got))
	assert.Equal(t, api.Invalid, got.Status)
	assert.Equal(t, []string{"does not compile"}, got.Errors)
}

func TestPublishWrapsSendError(t *testing.T) {
	cause := errors.New("AccessDenied")
	p := sqspub.New(&fakeSQS{err: cause}, "q", logging.Discard())

	err := p.Publish(context.Background(), "p1", api.NewStartPlan("p1", "j", 1))
	require.ErrorIs(t, err, cause)
	assert.ErrorContains(t, err, "failed to send message")
}

package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadbot-backend/internal/config"
	"leadbot-backend/internal/leads"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func testLead() leads.Lead {
	return leads.Lead{
		ID:       "lead-1",
		Industry: "real_estate",
		Fields: map[string]string{
			"purpose": "rent",
			"city":    "Lagos",
			"name":    "Ada",
			"phone":   "",
		},
		Source:    leads.SourceChatForm,
		Status:    leads.StatusNew,
		CreatedAt: time.Now(),
	}
}

func TestTopicPublishes(t *testing.T) {
	var got *sns.PublishInput
	topic := Topic{
		ARN: "arn:aws:sns:us-east-1:123:leads",
		Client: &MockSNSService{PublishFunc: func(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			got = in
			return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
		}},
	}

	require.NoError(t, topic.Notify(context.Background(), testLead()))
	require.NotNil(t, got)
	assert.Equal(t, "arn:aws:sns:us-east-1:123:leads", aws.ToString(got.TopicArn))
	assert.Equal(t, "New real estate lead", aws.ToString(got.Subject))
	assert.Contains(t, aws.ToString(got.Message), "city: Lagos")
}

func TestEmailSends(t *testing.T) {
	var got *ses.SendEmailInput
	email := Email{
		From: "bot@example.com",
		To:   []string{"sales@example.com"},
		Client: &MockSESService{SendEmailFunc: func(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			got = in
			return &ses.SendEmailOutput{MessageId: aws.String("e-1")}, nil
		}},
	}

	require.NoError(t, email.Notify(context.Background(), testLead()))
	require.NotNil(t, got)
	assert.Equal(t, "bot@example.com", aws.ToString(got.Source))
	assert.Equal(t, []string{"sales@example.com"}, got.Destination.ToAddresses)
	assert.Contains(t, aws.ToString(got.Message.Body.Text.Data), "purpose: rent")
}

func TestMultiJoinsErrors(t *testing.T) {
	snsErr := errors.New("throttled")
	topic := Topic{Client: &MockSNSService{PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
		return nil, snsErr
	}}}
	sent := 0
	email := Email{Client: &MockSESService{SendEmailFunc: func(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		sent++
		return &ses.SendEmailOutput{}, nil
	}}}

	err := Multi{topic, email}.Notify(context.Background(), testLead())
	assert.ErrorIs(t, err, snsErr)
	assert.Equal(t, 1, sent, "a failing channel must not stop the others")
}

func TestBodySkipsEmptyFieldsInOrder(t *testing.T) {
	body := Body(testLead())
	assert.Equal(t, "Lead lead-1 (chat_form)\ncity: Lagos\nname: Ada\npurpose: rent\n", body)
	assert.Equal(t, "New lead from the contact form", Subject(leads.Lead{}))
}

func TestNewDisabled(t *testing.T) {
	n, err := New(context.Background(), config.NotifyConfig{AWSRegion: "us-east-1"})
	require.NoError(t, err)
	assert.Nil(t, n)
}

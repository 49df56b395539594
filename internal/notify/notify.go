// Package notify tells the sales team about new leads over AWS SNS and SES.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"leadbot-backend/internal/config"
	"leadbot-backend/internal/leads"
)

type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SESSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Topic publishes a lead summary to an SNS topic.
type Topic struct {
	Client SNSPublisher
	ARN    string
}

func (t Topic) Notify(ctx context.Context, lead leads.Lead) error {
	_, err := t.Client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(t.ARN),
		Subject:  aws.String(Subject(lead)),
		Message:  aws.String(Body(lead)),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// Email sends a plain-text lead summary through SES.
type Email struct {
	Client SESSender
	From   string
	To     []string
}

func (e Email) Notify(ctx context.Context, lead leads.Lead) error {
	_, err := e.Client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: e.To,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(Subject(lead))},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(Body(lead))},
			},
		},
		Source: aws.String(e.From),
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}

// Multi fans a lead out to every notifier and joins their errors.
type Multi []leads.Notifier

func (m Multi) Notify(ctx context.Context, lead leads.Lead) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, lead); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func Subject(lead leads.Lead) string {
	if lead.Industry == "" {
		return "New lead from the contact form"
	}
	return fmt.Sprintf("New %s lead", strings.ReplaceAll(lead.Industry, "_", " "))
}

// Body lists the collected fields in a stable order.
func Body(lead leads.Lead) string {
	keys := make([]string, 0, len(lead.Fields))
	for k := range lead.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Lead %s (%s)\n", lead.ID, lead.Source)
	for _, k := range keys {
		if v := lead.Fields[k]; v != "" {
			fmt.Fprintf(&b, "%s: %s\n", k, v)
		}
	}
	return b.String()
}

// New builds the notifier set described by cfg, or nil when nothing is
// configured.
func New(ctx context.Context, cfg config.NotifyConfig) (leads.Notifier, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var m Multi
	if cfg.SNSTopicARN != "" {
		m = append(m, Topic{Client: sns.NewFromConfig(awsCfg), ARN: cfg.SNSTopicARN})
	}
	if cfg.EmailFrom != "" && len(cfg.EmailTo) > 0 {
		m = append(m, Email{Client: ses.NewFromConfig(awsCfg), From: cfg.EmailFrom, To: cfg.EmailTo})
	}
	return m, nil
}

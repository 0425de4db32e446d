// Package notify renders and delivers email (SES) and SMS (SNS) messages.
// Delivery is best-effort: Send reports success as a bool and never returns
// an error into the caller.
package notify

import (
	"context"
	"fmt"
	"strings"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/common/metrics"
	"tenancy-workflow/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SMSSenderID  string
}

type Dispatcher struct {
	config    Config
	ses       SESService
	sns       SNSService
	logger    logger.Logger
	templates map[string]Template
}

func NewDispatcher(config Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		config:    config,
		ses:       sesClient,
		sns:       snsClient,
		logger:    log,
		templates: defaultTemplates(),
	}
}

// Build renders a named template for one recipient.
func (d *Dispatcher) Build(template, to string, channel models.Channel, data map[string]interface{}) (models.Message, error) {
	tmpl, ok := d.templates[template]
	if !ok {
		return models.Message{}, errors.NewInternalError(fmt.Errorf("template not found: %s", template))
	}

	body := tmpl.Body
	if channel == models.ChannelSMS && tmpl.SMS != "" {
		body = tmpl.SMS
	}

	return models.Message{
		ID:       uuid.New().String(),
		To:       strings.TrimSpace(to),
		Subject:  renderTemplate(tmpl.Subject, data),
		Body:     renderTemplate(body, data),
		Channel:  channel,
		Template: template,
	}, nil
}

// Send delivers msg and reports whether it was accepted upstream.
func (d *Dispatcher) Send(ctx context.Context, msg models.Message) bool {
	err := d.Deliver(ctx, msg)
	status := "sent"
	if err != nil {
		status = "failed"
		d.logger.Warn("notification delivery failed", map[string]interface{}{
			"notificationId": msg.ID,
			"channel":        string(msg.Channel),
			"template":       msg.Template,
			"error":          err,
		})
	}
	metrics.NotificationsSent.WithLabelValues(string(msg.Channel), status).Inc()
	return err == nil
}

// Deliver is Send with the failure cause.
func (d *Dispatcher) Deliver(ctx context.Context, msg models.Message) error {
	if msg.To == "" {
		return errors.NewUpstreamDeliveryError(string(msg.Channel), "", fmt.Errorf("no recipient"))
	}

	switch msg.Channel {
	case models.ChannelEmail:
		if !d.config.EmailEnabled || d.ses == nil {
			return errors.NewUpstreamDeliveryError("email", msg.To, fmt.Errorf("email delivery disabled"))
		}
		if err := d.sendEmail(ctx, msg); err != nil {
			return errors.NewUpstreamDeliveryError("email", msg.To, err)
		}
	case models.ChannelSMS:
		if !d.config.SMSEnabled || d.sns == nil {
			return errors.NewUpstreamDeliveryError("sms", msg.To, fmt.Errorf("sms delivery disabled"))
		}
		if err := d.sendSMS(ctx, msg); err != nil {
			return errors.NewUpstreamDeliveryError("sms", msg.To, err)
		}
	default:
		return errors.NewUpstreamDeliveryError(string(msg.Channel), msg.To, fmt.Errorf("unknown channel"))
	}

	d.logger.Debug("notification sent", map[string]interface{}{
		"notificationId": msg.ID,
		"channel":        string(msg.Channel),
		"template":       msg.Template,
	})
	return nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, msg models.Message) error {
	_, err := d.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(msg.Subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(msg.Body)},
			},
		},
		Source: aws.String(d.config.FromEmail),
	})
	return err
}

func (d *Dispatcher) sendSMS(ctx context.Context, msg models.Message) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(msg.To),
		Message:     aws.String(msg.Body),
	}
	if d.config.SMSSenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(d.config.SMSSenderID),
			},
		}
	}
	_, err := d.sns.Publish(ctx, input)
	return err
}

func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// unknown placeholders render empty
	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}

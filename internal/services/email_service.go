package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// AWSSESEmailService sends unlock notifications using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// SendUnlockNotification tells a user their account lockout was lifted by an
// administrator.
func (s *AWSSESEmailService) SendUnlockNotification(ctx context.Context, email, fullName, reason string) error {
	greeting := "Hello,"
	if fullName != "" {
		greeting = fmt.Sprintf("Hello %s,", fullName)
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .content { padding: 20px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Your Account Has Been Unlocked</h1>
        </div>
        <div class="content">
            <p>%s</p>
            <p>Your LegalEase account was temporarily locked after repeated failed sign-in attempts. An administrator has now unlocked it and you can sign in again.</p>
            <p><strong>Reason given:</strong> %s</p>
            <p>If you did not request this unlock, or you do not recognize the failed sign-in attempts, please change your password and contact support.</p>
        </div>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, greeting, reason)

	textBody := fmt.Sprintf(`Your Account Has Been Unlocked

%s

Your LegalEase account was temporarily locked after repeated failed sign-in attempts. An administrator has now unlocked it and you can sign in again.

Reason given: %s

If you did not request this unlock, or you do not recognize the failed sign-in attempts, please change your password and contact support.

This is an automated message. Please do not reply to this email.
`, greeting, reason)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Your account has been unlocked"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send unlock notification via SES",
			slog.String("email", email),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("unlock notification sent",
		slog.String("email", email),
		slog.String("message_id", *result.MessageId))

	return nil
}

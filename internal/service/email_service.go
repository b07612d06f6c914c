package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
}

// NewEmailService creates a new email service. If fromEmail is empty the
// service is disabled and sends are logged and skipped, which keeps local
// development working without AWS credentials.
func NewEmailService(awsRegion, fromEmail, fromName string) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(cfg)

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendOTPEmail sends a sign-in email carrying the one-time passcode and,
// when a magic link is available, a one-click sign-in link.
func (s *EmailService) SendOTPEmail(ctx context.Context, toEmail, code, magicLink string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): sign-in code to %s", toEmail)
		return nil
	}

	subject := "Your Attune sign-in code"

	linkHTML := ""
	linkText := ""
	if magicLink != "" {
		linkHTML = fmt.Sprintf(`
			<p>Or click the button below to sign in directly:</p>
			<p style="text-align: center;">
				<a href="%s" class="button">Sign In</a>
			</p>`, magicLink)
		linkText = fmt.Sprintf("\nOr sign in directly:\n%s\n", magicLink)
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #4a90e2; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.code { font-size: 32px; letter-spacing: 8px; text-align: center; font-weight: bold; margin: 20px 0; }
		.button { display: inline-block; padding: 12px 30px; background-color: #4a90e2; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Sign in to Attune</h1>
		</div>
		<div class="content">
			<p>Enter this code to sign in:</p>
			<p class="code">%s</p>
			%s
			<p><strong>This code will expire in 10 minutes.</strong></p>
			<p>If you didn't request this code, you can safely ignore this email.</p>
		</div>
		<div class="footer">
			<p>This is an automated email from Attune. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, code, linkHTML)

	textBody := fmt.Sprintf(`Your Attune sign-in code is: %s
%s
This code will expire in 10 minutes.

If you didn't request this code, you can safely ignore this email.

---
This is an automated email from Attune. Please do not reply.
`, code, linkText)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}

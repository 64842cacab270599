package ses

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	reviewerTo  string
	frontendURL string
}

// NewSESSender creates a new SES-backed EmailSender. reviewerTo is the
// mailbox that receives review and failure notifications.
func NewSESSender(region, fromAddress, fromName, reviewerTo, frontendURL string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
		reviewerTo:  reviewerTo,
		frontendURL: frontendURL,
	}, nil
}

func (s *sesSender) SendReviewNeeded(ctx context.Context, record *domain.StagingRecord) error {
	if s.reviewerTo == "" {
		return nil
	}
	reviewURL := fmt.Sprintf("%s/imports/%s", s.frontendURL, record.ID)

	subject := fmt.Sprintf("Invoice import needs review: %s", record.SourceFilename)
	htmlBody := buildReviewNeededHTML(record, reviewURL)
	textBody := fmt.Sprintf(
		"An imported invoice needs review.\n\nFile: %s\nSupplier (as read): %s\nInvoice number: %s\nTotal: %s %s\n\nReview it here:\n%s\n",
		record.SourceFilename, record.SupplierNameOCR, record.InvoiceNumber,
		record.Currency, record.TotalAmount, reviewURL)

	return s.send(ctx, subject, htmlBody, textBody)
}

func (s *sesSender) SendImportFailed(ctx context.Context, record *domain.StagingRecord, reason string) error {
	if s.reviewerTo == "" {
		return nil
	}
	recordURL := fmt.Sprintf("%s/imports/%s", s.frontendURL, record.ID)

	subject := fmt.Sprintf("Invoice import failed: %s", record.SourceFilename)
	htmlBody := buildImportFailedHTML(record, reason, recordURL)
	textBody := fmt.Sprintf(
		"An invoice import failed.\n\nFile: %s\nReason: %s\n\nInspect it here:\n%s\n",
		record.SourceFilename, reason, recordURL)

	return s.send(ctx, subject, htmlBody, textBody)
}

func (s *sesSender) send(ctx context.Context, subject, htmlBody, textBody string) error {
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{s.reviewerTo},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildReviewNeededHTML(record *domain.StagingRecord, reviewURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Invoice import needs review</h2>
  <p>An imported invoice could not be matched automatically.</p>
  <table style="border-collapse: collapse; width: 100%%;">
    <tr><td style="padding: 4px 8px; color: #666;">File</td><td style="padding: 4px 8px;">%s</td></tr>
    <tr><td style="padding: 4px 8px; color: #666;">Supplier (as read)</td><td style="padding: 4px 8px;">%s</td></tr>
    <tr><td style="padding: 4px 8px; color: #666;">Invoice number</td><td style="padding: 4px 8px;">%s</td></tr>
    <tr><td style="padding: 4px 8px; color: #666;">Total</td><td style="padding: 4px 8px;">%s %s</td></tr>
  </table>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Review Import</a>
  </p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">OCR Desk - Invoice Import</p>
</body>
</html>`, record.SourceFilename, record.SupplierNameOCR, record.InvoiceNumber,
		record.Currency, record.TotalAmount, reviewURL)
}

func buildImportFailedHTML(record *domain.StagingRecord, reason, recordURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Invoice import failed</h2>
  <p>Extraction failed for <strong>%s</strong>.</p>
  <p style="color: #b91c1c;">%s</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Inspect Import</a>
  </p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">OCR Desk - Invoice Import</p>
</body>
</html>`, record.SourceFilename, reason, recordURL)
}

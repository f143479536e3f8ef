package ses

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"assaylab/internal/config"
	"assaylab/internal/port"
)

// base64 attachment bodies are wrapped at this width.
const lineLength = 76

type sendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesSender struct {
	client sendEmailAPI
	from   string
}

// NewSESSender creates a new SES-backed ReportMailer.
func NewSESSender(ctx context.Context, cfg config.EmailConfig) (port.ReportMailer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return newSender(sesv2.NewFromConfig(awsCfg), cfg), nil
}

func newSender(client sendEmailAPI, cfg config.EmailConfig) *sesSender {
	from := (&mail.Address{Name: cfg.FromName, Address: cfg.FromAddress}).String()
	return &sesSender{client: client, from: from}
}

func (s *sesSender) SendReport(ctx context.Context, msg port.ReportEmail) error {
	if len(msg.To) == 0 {
		return errors.New("report email has no recipients")
	}
	if msg.File == nil {
		return errors.New("report email has no attachment")
	}

	raw, err := buildRawMessage(s.from, msg)
	if err != nil {
		return fmt.Errorf("building report email: %w", err)
	}

	_, err = s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &s.from,
		Destination: &types.Destination{
			ToAddresses: msg.To,
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

// buildRawMessage renders a multipart/mixed message with a plain text body and
// the report attached.
func buildRawMessage(from string, msg port.ReportEmail) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	qp := quotedprintable.NewWriter(text)
	if _, err := qp.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}

	contentType := msg.File.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	attachment, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": msg.File.Filename})},
	})
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(msg.File.Data)
	for len(encoded) > lineLength {
		if _, err := fmt.Fprintf(attachment, "%s\r\n", encoded[:lineLength]); err != nil {
			return nil, err
		}
		encoded = encoded[lineLength:]
	}
	if _, err := fmt.Fprintf(attachment, "%s\r\n", encoded); err != nil {
		return nil, err
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

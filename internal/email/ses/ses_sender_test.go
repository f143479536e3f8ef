package ses

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assaylab/internal/config"
	"assaylab/internal/domain"
	"assaylab/internal/port"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{}, nil
}

var testEmailConfig = config.EmailConfig{FromAddress: "reports@example.com", FromName: "Lab Reports"}

func reportEmail() port.ReportEmail {
	return port.ReportEmail{
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "GMC Daily Report",
		Body:    "Attached is the daily report.",
		File: &domain.ReportFile{
			Filename:    "DailyReport-2024-01-05.pdf",
			ContentType: "application/pdf",
			Data:        bytes.Repeat([]byte("%PDF-1.4 "), 40),
		},
	}
}

func TestSESSender_SendReport(t *testing.T) {
	fake := &fakeSES{}
	sender := newSender(fake, testEmailConfig)

	require.NoError(t, sender.SendReport(context.Background(), reportEmail()))

	require.NotNil(t, fake.input)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, fake.input.Destination.ToAddresses)
	assert.Equal(t, `"Lab Reports" <reports@example.com>`, *fake.input.FromEmailAddress)
	require.NotNil(t, fake.input.Content.Raw)

	msg, err := mail.ReadMessage(bytes.NewReader(fake.input.Content.Raw.Data))
	require.NoError(t, err)
	assert.Equal(t, "GMC Daily Report", decodeHeader(t, msg.Header.Get("Subject")))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])

	body, err := mr.NextPart()
	require.NoError(t, err)
	text, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "Attached is the daily report.", string(text))

	attachment, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "DailyReport-2024-01-05.pdf", attachment.FileName())
	assert.Equal(t, "application/pdf", attachment.Header.Get("Content-Type"))
	encoded, err := io.ReadAll(attachment)
	require.NoError(t, err)
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(encoded), "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, reportEmail().File.Data, data)
}

func TestSESSender_NoRecipients(t *testing.T) {
	fake := &fakeSES{}
	msg := reportEmail()
	msg.To = nil

	err := newSender(fake, testEmailConfig).SendReport(context.Background(), msg)

	assert.Error(t, err)
	assert.Nil(t, fake.input)
}

func TestSESSender_ClientError(t *testing.T) {
	fake := &fakeSES{err: errors.New("throttled")}

	err := newSender(fake, testEmailConfig).SendReport(context.Background(), reportEmail())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func decodeHeader(t *testing.T, v string) string {
	t.Helper()
	out, err := new(mime.WordDecoder).DecodeHeader(v)
	require.NoError(t, err)
	return out
}

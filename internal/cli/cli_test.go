package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"assaylab/internal/cli"
	"assaylab/internal/domain"
	"assaylab/internal/port"
	"assaylab/internal/service"
	"assaylab/mocks"
)

type opened struct {
	svc    *mocks.MockReportService
	calls  int
	closed int
}

func (o *opened) open(context.Context) (service.ReportService, func(), error) {
	o.calls++
	return o.svc, func() { o.closed++ }, nil
}

func execute(t *testing.T, open cli.Opener, args ...string) (string, error) {
	t.Helper()
	return executeWithMailer(t, open, nil, args...)
}

func executeWithMailer(t *testing.T, open cli.Opener, mailer port.ReportMailer, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd(open, mailer)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestElementsCmd(t *testing.T) {
	out, err := execute(t, nil, "elements")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{"Mn", "Sol_Mn", "Fe", "B", "MnO2", "SiO2", "Al2O3", "MgO", "CaO", "Au", "H2O", "Mg", "P", "As"}, lines)
}

func TestKindsCmd(t *testing.T) {
	out, err := execute(t, nil, "kinds")

	require.NoError(t, err)
	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "geology")
	assert.Contains(t, out, "Geology Report Analysis Statistics")
	assert.Contains(t, out, "plants (required)")
	assert.Contains(t, out, "daily-assays")
}

func TestGenerateCmd_WritesIntoDirectory(t *testing.T) {
	o := &opened{svc: new(mocks.MockReportService)}
	o.svc.On("Generate", mock.Anything, domain.ReportRequest{
		Kind:        "daily",
		StartDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		PlantIDs:    []int64{4, 7},
		Format:      "csv",
		RequestedBy: "reportctl",
	}).Return(&domain.ReportFile{Filename: "DailySamples-20240306080000.csv", Data: []byte("a,b\n")}, nil)

	dir := t.TempDir()
	out, err := execute(t, o.open, "generate", "--kind", "daily", "--from", "2024-03-01", "--to", "2024-03-05",
		"--plants", "4,7", "--format", "csv", "--out", dir)

	require.NoError(t, err)
	path := filepath.Join(dir, "DailySamples-20240306080000.csv")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
	assert.Contains(t, out, path)
	assert.Equal(t, 1, o.closed)
	o.svc.AssertExpectations(t)
}

func TestGenerateCmd_Stdout(t *testing.T) {
	o := &opened{svc: new(mocks.MockReportService)}
	o.svc.On("Generate", mock.Anything, mock.MatchedBy(func(req domain.ReportRequest) bool {
		return req.Kind == "met" && req.JobNumber == "J-1" && req.Description == "Head grade" &&
			assert.ObjectsAreEqual([]string{"Fe", "Mn"}, req.Elements)
	})).Return(&domain.ReportFile{Filename: "MetReport-2024-03-01.pdf", Data: []byte("%PDF-")}, nil)

	out, err := execute(t, o.open, "generate", "--kind", "met", "--from", "2024-03-01",
		"--job", "J-1", "--description", "Head grade", "--elements", "Fe,Mn", "--out", "-")

	require.NoError(t, err)
	assert.Equal(t, "%PDF-", out)
}

func TestGenerateCmd_ValidationErrorIsReturned(t *testing.T) {
	o := &opened{svc: new(mocks.MockReportService)}
	o.svc.On("Generate", mock.Anything, mock.Anything).
		Return(nil, domain.NewValidationError("description", "description is required"))

	dir := t.TempDir()
	_, err := execute(t, o.open, "generate", "--kind", "met", "--from", "2024-03-01", "--out", dir)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "description is required")
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
	assert.Equal(t, 1, o.closed)
}

func TestGenerateCmd_BadDateSkipsOpen(t *testing.T) {
	o := &opened{svc: new(mocks.MockReportService)}

	_, err := execute(t, o.open, "generate", "--kind", "geology", "--from", "01/03/2024")

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, o.calls)
}

func TestGenerateCmd_OpenFailure(t *testing.T) {
	open := func(context.Context) (service.ReportService, func(), error) {
		return nil, nil, errors.New("connection refused")
	}

	_, err := execute(t, open, "generate", "--kind", "geology", "--from", "2024-03-01")

	assert.EqualError(t, err, "connection refused")
}

func TestGenerateCmd_RequiresKind(t *testing.T) {
	o := &opened{svc: new(mocks.MockReportService)}

	_, err := execute(t, o.open, "generate", "--from", "2024-03-01")

	require.Error(t, err)
	assert.Equal(t, 0, o.calls)
}

func TestGenerateCmd_EmailsReport(t *testing.T) {
	file := &domain.ReportFile{Filename: "GeoDaily-20240306080000.pdf", ContentType: "application/pdf", Data: []byte("%PDF-")}
	o := &opened{svc: new(mocks.MockReportService)}
	o.svc.On("Generate", mock.Anything, mock.Anything).Return(file, nil)
	mailer := new(mocks.MockReportMailer)
	mailer.On("SendReport", mock.Anything, mock.MatchedBy(func(msg port.ReportEmail) bool {
		return assert.ObjectsAreEqual([]string{"lab@example.com", "plant@example.com"}, msg.To) &&
			msg.File == file && msg.Subject == file.Filename
	})).Return(nil)

	_, err := executeWithMailer(t, o.open, mailer, "generate", "--kind", "geology", "--from", "2024-03-01",
		"--out", t.TempDir(), "--email", "lab@example.com,plant@example.com")

	require.NoError(t, err)
	mailer.AssertExpectations(t)
}

func TestGenerateCmd_EmailFailureIsReported(t *testing.T) {
	o := &opened{svc: new(mocks.MockReportService)}
	o.svc.On("Generate", mock.Anything, mock.Anything).
		Return(&domain.ReportFile{Filename: "GeoDaily-20240306080000.pdf", Data: []byte("%PDF-")}, nil)
	mailer := new(mocks.MockReportMailer)
	mailer.On("SendReport", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	_, err := executeWithMailer(t, o.open, mailer, "generate", "--kind", "geology", "--from", "2024-03-01",
		"--out", "-", "--email", "lab@example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestGenerateCmd_InvalidRecipientSkipsOpen(t *testing.T) {
	o := &opened{svc: new(mocks.MockReportService)}

	_, err := executeWithMailer(t, o.open, new(mocks.MockReportMailer), "generate", "--kind", "geology",
		"--from", "2024-03-01", "--email", "not-an-address")

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, o.calls)
}

func TestGenerateCmd_EmailWithoutMailer(t *testing.T) {
	o := &opened{svc: new(mocks.MockReportService)}

	_, err := execute(t, o.open, "generate", "--kind", "geology", "--from", "2024-03-01", "--email", "lab@example.com")

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, o.calls)
}

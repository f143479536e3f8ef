package port

import (
	"context"

	"assaylab/internal/domain"
)

// ReportEmail is one report delivery: the file travels as an attachment.
type ReportEmail struct {
	To      []string
	Subject string
	Body    string
	File    *domain.ReportFile
}

// ReportMailer defines the contract for delivering generated reports by email.
type ReportMailer interface {
	SendReport(ctx context.Context, msg ReportEmail) error
}

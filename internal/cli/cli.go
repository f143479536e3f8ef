// Package cli holds the reportctl commands.
package cli

import (
	"context"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"assaylab/internal/domain"
	"assaylab/internal/element"
	"assaylab/internal/port"
	"assaylab/internal/service"
)

// Opener builds the report service on demand and returns a function that
// releases whatever it opened.
type Opener func(ctx context.Context) (service.ReportService, func(), error)

// NewRootCmd assembles reportctl. Only generate calls open. mailer may be nil,
// in which case --email is rejected.
func NewRootCmd(open Opener, mailer port.ReportMailer) *cobra.Command {
	root := &cobra.Command{
		Use:           "reportctl",
		Short:         "Generate laboratory reports from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newGenerateCmd(open, mailer), newKindsCmd(), newElementsCmd())
	return root
}

type generateCmd struct {
	open        Opener
	mailer      port.ReportMailer
	kind        string
	from        string
	to          string
	elements    []string
	plants      []int64
	jobNumber   string
	description string
	format      string
	out         string
	emailTo     []string
}

func newGenerateCmd(open Opener, mailer port.ReportMailer) *cobra.Command {
	gc := &generateCmd{open: open, mailer: mailer}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a report file",
		RunE:  gc.run,
	}

	cmd.Flags().StringVar(&gc.kind, "kind", "", "Report kind (see 'reportctl kinds')")
	cmd.Flags().StringVar(&gc.from, "from", "", "First production date, YYYY-MM-DD")
	cmd.Flags().StringVar(&gc.to, "to", "", "Last production date, YYYY-MM-DD")
	cmd.Flags().StringSliceVar(&gc.elements, "elements", nil, "Elements to include, comma separated")
	cmd.Flags().Int64SliceVar(&gc.plants, "plants", nil, "Plant source ids, comma separated")
	cmd.Flags().StringVar(&gc.jobNumber, "job", "", "Job number (MET report)")
	cmd.Flags().StringVar(&gc.description, "description", "", "Report description (MET report)")
	cmd.Flags().StringVar(&gc.format, "format", "", "Output format: pdf, xlsx or csv")
	cmd.Flags().StringVarP(&gc.out, "out", "o", ".", "Output directory or file path, '-' for stdout")
	cmd.Flags().StringSliceVar(&gc.emailTo, "email", nil, "Also email the report to these addresses")

	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func (gc *generateCmd) run(cmd *cobra.Command, _ []string) error {
	req := domain.ReportRequest{
		Kind:        gc.kind,
		Elements:    gc.elements,
		PlantIDs:    gc.plants,
		JobNumber:   gc.jobNumber,
		Description: gc.description,
		Format:      gc.format,
		RequestedBy: "reportctl",
	}

	var err error
	if req.StartDate, err = parseDay("from", gc.from); err != nil {
		return err
	}
	if req.EndDate, err = parseDay("to", gc.to); err != nil {
		return err
	}
	if err := gc.checkRecipients(); err != nil {
		return err
	}

	ctx := cmd.Context()
	svc, closeFn, err := gc.open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	file, err := svc.Generate(ctx, req)
	if err != nil {
		return err
	}

	if gc.out == "-" {
		if _, err := cmd.OutOrStdout().Write(file.Data); err != nil {
			return err
		}
		return gc.deliver(ctx, file)
	}

	target := gc.out
	if info, statErr := os.Stat(target); statErr == nil && info.IsDir() {
		target = filepath.Join(target, file.Filename)
	}
	if err := os.WriteFile(target, file.Data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	zerolog.Ctx(ctx).Info().Str("path", target).Int("bytes", len(file.Data)).Msg("report written")
	fmt.Fprintln(cmd.OutOrStdout(), target)
	if file.ArchiveURL != "" {
		fmt.Fprintln(cmd.OutOrStdout(), "archived:", file.ArchiveURL)
	}
	return gc.deliver(ctx, file)
}

func (gc *generateCmd) checkRecipients() error {
	if len(gc.emailTo) == 0 {
		return nil
	}
	if gc.mailer == nil {
		return domain.NewValidationError("email", "email delivery is not configured")
	}
	for _, addr := range gc.emailTo {
		if _, err := mail.ParseAddress(addr); err != nil {
			return domain.NewValidationError("email", "invalid address %q", addr)
		}
	}
	return nil
}

func (gc *generateCmd) deliver(ctx context.Context, file *domain.ReportFile) error {
	if len(gc.emailTo) == 0 {
		return nil
	}
	err := gc.mailer.SendReport(ctx, port.ReportEmail{
		To:      gc.emailTo,
		Subject: file.Filename,
		Body:    fmt.Sprintf("The %s report is attached.", gc.kind),
		File:    file,
	})
	if err != nil {
		return fmt.Errorf("emailing report: %w", err)
	}
	zerolog.Ctx(ctx).Info().Strs("to", gc.emailTo).Str("filename", file.Filename).Msg("report emailed")
	return nil
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List report kinds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tTITLE\tINPUTS")
			for _, k := range service.DescribeKinds() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", k.Tag, strings.TrimSpace(k.Title+" "+k.Subtitle), inputs(k))
			}
			return tw.Flush()
		},
	}
}

func newElementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "elements",
		Short: "List assayed elements in report order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range element.Names() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func inputs(k service.KindInfo) string {
	var in []string
	if k.UsesElements {
		in = append(in, "elements")
	}
	switch {
	case k.RequirePlants:
		in = append(in, "plants (required)")
	case k.UsesPlants:
		in = append(in, "plants")
	}
	if k.UsesJobNumber {
		in = append(in, "job")
	}
	if k.RequireDescription {
		in = append(in, "description")
	}
	if k.SingleDay {
		in = append(in, "single day")
	}
	if len(in) == 0 {
		return "-"
	}
	return strings.Join(in, ", ")
}

func parseDay(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "invalid date %q: must be YYYY-MM-DD", s)
	}
	return t, nil
}

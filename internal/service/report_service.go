package service

import (
	"bytes"
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"assaylab/internal/aggregate"
	"assaylab/internal/config"
	"assaylab/internal/csvexport"
	"assaylab/internal/domain"
	"assaylab/internal/element"
	"assaylab/internal/metrics"
	"assaylab/internal/port"
	"assaylab/internal/render"
)

const jobNumberSearchLimit = 20

// KindInfo describes a report kind for populating report forms.
type KindInfo struct {
	Tag                domain.ReportKind `json:"tag"`
	Title              string            `json:"title"`
	Subtitle           string            `json:"subtitle,omitempty"`
	UsesElements       bool              `json:"uses_elements"`
	UsesPlants         bool              `json:"uses_plants"`
	RequirePlants      bool              `json:"require_plants"`
	UsesJobNumber      bool              `json:"uses_job_number"`
	RequireDescription bool              `json:"require_description"`
	SingleDay          bool              `json:"single_day"`
}

// ReportService validates report requests, runs the aggregation and renders the result.
type ReportService interface {
	Generate(ctx context.Context, req domain.ReportRequest) (*domain.ReportFile, error)
	Kinds() []KindInfo
	ElementNames() []string
	PlantSources(ctx context.Context) ([]domain.PlantSource, error)
	SearchJobNumbers(ctx context.Context, term string) ([]string, error)
}

// ReportOption customizes a ReportService.
type ReportOption func(*reportService)

// WithClock replaces the clock used for generation stamps.
func WithClock(now func() time.Time) ReportOption {
	return func(s *reportService) { s.now = now }
}

// WithLogger sets the logger used when the request context carries none.
func WithLogger(logger zerolog.Logger) ReportOption {
	return func(s *reportService) { s.logger = logger }
}

// WithRenderer registers r for format, replacing the built-in renderer.
func WithRenderer(format domain.ReportFormat, r render.Renderer) ReportOption {
	return func(s *reportService) { s.renderers[format] = r }
}

type reportService struct {
	repo      port.LabResultRepository
	engine    *aggregate.Engine
	assets    AssetLoader
	storage   port.ObjectStorage
	recorder  metrics.Recorder
	cfg       config.ReportConfig
	s3cfg     config.S3Config
	renderers map[domain.ReportFormat]render.Renderer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewReportService creates a new ReportService. assets and storage may be nil
// when no logo or archive is configured.
func NewReportService(
	repo port.LabResultRepository,
	assets AssetLoader,
	storage port.ObjectStorage,
	recorder metrics.Recorder,
	cfg config.ReportConfig,
	s3cfg config.S3Config,
	opts ...ReportOption,
) ReportService {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	s := &reportService{
		repo:     repo,
		engine:   aggregate.NewEngine(repo),
		assets:   assets,
		storage:  storage,
		recorder: recorder,
		cfg:      cfg,
		s3cfg:    s3cfg,
		renderers: map[domain.ReportFormat]render.Renderer{
			domain.FormatPDF:  render.NewPDFRenderer(),
			domain.FormatXLSX: render.NewXLSXRenderer(),
			domain.FormatCSV:  csvexport.NewRenderer(),
		},
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *reportService) Generate(ctx context.Context, req domain.ReportRequest) (*domain.ReportFile, error) {
	began := time.Now()
	tag := strings.ToLower(strings.TrimSpace(req.Kind))

	q, kind, err := s.validate(req)
	if err != nil {
		return nil, s.fail(ctx, tag, domain.ReportQuery{}, err, began)
	}

	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}

	res, err := s.engine.Run(ctx, q)
	if err != nil {
		return nil, s.fail(ctx, tag, q, err, began)
	}

	var logo []byte
	if s.assets != nil {
		logo, err = s.assets.Load(ctx)
		if err != nil {
			return nil, s.fail(ctx, tag, q, domain.Dependency("logo", err), began)
		}
	}

	generatedAt := s.now()
	renderer := s.renderers[q.Format]
	doc := s.document(kind, q, res, generatedAt)
	doc.Logo = logo

	data, err := renderer.Render(ctx, doc)
	if err != nil {
		return nil, s.fail(ctx, tag, q, domain.Dependency("render", err), began)
	}

	file := &domain.ReportFile{
		Filename:    s.filename(kind, q, generatedAt, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}
	s.archive(ctx, kind, q, file)

	log := s.loggerFor(ctx)
	for _, w := range res.Warnings {
		log.Warn().Str("kind", string(kind.Tag)).Msg(w)
	}
	log.Info().
		Str("kind", string(kind.Tag)).
		Str("format", string(q.Format)).
		Int("records", res.Records).
		Int("bytes", len(data)).
		Str("filename", file.Filename).
		Str("requested_by", q.RequestedBy).
		Msg("report generated")

	s.recorder.ObserveReport(string(kind.Tag), metrics.OutcomeOK, time.Since(began))
	return file, nil
}

// validate turns a raw request into a query. Nothing is fetched before it succeeds.
func (s *reportService) validate(req domain.ReportRequest) (domain.ReportQuery, *aggregate.Kind, error) {
	var q domain.ReportQuery

	tag := domain.ReportKind(strings.ToLower(strings.TrimSpace(req.Kind)))
	kind, ok := aggregate.Lookup(tag)
	if !ok {
		return q, nil, domain.NewValidationError("kind", "unknown report type %q", req.Kind)
	}
	q.Kind = kind.Tag
	q.RequestedBy = req.RequestedBy

	if req.StartDate.IsZero() {
		return q, nil, domain.NewValidationError("start_date", "start date is required")
	}
	q.From = aggregate.Day(req.StartDate)
	switch {
	case !req.EndDate.IsZero():
		q.To = aggregate.Day(req.EndDate)
	case kind.SingleDay:
		q.To = q.From
	default:
		return q, nil, domain.NewValidationError("end_date", "end date is required")
	}
	if kind.SingleDay && !q.To.Equal(q.From) {
		return q, nil, domain.NewValidationError("end_date", "the %s covers a single day; end date must equal start date", kind.Title)
	}
	if q.From.After(q.To) {
		return q, nil, domain.NewValidationError("end_date", "start date %s is after end date %s",
			q.From.Format("2006-01-02"), q.To.Format("2006-01-02"))
	}

	if kind.RequireDescription {
		q.Description = strings.TrimSpace(req.Description)
		if q.Description == "" {
			return q, nil, domain.NewValidationError("description", "a description is required for the %s", kind.Title)
		}
	}
	if kind.UsesElements {
		q.Elements = element.Normalize(req.Elements)
	}
	if kind.UsesJobNumber {
		q.JobNumber = strings.TrimSpace(req.JobNumber)
	}
	if kind.UsesPlants {
		for _, id := range req.PlantIDs {
			if id <= 0 {
				return q, nil, domain.NewValidationError("plant_ids", "invalid plant id %d", id)
			}
		}
		q.PlantIDs = req.PlantIDs
	}
	if kind.RequirePlants && len(q.PlantIDs) == 0 {
		return q, nil, domain.NewValidationError("plant_ids", "select at least one plant for the %s", kind.Title)
	}

	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = s.cfg.DefaultFormat
	}
	if format == "" {
		format = string(domain.FormatPDF)
	}
	q.Format = domain.ReportFormat(format)
	if _, ok := s.renderers[q.Format]; !ok {
		return q, nil, domain.NewValidationError("format", "unsupported format %q", req.Format)
	}

	return q, kind, nil
}

func (s *reportService) document(kind *aggregate.Kind, q domain.ReportQuery, res *aggregate.Result, generatedAt time.Time) *render.Document {
	title := strings.TrimSpace(s.cfg.Organization + " " + kind.Title)
	doc := render.NewDocument(title, kind.Subtitle, res.Aggregate, generatedAt)
	doc.Description = q.Description

	layout := "02-Jan-2006"
	if kind.Monthly {
		layout = "Jan-2006"
	}
	doc.DateRange = "From " + q.From.Format(layout) + " through " + q.To.Format(layout)

	switch kind.Tag {
	case domain.KindMet:
		if q.JobNumber != "" {
			doc.Lines = append(doc.Lines, "Job Number: "+q.JobNumber)
		}
		if !res.FirstProductionDate.IsZero() {
			doc.Lines = append(doc.Lines, "Production Date: "+res.FirstProductionDate.Format("02-Jan-2006"))
		}
	case domain.KindDailyAssays:
		if !res.FirstProductionDate.IsZero() {
			doc.Lines = append(doc.Lines, "Production Date: "+res.FirstProductionDate.Format("02-Jan-2006"))
		}
		if !res.FirstDateReported.IsZero() {
			doc.Lines = append(doc.Lines, "Date Reported: "+res.FirstDateReported.Format("02-Jan-2006"))
		}
	}
	return doc
}

func (s *reportService) filename(kind *aggregate.Kind, q domain.ReportQuery, generatedAt time.Time, ext string) string {
	if kind.StampStartDate {
		return csvexport.BuildFilename(kind.FilePrefix, q.From, csvexport.StampDate, ext)
	}
	return csvexport.BuildFilename(kind.FilePrefix, generatedAt, csvexport.StampTime, ext)
}

// archive copies the report to object storage. Failures are logged and do not
// fail the request.
func (s *reportService) archive(ctx context.Context, kind *aggregate.Kind, q domain.ReportQuery, file *domain.ReportFile) {
	if !s.cfg.Archive || s.storage == nil {
		return
	}
	log := s.loggerFor(ctx)
	key := path.Join(s.cfg.ArchivePrefix, string(kind.Tag), uuid.New().String()+"-"+file.Filename)

	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(file.Data),
		ContentType: file.ContentType,
		Metadata: map[string]string{
			"kind": string(kind.Tag),
			"from": q.From.Format("2006-01-02"),
			"to":   q.To.Format("2006-01-02"),
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("kind", string(kind.Tag)).Str("key", key).Msg("archiving report failed")
		return
	}
	file.ArchiveKey = key

	url, err := s.storage.GetPresignedURL(ctx, s.s3cfg.Bucket, key, s.s3cfg.PresignExpiry)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("presigning archived report failed")
		return
	}
	file.ArchiveURL = url
}

// fail classifies err, logs it at the level its class warrants and records the
// outcome. It returns the typed error for the caller.
func (s *reportService) fail(ctx context.Context, tag string, q domain.ReportQuery, err error, began time.Time) error {
	log := s.loggerFor(ctx)
	outcome := metrics.OutcomeFailure

	switch {
	case errors.Is(err, domain.ErrValidation):
		outcome = metrics.OutcomeValidation
		log.Debug().Err(err).Str("kind", tag).Msg("report request rejected")
	case errors.Is(err, domain.ErrEmptyResult):
		outcome = metrics.OutcomeEmpty
		log.Info().Str("kind", tag).
			Time("from", q.From).Time("to", q.To).
			Msg("no records for report")
	default:
		err = domain.Dependency("unknown", err)
		stage := ""
		var de *domain.DependencyError
		if errors.As(err, &de) {
			stage = de.Stage
		}
		log.Error().Err(err).
			Str("kind", tag).
			Str("stage", stage).
			Time("from", q.From).
			Time("to", q.To).
			Strs("elements", q.Elements).
			Ints64("plant_ids", q.PlantIDs).
			Str("job_number", q.JobNumber).
			Str("format", string(q.Format)).
			Str("requested_by", q.RequestedBy).
			Msg("report generation failed")
	}

	if _, ok := aggregate.Lookup(domain.ReportKind(tag)); !ok {
		tag = "unknown"
	}
	s.recorder.ObserveReport(tag, outcome, time.Since(began))
	return err
}

func (s *reportService) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}

func (s *reportService) Kinds() []KindInfo {
	return DescribeKinds()
}

// DescribeKinds lists every report kind in menu order.
func DescribeKinds() []KindInfo {
	all := aggregate.Kinds()
	out := make([]KindInfo, 0, len(all))
	for _, k := range all {
		out = append(out, KindInfo{
			Tag:                k.Tag,
			Title:              k.Title,
			Subtitle:           k.Subtitle,
			UsesElements:       k.UsesElements,
			UsesPlants:         k.UsesPlants,
			RequirePlants:      k.RequirePlants,
			UsesJobNumber:      k.UsesJobNumber,
			RequireDescription: k.RequireDescription,
			SingleDay:          k.SingleDay,
		})
	}
	return out
}

func (s *reportService) ElementNames() []string {
	return element.Names()
}

func (s *reportService) PlantSources(ctx context.Context) ([]domain.PlantSource, error) {
	plants, err := s.repo.ListPlantSources(ctx, nil)
	if err != nil {
		s.loggerFor(ctx).Error().Err(err).Msg("listing plant sources failed")
		return nil, domain.Dependency("query", err)
	}
	return plants, nil
}

func (s *reportService) SearchJobNumbers(ctx context.Context, term string) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []string{}, nil
	}
	jobs, err := s.repo.SearchJobNumbers(ctx, term, jobNumberSearchLimit)
	if err != nil {
		s.loggerFor(ctx).Error().Err(err).Str("term", term).Msg("searching job numbers failed")
		return nil, domain.Dependency("query", err)
	}
	return jobs, nil
}

package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"assaylab/internal/domain"
	"assaylab/internal/middleware"
	"assaylab/internal/service"
)

// ReportHandler handles report endpoints.
type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Kinds handles GET /api/v1/reports/kinds
// @Summary      List report kinds
// @Description  Lists every report kind with the inputs it accepts
// @Tags         reports
// @Produce      json
// @Success      200 {object} APIResponse{data=[]service.KindInfo}
// @Failure      401 {object} APIResponse
// @Security     BearerAuth
// @Router       /reports/kinds [get]
func (h *ReportHandler) Kinds(c *gin.Context) {
	RespondOK(c, h.reportService.Kinds())
}

// Elements handles GET /api/v1/reports/elements
// @Summary      List assay elements
// @Tags         reports
// @Produce      json
// @Success      200 {object} APIResponse{data=[]string}
// @Security     BearerAuth
// @Router       /reports/elements [get]
func (h *ReportHandler) Elements(c *gin.Context) {
	RespondOK(c, h.reportService.ElementNames())
}

// Plants handles GET /api/v1/reports/plants
// @Summary      List plant sources
// @Tags         reports
// @Produce      json
// @Success      200 {object} APIResponse{data=[]domain.PlantSource}
// @Failure      500 {object} APIResponse
// @Security     BearerAuth
// @Router       /reports/plants [get]
func (h *ReportHandler) Plants(c *gin.Context) {
	plants, err := h.reportService.PlantSources(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, plants)
}

// JobNumbers handles GET /api/v1/reports/job-numbers
// @Summary      Search job numbers
// @Description  Job numbers containing the term, for autocompletion
// @Tags         reports
// @Produce      json
// @Param        term query string true "Search term"
// @Success      200 {object} APIResponse{data=[]string}
// @Failure      500 {object} APIResponse
// @Security     BearerAuth
// @Router       /reports/job-numbers [get]
func (h *ReportHandler) JobNumbers(c *gin.Context) {
	jobs, err := h.reportService.SearchJobNumbers(c.Request.Context(), c.Query("term"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, jobs)
}

// Generate handles POST /api/v1/reports/:kind
// @Summary      Generate a report
// @Description  Aggregates lab results and returns the rendered report as a download
// @Tags         reports
// @Accept       x-www-form-urlencoded
// @Produce      application/pdf
// @Param        kind path string true "Report kind"
// @Param        start_date formData string true "Start date (YYYY-MM-DD or RFC3339)"
// @Param        end_date formData string false "End date (YYYY-MM-DD or RFC3339)"
// @Param        elements formData []string false "Elements, repeated or comma separated"
// @Param        plant_ids formData []string false "Plant source ids, repeated or comma separated"
// @Param        job_number formData string false "Job number"
// @Param        description formData string false "Description (required for the MET report)"
// @Param        format formData string false "pdf, xlsx or csv"
// @Success      200 {file} file
// @Failure      400 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Failure      500 {object} APIResponse
// @Security     BearerAuth
// @Router       /reports/{kind} [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	req, err := parseReportRequest(c)
	if err != nil {
		HandleError(c, err)
		return
	}
	if userID, err := middleware.GetUserID(c); err == nil {
		req.RequestedBy = userID
	}

	file, err := h.reportService.Generate(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	if file.ArchiveURL != "" {
		c.Header("X-Report-Archive-URL", file.ArchiveURL)
	}
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// parseReportRequest reads report parameters from the form body, falling back to
// the query string.
func parseReportRequest(c *gin.Context) (domain.ReportRequest, error) {
	req := domain.ReportRequest{
		Kind:        c.Param("kind"),
		Elements:    values(c, "elements"),
		JobNumber:   value(c, "job_number"),
		Description: value(c, "description"),
		Format:      value(c, "format"),
	}

	var err error
	if req.StartDate, err = parseDate("start_date", value(c, "start_date")); err != nil {
		return req, err
	}
	if req.EndDate, err = parseDate("end_date", value(c, "end_date")); err != nil {
		return req, err
	}

	for _, raw := range values(c, "plant_ids") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return req, domain.NewValidationError("plant_ids", "invalid plant id %q", part)
			}
			req.PlantIDs = append(req.PlantIDs, id)
		}
	}
	return req, nil
}

func value(c *gin.Context, key string) string {
	if v, ok := c.GetPostForm(key); ok {
		return v
	}
	return c.Query(key)
}

func values(c *gin.Context, key string) []string {
	if v, ok := c.GetPostFormArray(key); ok {
		return v
	}
	return c.QueryArray(key)
}

// parseDate accepts YYYY-MM-DD or RFC3339. An empty value is the zero time.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, domain.NewValidationError(field, "invalid date %q: must be YYYY-MM-DD", s)
}

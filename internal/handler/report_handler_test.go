package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"assaylab/internal/domain"
	"assaylab/internal/handler"
	"assaylab/internal/middleware"
	"assaylab/internal/service"
	"assaylab/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newReportHandler() (*handler.ReportHandler, *mocks.MockReportService) {
	mockSvc := new(mocks.MockReportService)
	return handler.NewReportHandler(mockSvc), mockSvc
}

func postForm(t *testing.T, kind string, form url.Values) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/api/v1/reports/"+kind, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.Request = req
	c.Params = gin.Params{{Key: "kind", Value: kind}}
	return w, c
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestReportHandler_Generate_Success(t *testing.T) {
	h, mockSvc := newReportHandler()

	expected := domain.ReportRequest{
		Kind:        "plant",
		StartDate:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
		Elements:    []string{"Fe", "Mn,SiO2"},
		PlantIDs:    []int64{1, 2, 3},
		JobNumber:   "J-7",
		Description: "",
		Format:      "pdf",
	}
	mockSvc.On("Generate", mock.Anything, expected).Return(&domain.ReportFile{
		Filename:    "PlantDailyReport-20240301103000.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.3 body"),
		ArchiveURL:  "https://signed.example/x",
	}, nil)

	w, c := postForm(t, "plant", url.Values{
		"start_date": {"2024-02-01"},
		"end_date":   {"2024-02-03T00:00:00Z"},
		"elements":   {"Fe", "Mn,SiO2"},
		"plant_ids":  {"1,2", "3"},
		"job_number": {"J-7"},
		"format":     {"pdf"},
	})
	h.Generate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="PlantDailyReport-20240301103000.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "https://signed.example/x", w.Header().Get("X-Report-Archive-URL"))
	assert.Equal(t, "%PDF-1.3 body", w.Body.String())
	mockSvc.AssertExpectations(t)
}

func TestReportHandler_Generate_PassesCaller(t *testing.T) {
	h, mockSvc := newReportHandler()
	mockSvc.On("Generate", mock.Anything, mock.MatchedBy(func(r domain.ReportRequest) bool {
		return r.Kind == "daily" && r.RequestedBy == "17"
	})).Return(&domain.ReportFile{Filename: "DailySamples-x.pdf", ContentType: "application/pdf", Data: []byte("%PDF-")}, nil)

	w, c := postForm(t, "daily", url.Values{"start_date": {"2024-03-01"}})
	c.Set(middleware.ContextKeyUserID, "17")
	h.Generate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestReportHandler_Generate_QueryStringFallback(t *testing.T) {
	h, mockSvc := newReportHandler()
	mockSvc.On("Generate", mock.Anything, mock.MatchedBy(func(r domain.ReportRequest) bool {
		return r.Kind == "geology" && r.StartDate.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)) &&
			len(r.Elements) == 1 && r.Elements[0] == "Fe"
	})).Return(&domain.ReportFile{Filename: "GeoDaily-x.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("a,b\n")}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/reports/geology?start_date=2024-01-05&end_date=2024-01-06&elements=Fe", http.NoBody)
	c.Params = gin.Params{{Key: "kind", Value: "geology"}}

	h.Generate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestReportHandler_Generate_InvalidDate(t *testing.T) {
	h, mockSvc := newReportHandler()

	w, c := postForm(t, "geology", url.Values{"start_date": {"05/01/2024"}})
	h.Generate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	mockSvc.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestReportHandler_Generate_InvalidPlantID(t *testing.T) {
	h, mockSvc := newReportHandler()

	w, c := postForm(t, "plant", url.Values{"start_date": {"2024-01-01"}, "plant_ids": {"1,two"}})
	h.Generate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestReportHandler_Generate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", domain.NewValidationError("description", "a description is required"), http.StatusBadRequest, "VALIDATION_ERROR", "description: a description is required"},
		{"empty", &domain.EmptyResultError{Kind: domain.KindMet}, http.StatusNotFound, "NO_DATA", ""},
		{"dependency", &domain.DependencyError{Stage: "query", Err: errors.New("pq: password authentication failed")}, http.StatusInternalServerError, "REPORT_GENERATION_FAILED", "report generation failed, try again later"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mockSvc := newReportHandler()
			mockSvc.On("Generate", mock.Anything, mock.Anything).Return(nil, tt.err)

			w, c := postForm(t, "met", url.Values{"start_date": {"2024-01-05"}})
			h.Generate(c)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.Equal(t, tt.code, resp.Error.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Error.Message)
			}
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}
}

func TestReportHandler_Kinds(t *testing.T) {
	h, mockSvc := newReportHandler()
	mockSvc.On("Kinds").Return([]service.KindInfo{{Tag: domain.KindGeology, Title: "Geology Report"}})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/reports/kinds", http.NoBody)
	h.Kinds(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tag":"geology"`)
}

func TestReportHandler_Elements(t *testing.T) {
	h, mockSvc := newReportHandler()
	mockSvc.On("ElementNames").Return([]string{"Mn", "Fe"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/reports/elements", http.NoBody)
	h.Elements(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, []interface{}{"Mn", "Fe"}, resp.Data)
}

func TestReportHandler_Plants_Failure(t *testing.T) {
	h, mockSvc := newReportHandler()
	mockSvc.On("PlantSources", mock.Anything).Return(nil, domain.Dependency("query", errors.New("down")))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/reports/plants", http.NoBody)
	h.Plants(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "REPORT_GENERATION_FAILED", decode(t, w).Error.Code)
}

func TestReportHandler_JobNumbers(t *testing.T) {
	h, mockSvc := newReportHandler()
	mockSvc.On("SearchJobNumbers", mock.Anything, "J-1").Return([]string{"J-1", "J-12"}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/reports/job-numbers?term=J-1", http.NoBody)
	h.JobNumbers(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"J-1", "J-12"}, decode(t, w).Data)
	mockSvc.AssertExpectations(t)
}

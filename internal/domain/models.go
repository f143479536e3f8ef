package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PlantSource is a production plant or source location referenced by lab requests.
type PlantSource struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"plant_source_name" json:"name"`
	Description string    `db:"plant_source_description" json:"description,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// LabRequest is one laboratory job submission.
type LabRequest struct {
	ID              int64     `db:"id" json:"id"`
	JobNumber       string    `db:"job_number" json:"job_number"`
	RequestDate     time.Time `db:"request_date" json:"request_date"`
	ProductionDate  time.Time `db:"production_date" json:"production_date"`
	DateReported    time.Time `db:"date_reported" json:"date_reported"`
	PlantSourceID   int64     `db:"plant_source_id" json:"plant_source_id"`
	PlantSourceName string    `db:"plant_source_name" json:"plant_source_name"`
	DepartmentID    *int64    `db:"department_id" json:"department_id,omitempty"`
	ClientID        *int64    `db:"client_id" json:"client_id,omitempty"`
	Description     string    `db:"description" json:"description,omitempty"`
	NumberOfSamples int       `db:"number_of_samples" json:"number_of_samples"`
	TimeReceived    string    `db:"time_received" json:"time_received,omitempty"`

	DeliveredByID *int64 `db:"delivered_by_id" json:"delivered_by_id,omitempty"`
	ReceivedByID  *int64 `db:"received_by_id" json:"received_by_id,omitempty"`
	PreparedByID  *int64 `db:"prepared_by_id" json:"prepared_by_id,omitempty"`
	WeighedByID   *int64 `db:"weighed_by_id" json:"weighed_by_id,omitempty"`
	DigestedByID  *int64 `db:"digested_by_id" json:"digested_by_id,omitempty"`
	TitratedByID  *int64 `db:"titrated_by_id" json:"titrated_by_id,omitempty"`
	EnteredByID   *int64 `db:"entered_by_id" json:"entered_by_id,omitempty"`

	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Validate reports whether the request dates are consistent.
func (r *LabRequest) Validate() error {
	if !r.DateReported.IsZero() && r.ProductionDate.After(r.DateReported) {
		return fmt.Errorf("job %s: production date %s is after date reported %s",
			r.JobNumber, r.ProductionDate.Format("2006-01-02"), r.DateReported.Format("2006-01-02"))
	}
	return nil
}

// LabResult is one assayed sample joined to the summary fields of its owning request.
// Element fields are nullable; a NULL value means "not measured".
type LabResult struct {
	ID           int64  `db:"id" json:"id"`
	LabRequestID int64  `db:"lab_request_id" json:"lab_request_id"`
	SampleID     string `db:"sample_id" json:"sample_id"`
	TimeOfDay    string `db:"time_of_day" json:"time_of_day,omitempty"`

	Mn    decimal.NullDecimal `db:"mn" json:"mn"`
	SolMn decimal.NullDecimal `db:"sol_mn" json:"sol_mn"`
	Fe    decimal.NullDecimal `db:"fe" json:"fe"`
	B     decimal.NullDecimal `db:"b" json:"b"`
	MnO2  decimal.NullDecimal `db:"mno2" json:"mno2"`
	SiO2  decimal.NullDecimal `db:"sio2" json:"sio2"`
	Al2O3 decimal.NullDecimal `db:"al2o3" json:"al2o3"`
	MgO   decimal.NullDecimal `db:"mgo" json:"mgo"`
	CaO   decimal.NullDecimal `db:"cao" json:"cao"`
	Au    decimal.NullDecimal `db:"au" json:"au"`
	H2O   decimal.NullDecimal `db:"h2o" json:"h2o"`
	Mg    decimal.NullDecimal `db:"mg" json:"mg"`
	P     decimal.NullDecimal `db:"p" json:"p"`
	As    decimal.NullDecimal `db:"arsenic" json:"as"`

	// Parent request fields.
	JobNumber       string    `db:"job_number" json:"job_number"`
	ProductionDate  time.Time `db:"production_date" json:"production_date"`
	DateReported    time.Time `db:"date_reported" json:"date_reported"`
	PlantSourceID   int64     `db:"plant_source_id" json:"plant_source_id"`
	PlantSourceName string    `db:"plant_source_name" json:"plant_source_name"`

	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ResultFilter selects records by production date in [From, Until).
type ResultFilter struct {
	From      time.Time
	Until     time.Time
	PlantIDs  []int64
	JobNumber string
}

// ReportRequest is the raw, unvalidated input of a report dispatch.
type ReportRequest struct {
	Kind        string
	StartDate   time.Time
	EndDate     time.Time
	Elements    []string
	PlantIDs    []int64
	JobNumber   string
	Description string
	Format      string
	// RequestedBy identifies the caller for logging; it has no effect on the report.
	RequestedBy string
}

// ReportQuery is a validated report request. From and To are inclusive UTC calendar days.
type ReportQuery struct {
	Kind        ReportKind
	From        time.Time
	To          time.Time
	Elements    []string
	PlantIDs    []int64
	JobNumber   string
	Description string
	Format      ReportFormat
	RequestedBy string
}

// Filter converts the inclusive day range into a half-open store filter.
func (q *ReportQuery) Filter() ResultFilter {
	return ResultFilter{
		From:      q.From,
		Until:     q.To.AddDate(0, 0, 1),
		PlantIDs:  q.PlantIDs,
		JobNumber: q.JobNumber,
	}
}

// ReportFile is a rendered report ready to be returned to the caller.
type ReportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	// ArchiveKey and ArchiveURL are set when the report was copied to object storage.
	ArchiveKey string
	ArchiveURL string
}

// AggregateRow is one output row of an aggregation: label cells followed by one value per column.
type AggregateRow struct {
	Labels   []string
	Period   time.Time
	Values   []decimal.NullDecimal
	Total    decimal.NullDecimal
	Subtotal bool
}

// Aggregate is an ordered table of rows plus a trailing totals row.
// Precision and TotalsPrecision are the decimal places shown for data and totals cells.
type Aggregate struct {
	KeyHeaders      []string
	Columns         []string
	Unit            string
	Rows            []AggregateRow
	Totals          AggregateRow
	RowTotals       bool
	Precision       int32
	TotalsPrecision int32
}

// GrandTotal returns the totals row's total, or zero when absent.
func (a *Aggregate) GrandTotal() decimal.Decimal {
	if !a.Totals.Total.Valid {
		return decimal.Zero
	}
	return a.Totals.Total.Decimal
}

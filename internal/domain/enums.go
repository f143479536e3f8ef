package domain

// ReportKind is the closed set of report-type tags accepted by the dispatcher.
type ReportKind string

const (
	KindGeology       ReportKind = "geology"
	KindMet           ReportKind = "met"
	KindMetStatistics ReportKind = "met-statistics"
	KindDaily         ReportKind = "daily"
	KindDailyAssays   ReportKind = "daily-assays"
	KindYTDSamples    ReportKind = "ytd-samples"
	KindYTDAnalysis   ReportKind = "ytd-analysis"
	KindPlant         ReportKind = "plant"
)

// ReportFormat is the output encoding of a rendered report.
type ReportFormat string

const (
	FormatPDF  ReportFormat = "pdf"
	FormatXLSX ReportFormat = "xlsx"
	FormatCSV  ReportFormat = "csv"
)

// AllowedFormats maps format names to their MIME content type.
var AllowedFormats = map[ReportFormat]string{
	FormatPDF:  "application/pdf",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatCSV:  "text/csv; charset=utf-8",
}

// UserRole is the role carried in a verified access token.
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleLab        UserRole = "lab"
	RoleProduction UserRole = "production"
)

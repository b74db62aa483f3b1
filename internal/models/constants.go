package models

const (
	// DefaultMaxBookingDays bounds how far ahead a booking may end.
	DefaultMaxBookingDays = 365

	// DefaultListLimit caps list endpoints.
	DefaultListLimit = 500

	// DefaultQuotaRequests booking requests a user may submit per window.
	DefaultQuotaRequests = 10

	// DefaultQuotaWindow quota window in seconds.
	DefaultQuotaWindow = 60 * 60

	// DefaultExportRangeDays used when an export request omits the range.
	DefaultExportRangeDays = 30
)

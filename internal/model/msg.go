package model

// Bubble Tea message types

// ErrorMsg represents an error message.
type ErrorMsg struct {
	Err error
}

// DeliveriesLoadedMsg is sent when the deliveries list is loaded.
type DeliveriesLoadedMsg struct {
	Rows []DeliveryRow
	// Offline is set when the backend was unreachable and Rows came from the
	// local cache.
	Offline bool
	Err     error
	// CacheErr is set when fresh rows could not be written to the local
	// cache. The rows are still shown.
	CacheErr error
}

// HistoryLoadedMsg is sent when the submission history is loaded.
type HistoryLoadedMsg struct {
	Submissions []Submission
	Err         error
}

// HistoryExportedMsg is sent after the history spreadsheet is written.
type HistoryExportedMsg struct {
	Path string
	Err  error
}

// ReportSubmittedMsg is sent when the update-delivery request resolves.
type ReportSubmittedMsg struct {
	DeliveryID DeliveryID
	Err        error
}

// ReportAcknowledgedMsg is sent when the user dismisses the success alert.
type ReportAcknowledgedMsg struct{}

// ReportClosedMsg is sent when the user leaves the report screen.
type ReportClosedMsg struct{}

// SubmissionRecordedMsg is sent after a submission outcome is stored.
type SubmissionRecordedMsg struct {
	Err error
}

// Screen represents different app screens.
type Screen int

const (
	ScreenDeliveries Screen = iota
	ScreenHistory
	ScreenReport
	ScreenGallery
	ScreenPhotoViewer
)

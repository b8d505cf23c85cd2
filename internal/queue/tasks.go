package queue

const (
	TypeSpeechUsage = "speech:usage"
	TypeUsageReport = "speech:usage_report"

	QueueDefault = "default"
	QueueLow     = "low"
)

// UsageReportPayload asks the worker to log an aggregate over the trailing window.
type UsageReportPayload struct {
	WindowSeconds int `json:"window_seconds"`
}

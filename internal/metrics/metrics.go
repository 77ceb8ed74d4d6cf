package metrics

import (
	"sync/atomic"
)

// Metrics tracks operational metrics.
type Metrics struct {
	ReportsGenerated   uint64 `json:"reports_generated"`
	ReportsFailed      uint64 `json:"reports_failed"`
	ReportsCancelled   uint64 `json:"reports_cancelled"`
	FilesExplained     uint64 `json:"files_explained"`
	ExplanationsFailed uint64 `json:"explanations_failed"`
	SummariesFailed    uint64 `json:"summaries_failed"`
	LineCountFallbacks uint64 `json:"line_count_fallbacks"`
	LLMCalls           uint64 `json:"llm_calls"`
	CommandsReceived   uint64 `json:"commands_received"`
}

var global = &Metrics{}

// ReportGenerated increments the count of reports written to disk.
func ReportGenerated() { atomic.AddUint64(&global.ReportsGenerated, 1) }

// ReportFailed increments the count of comparisons that aborted.
func ReportFailed() { atomic.AddUint64(&global.ReportsFailed, 1) }

// ReportCancelled increments the count of comparisons stopped by the caller.
func ReportCancelled() { atomic.AddUint64(&global.ReportsCancelled, 1) }

// FileExplained increments the count of files passed through the explainer.
func FileExplained() { atomic.AddUint64(&global.FilesExplained, 1) }

// ExplanationFailed increments the count of per-file LLM failures.
func ExplanationFailed() { atomic.AddUint64(&global.ExplanationsFailed, 1) }

// SummaryFailed increments the count of project summaries replaced by an error string.
func SummaryFailed() { atomic.AddUint64(&global.SummariesFailed, 1) }

// LineCountFallback increments the count of comparisons that used the name-only diff.
func LineCountFallback() { atomic.AddUint64(&global.LineCountFallbacks, 1) }

// LLMCall increments the count of completion requests sent.
func LLMCall() { atomic.AddUint64(&global.LLMCalls, 1) }

// CommandReceived increments the count of commands accepted by the server.
func CommandReceived() { atomic.AddUint64(&global.CommandsReceived, 1) }

// Get returns a snapshot of the current metrics.
func Get() Metrics {
	return Metrics{
		ReportsGenerated:   atomic.LoadUint64(&global.ReportsGenerated),
		ReportsFailed:      atomic.LoadUint64(&global.ReportsFailed),
		ReportsCancelled:   atomic.LoadUint64(&global.ReportsCancelled),
		FilesExplained:     atomic.LoadUint64(&global.FilesExplained),
		ExplanationsFailed: atomic.LoadUint64(&global.ExplanationsFailed),
		SummariesFailed:    atomic.LoadUint64(&global.SummariesFailed),
		LineCountFallbacks: atomic.LoadUint64(&global.LineCountFallbacks),
		LLMCalls:           atomic.LoadUint64(&global.LLMCalls),
		CommandsReceived:   atomic.LoadUint64(&global.CommandsReceived),
	}
}

// Reset resets all metrics to zero (useful for testing).
func Reset() {
	atomic.StoreUint64(&global.ReportsGenerated, 0)
	atomic.StoreUint64(&global.ReportsFailed, 0)
	atomic.StoreUint64(&global.ReportsCancelled, 0)
	atomic.StoreUint64(&global.FilesExplained, 0)
	atomic.StoreUint64(&global.ExplanationsFailed, 0)
	atomic.StoreUint64(&global.SummariesFailed, 0)
	atomic.StoreUint64(&global.LineCountFallbacks, 0)
	atomic.StoreUint64(&global.LLMCalls, 0)
	atomic.StoreUint64(&global.CommandsReceived, 0)
}

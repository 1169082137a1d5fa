package dto

import (
	"time"

	flowUseCase "github.com/allisson/trustlog/internal/flow/usecase"
)

// FlowRecordResponse identifies one stored flow.
type FlowRecordResponse struct {
	ID           string    `json:"id"`
	EntryTime    time.Time `json:"entry_time"`
	TotalBytes   int64     `json:"total_bytes"`
	BandwidthBPS int64     `json:"bandwidth_bps"`
	ThreatLevel  string    `json:"threat_level"`
	Suspicious   bool      `json:"suspicious"`
}

// IngestFlowsResponse summarizes a stored batch.
type IngestFlowsResponse struct {
	Accepted   int                  `json:"accepted"`
	Suspicious int                  `json:"suspicious"`
	Records    []FlowRecordResponse `json:"records"`
}

// MapBatchToResponse converts a batch result to its response body.
func MapBatchToResponse(result *flowUseCase.BatchResult) IngestFlowsResponse {
	records := make([]FlowRecordResponse, 0, len(result.Records))
	for _, r := range result.Records {
		resp := FlowRecordResponse{
			ID:         r.ID.String(),
			EntryTime:  r.EntryTime,
			Suspicious: r.Suspicious,
		}
		if r.Flow != nil {
			resp.TotalBytes = r.Flow.TotalBytes
			resp.BandwidthBPS = r.Flow.BandwidthBPS
			resp.ThreatLevel = string(r.Flow.ThreatLevel)
		}
		records = append(records, resp)
	}
	return IngestFlowsResponse{
		Accepted:   len(result.Records),
		Suspicious: result.Suspicious,
		Records:    records,
	}
}

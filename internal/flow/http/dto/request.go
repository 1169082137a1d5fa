// Package dto provides request and response bodies for the flow endpoint.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	flowDomain "github.com/allisson/trustlog/internal/flow/domain"
	flowUseCase "github.com/allisson/trustlog/internal/flow/usecase"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// FlowRequest is one flow summary as sent by an exporter. Derived fields are
// computed on ingest and ignored here.
type FlowRequest struct {
	SrcIP           string    `json:"src_ip"`
	DstIP           string    `json:"dst_ip"`
	SrcPort         int       `json:"src_port"`
	DstPort         int       `json:"dst_port"`
	Protocol        string    `json:"protocol"`
	NATSrcIP        string    `json:"nat_src_ip"`
	NATDstIP        string    `json:"nat_dst_ip"`
	NATSrcPort      int       `json:"nat_src_port"`
	NATDstPort      int       `json:"nat_dst_port"`
	NATProtocol     string    `json:"nat_protocol"`
	SrcLocation     string    `json:"src_location"`
	DstLocation     string    `json:"dst_location"`
	DeviceName      string    `json:"device_name"`
	BytesSent       int64     `json:"bytes_sent"`
	BytesReceived   int64     `json:"bytes_received"`
	PacketsSent     int64     `json:"packets_sent"`
	PacketsReceived int64     `json:"packets_received"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	URL             string    `json:"url"`
	IdempotencyKey  string    `json:"idempotency_key"`
}

// IngestFlowsRequest is a batch of flows.
type IngestFlowsRequest struct {
	Flows []FlowRequest `json:"flows"`
}

// Validate checks the batch envelope. Per-flow rules live in the flow domain
// so exporters get the index of the offending entry.
func (r *IngestFlowsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Flows, validation.Required, validation.Length(1, flowDomain.MaxBatchSize)),
	)
}

// ToInputs converts the batch to use case inputs.
func (r *IngestFlowsRequest) ToInputs() []*flowUseCase.FlowInput {
	inputs := make([]*flowUseCase.FlowInput, 0, len(r.Flows))
	for _, f := range r.Flows {
		inputs = append(inputs, &flowUseCase.FlowInput{
			IdempotencyKey: f.IdempotencyKey,
			Flow: &recordDomain.FlowRecord{
				SrcIP:           f.SrcIP,
				DstIP:           f.DstIP,
				SrcPort:         f.SrcPort,
				DstPort:         f.DstPort,
				Protocol:        recordDomain.Protocol(f.Protocol),
				NATSrcIP:        f.NATSrcIP,
				NATDstIP:        f.NATDstIP,
				NATSrcPort:      f.NATSrcPort,
				NATDstPort:      f.NATDstPort,
				NATProtocol:     recordDomain.Protocol(f.NATProtocol),
				SrcLocation:     f.SrcLocation,
				DstLocation:     f.DstLocation,
				DeviceName:      f.DeviceName,
				BytesSent:       f.BytesSent,
				BytesReceived:   f.BytesReceived,
				PacketsSent:     f.PacketsSent,
				PacketsReceived: f.PacketsReceived,
				Start:           f.Start.UTC(),
				End:             f.End.UTC(),
				URL:             f.URL,
			},
		})
	}
	return inputs
}

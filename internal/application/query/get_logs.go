package query

import (
	"context"
	"fmt"

	"github.com/viniciussvasques/crm-innexar/internal/application/dto"
	"github.com/viniciussvasques/crm-innexar/internal/infra/genlog"
)

type GetLogs struct {
	sink *genlog.Sink
}

func NewGetLogs(sink *genlog.Sink) *GetLogs {
	return &GetLogs{sink: sink}
}

func (q *GetLogs) Execute(ctx context.Context, orderID int64) ([]dto.GenerationLogResponse, error) {
	logs, err := q.sink.GetLogs(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("err loading logs for order %d, %v", orderID, err)
	}

	out := make([]dto.GenerationLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.GenerationLogResponse{
			Step:      l.Step,
			Message:   l.Message,
			Status:    l.Status,
			Details:   l.Details,
			CreatedAt: l.CreatedAt,
		})
	}
	return out, nil
}

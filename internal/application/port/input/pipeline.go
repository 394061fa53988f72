package input

import (
	"context"

	"app-deployer/internal/domain/entity"
)

type PipelineRunner interface {
	Run(ctx context.Context, req entity.TaskRequest) entity.PipelineResult
}

package job

import (
	"context"

	"github.com/stratumlab/sowforge/internal/service"
)

type WarehouseSyncJob struct {
	mirror    *service.MirrorService
	batchSize int
}

func NewWarehouseSyncJob(mirror *service.MirrorService, batchSize int) *WarehouseSyncJob {
	return &WarehouseSyncJob{mirror: mirror, batchSize: batchSize}
}

func (j *WarehouseSyncJob) Name() string {
	return "warehouse_sync"
}

func (j *WarehouseSyncJob) Run(ctx context.Context) error {
	if j.mirror == nil {
		return nil
	}
	if err := j.mirror.SyncChunks(ctx, j.batchSize); err != nil {
		return err
	}
	return j.mirror.SyncSOWs(ctx, j.batchSize)
}

package output

import (
	"context"

	"app-deployer/internal/domain/entity"
)

type CallbackPort interface {
	Post(ctx context.Context, url string, payload entity.NotificationPayload) (statusCode int, err error)
}

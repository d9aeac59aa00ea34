package jobs

import (
	"context"

	"bluecrm/attribsync/internal/framework"
	"bluecrm/attribsync/internal/jobs/common"
	"bluecrm/attribsync/internal/jobs/handlers/attributionjob"
	"bluecrm/attribsync/internal/jobs/handlers/syncjob"
)

// 动作类型常量（发布方与路由表共用）
const (
	ActionAttributionSync  = "attribution_sync"
	ActionOrderAttribution = "order_attribution"
)

// HandlerFactory Handler 构造函数类型
type HandlerFactory func(
	ctx context.Context,
	baseHandler *framework.BaseHandler,
	deps *common.Deps,
) (framework.BusinessHandler, error)

// HandlerMap 路由表（ActionType → Handler 映射）
var HandlerMap = map[string]HandlerFactory{
	ActionAttributionSync:  syncjob.NewHandler,
	ActionOrderAttribution: attributionjob.NewHandler,
}

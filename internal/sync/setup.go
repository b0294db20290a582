package sync

import "context"

// globalEngine 是供HTTP处理器使用的引擎单例。
var globalEngine *Engine

// globalCtx 是手动触发的流程使用的根上下文。
// 它来自优雅停机的生命周期管理器：停机信号广播后，
// 正在运行的手动流程会和调度器一起被取消。
var globalCtx = context.Background()

// PrimeModule 在应用启动时注入装配好的引擎实例和停机上下文。
func PrimeModule(engine *Engine, ctx context.Context) {
	globalEngine = engine
	if ctx != nil {
		globalCtx = ctx
	}
}

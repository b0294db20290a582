package lifecycle

import (
	"context"
	"time"
)

// Handle 是单个后台服务持有的生命周期句柄，由 Manager 分发。
type Handle struct {
	ctx context.Context
	// Close 通知Manager本服务已经退出。
	// 服务的Goroutine应在入口处 defer 调用它。
	Close func()
}

// Ctx 返回句柄绑定的上下文，可直接传给下游的阻塞调用。
func (h *Handle) Ctx() context.Context {
	return h.ctx
}

// Done 返回停机信号channel，供服务在select中监听。
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// Err 返回上下文被取消的原因；未取消时为nil。
func (h *Handle) Err() error {
	return h.ctx.Err()
}

// Sleep 休眠指定时长；收到停机信号时提前返回错误。
// 后台循环中的所有等待都应使用它，而不是 time.Sleep。
func (h *Handle) Sleep(duration time.Duration) error {
	timer := time.NewTimer(duration)

	select {
	case <-h.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return h.Err()
	case <-timer.C:
		return nil
	}
}

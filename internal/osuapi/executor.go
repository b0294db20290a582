package osuapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/config"
)

const (
	// maxBackoffBase 是指数退避部分的上限（不含抖动）
	maxBackoffBase = 64 * time.Second
	// maxJitter 是每次退避额外叠加的随机抖动上界
	maxJitter = time.Second
)

// backoff 维护单个逻辑调用内的退避状态。
// 每个逻辑调用开始时重新创建，使延迟回到基础冷却值。
type backoff struct {
	cooldown time.Duration
	failures int
}

func newBackoff(cooldown time.Duration) *backoff {
	return &backoff{cooldown: cooldown}
}

// delay 返回下一次请求前应等待的时长。
// 尚未失败时为基础冷却值（兼作全局限速）；第n次失败后（从0计数）
// 为 min(64s, 2^n秒) 加上 [0, 1s) 的随机抖动。
func (b *backoff) delay() time.Duration {
	if b.failures == 0 {
		return b.cooldown
	}
	exp := b.failures - 1
	if exp > 6 {
		exp = 6 // 2^6s == 64s，已经饱和
	}
	base := time.Duration(1<<uint(exp)) * time.Second
	if base > maxBackoffBase {
		base = maxBackoffBase
	}
	return base + time.Duration(rand.Int63n(int64(maxJitter)))
}

func (b *backoff) fail() {
	b.failures++
}

// sleep 等待当前延迟时长，可被上下文取消提前打断。
func (b *backoff) sleep(ctx context.Context) error {
	timer := time.NewTimer(b.delay())
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RequestSpec 描述一次对API的调用。
type RequestSpec struct {
	Method string
	// Path 是相对于API基础地址的路径，例如 "/scores/osu/12345"
	Path  string
	Query url.Values
	// Body 非nil时会被序列化为JSON请求体
	Body any
}

// Executor 负责发出HTTP调用：套用状态码分类、驱动退避循环、
// 并在收到401时触发令牌刷新。
type Executor struct {
	cfg    config.OsuConfig
	client *http.Client
	tokens *TokenManager
}

// NewExecutor 创建一个请求执行器。
func NewExecutor(cfg config.OsuConfig, tokens *TokenManager, client *http.Client) *Executor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Executor{cfg: cfg, client: client, tokens: tokens}
}

// Do 执行一次逻辑调用并返回响应体。
// 状态码分类（按检查顺序）:
//   - 200: 返回响应体；
//   - 401: 无条件刷新令牌后重试原调用一次，第二次401返回AuthError；
//   - 404: 返回ErrNotFound（不是故障）；
//   - 429/5xx/传输错误: 退避后无限重试（延迟有上限）；
//   - 其他: 返回UnhandledStatusError，直接传播。
//
// 每次请求（包括第一次）之前都会等待当前的延迟值。
func (e *Executor) Do(ctx context.Context, spec RequestSpec) ([]byte, error) {
	fullURL := e.cfg.APIBaseURL + spec.Path
	if len(spec.Query) > 0 {
		fullURL += "?" + spec.Query.Encode()
	}

	var payload []byte
	if spec.Body != nil {
		var err error
		payload, err = json.Marshal(spec.Body)
		if err != nil {
			return nil, fmt.Errorf("无法序列化请求体: %w", err)
		}
	}

	b := newBackoff(e.cfg.Cooldown())
	retriedAfter401 := false
	for {
		if err := b.sleep(ctx); err != nil {
			return nil, err
		}

		// 每次请求前都确保令牌新鲜，过期令牌绝不会被发出
		token, err := e.tokens.EnsureFresh(ctx)
		if err != nil {
			return nil, err
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, spec.Method, fullURL, bodyReader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := e.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			fmt.Printf("请求执行器: 传输失败，将在退避后重试 %s: %v\n", spec.Path, err)
			b.fail()
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			fmt.Printf("请求执行器: 读取响应失败，将在退避后重试 %s: %v\n", spec.Path, readErr)
			b.fail()
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusUnauthorized:
			if retriedAfter401 {
				return nil, &AuthError{Err: fmt.Errorf("刷新令牌后仍然收到401 (%s)", spec.Path)}
			}
			// 缓存的过期时间不可信，无条件重新获取
			fmt.Printf("请求执行器: 收到401，正在刷新令牌后重试 %s\n", spec.Path)
			if _, err := e.tokens.Acquire(ctx); err != nil {
				return nil, err
			}
			retriedAfter401 = true
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			fmt.Printf("请求执行器: 收到 %d，将在退避后重试 %s\n", resp.StatusCode, spec.Path)
			b.fail()
		default:
			return nil, &UnhandledStatusError{Code: resp.StatusCode, URL: fullURL}
		}
	}
}

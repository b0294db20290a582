package osuapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/config"
)

// credential 保存当前持有的访问令牌及其过期时间。
// 只在刷新时被替换，绝不落库。
type credential struct {
	accessToken string
	expiresAt   time.Time
}

func (c credential) valid(now time.Time) bool {
	return c.accessToken != "" && now.Before(c.expiresAt)
}

// tokenResponse 是客户端凭据交换端点的响应体
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenManager 独占持有OAuth客户端凭据令牌及其过期时钟。
type TokenManager struct {
	cfg    config.OsuConfig
	client *http.Client

	mu   sync.Mutex
	cred credential
}

// NewTokenManager 创建一个令牌管理器。配置显式传入，不读取全局状态。
func NewTokenManager(cfg config.OsuConfig, client *http.Client) *TokenManager {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &TokenManager{cfg: cfg, client: client}
}

// EnsureFresh 在需要时刷新令牌，并返回一个可用于本次请求的访问令牌。
// 它必须在每次对外请求前被调用：过期的令牌绝不会被返回。
func (tm *TokenManager) EnsureFresh(ctx context.Context) (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.cred.valid(time.Now()) {
		return tm.cred.accessToken, nil
	}
	return tm.acquireLocked(ctx)
}

// Acquire 无条件执行一次客户端凭据交换并替换持有的令牌。
// 收到401的调用方必须调用它（缓存的过期时间不可信），然后重试原请求一次。
func (tm *TokenManager) Acquire(ctx context.Context) (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.acquireLocked(ctx)
}

// acquireLocked 执行实际的交换。对429/5xx/传输错误套用与执行器相同的
// 退避节奏重试；任何其他非200响应视为凭据无效，返回AuthError。
func (tm *TokenManager) acquireLocked(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"client_id":     tm.cfg.ClientID,
		"client_secret": tm.cfg.ClientSecret,
		"grant_type":    "client_credentials",
		"scope":         "public",
	})
	if err != nil {
		return "", &AuthError{Err: err}
	}

	b := newBackoff(tm.cfg.Cooldown())
	for {
		if err := b.sleep(ctx); err != nil {
			return "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, tm.cfg.TokenURL, bytes.NewReader(payload))
		if err != nil {
			return "", &AuthError{Err: err}
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := tm.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			fmt.Printf("令牌管理器: 交换请求传输失败，将在退避后重试: %v\n", err)
			b.fail()
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			fmt.Printf("令牌管理器: 读取交换响应失败，将在退避后重试: %v\n", readErr)
			b.fail()
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			var tr tokenResponse
			if err := json.Unmarshal(body, &tr); err != nil {
				return "", &AuthError{Err: fmt.Errorf("无法解析令牌响应: %w", err)}
			}
			if tr.AccessToken == "" || tr.ExpiresIn <= 0 {
				return "", &AuthError{Err: fmt.Errorf("令牌响应不完整")}
			}
			tm.cred = credential{
				accessToken: tr.AccessToken,
				expiresAt:   time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
			}
			fmt.Println("令牌管理器: 已获取新的访问令牌。")
			return tm.cred.accessToken, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			fmt.Printf("令牌管理器: 交换端点返回 %d，将在退避后重试。\n", resp.StatusCode)
			b.fail()
		default:
			// 401/403等都意味着凭据本身有问题，重试没有意义
			return "", &AuthError{Err: fmt.Errorf("令牌交换返回状态码 %d", resp.StatusCode)}
		}
	}
}

package osuapi

import (
	"errors"
	"fmt"
)

// ErrNotFound 表示上游资源合法地不存在（HTTP 404）。
// 它不是故障：调用方根据上下文决定含义（刷新/去重时触发删除，查询时跳过）。
var ErrNotFound = errors.New("osuapi: 上游资源不存在")

// AuthError 表示令牌交换或刷新在重试预算耗尽后仍然失败。
// 对整个引擎是致命的，必须上报给运维者。
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("osuapi: 认证失败: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// UnhandledStatusError 表示收到了状态码分类之外的HTTP响应。
// 这通常意味着API契约发生了变化，必须向上传播而不是重试。
type UnhandledStatusError struct {
	Code int
	URL  string
}

func (e *UnhandledStatusError) Error() string {
	return fmt.Sprintf("osuapi: 未处理的HTTP状态码 %d (%s)", e.Code, e.URL)
}

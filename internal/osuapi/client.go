package osuapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/config"
)

// Client 是API的类型化表面。
// 同步引擎只通过它访问远端，所有请求共享同一个执行器和限速时钟。
type Client struct {
	exec *Executor
}

// NewClient 创建一个完整的API客户端（令牌管理器与执行器在内部装配）。
func NewClient(cfg config.OsuConfig) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	tokens := NewTokenManager(cfg, httpClient)
	return &Client{exec: NewExecutor(cfg, tokens, httpClient)}
}

// NewClientWithExecutor 用外部装配好的执行器创建客户端，测试时使用。
func NewClientWithExecutor(exec *Executor) *Client {
	return &Client{exec: exec}
}

// User 查询单个用户的当前资料与统计数据。
func (c *Client) User(ctx context.Context, userID uint64) (*RemoteUser, error) {
	body, err := c.exec.Do(ctx, RequestSpec{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/users/%d/osu", userID),
	})
	if err != nil {
		return nil, err
	}
	var user RemoteUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("无法解析用户 %d 的响应: %w", userID, err)
	}
	return &user, nil
}

// Users 批量查询用户，单次最多 UserBatchLimit 个ID。
func (c *Client) Users(ctx context.Context, userIDs []uint64) ([]RemoteUser, error) {
	if len(userIDs) > UserBatchLimit {
		return nil, fmt.Errorf("批量用户查询最多允许 %d 个ID，收到 %d 个", UserBatchLimit, len(userIDs))
	}
	query := url.Values{}
	for _, id := range userIDs {
		query.Add("ids[]", strconv.FormatUint(id, 10))
	}
	body, err := c.exec.Do(ctx, RequestSpec{
		Method: http.MethodGet,
		Path:   "/users",
		Query:  query,
	})
	if err != nil {
		return nil, err
	}
	var envelope usersEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("无法解析批量用户响应: %w", err)
	}
	return envelope.Users, nil
}

// UserScores 查询某个用户指定类型的成绩列表的一页。
func (c *Client) UserScores(ctx context.Context, userID uint64, kind ScoreKind, limit, offset int) ([]RemoteScore, error) {
	query := url.Values{}
	query.Set("mode", "osu")
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	body, err := c.exec.Do(ctx, RequestSpec{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/users/%d/scores/%s", userID, kind),
		Query:  query,
	})
	if err != nil {
		return nil, err
	}
	var scores []RemoteScore
	if err := json.Unmarshal(body, &scores); err != nil {
		return nil, fmt.Errorf("无法解析用户 %d 的%s成绩列表: %w", userID, kind, err)
	}
	return scores, nil
}

// Score 按ID查询单条成绩。上游不存在时返回ErrNotFound。
func (c *Client) Score(ctx context.Context, scoreID uint64) (*RemoteScore, error) {
	body, err := c.exec.Do(ctx, RequestSpec{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/scores/osu/%d", scoreID),
	})
	if err != nil {
		return nil, err
	}
	var score RemoteScore
	if err := json.Unmarshal(body, &score); err != nil {
		return nil, fmt.Errorf("无法解析成绩 %d 的响应: %w", scoreID, err)
	}
	return &score, nil
}

// Beatmap 按ID查询谱面。
func (c *Client) Beatmap(ctx context.Context, beatmapID uint64) (*RemoteBeatmap, error) {
	body, err := c.exec.Do(ctx, RequestSpec{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/beatmaps/%d", beatmapID),
	})
	if err != nil {
		return nil, err
	}
	var beatmap RemoteBeatmap
	if err := json.Unmarshal(body, &beatmap); err != nil {
		return nil, fmt.Errorf("无法解析谱面 %d 的响应: %w", beatmapID, err)
	}
	return &beatmap, nil
}

// BeatmapAttributes 查询谱面在给定模组下的难度属性，返回修正后的星级。
// 这是成绩翻译过程中唯一的补充网络调用。
func (c *Client) BeatmapAttributes(ctx context.Context, beatmapID uint64, modTokens []string) (float64, error) {
	body, err := c.exec.Do(ctx, RequestSpec{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/beatmaps/%d/attributes", beatmapID),
		Body:   attributesRequest{Mods: modTokens},
	})
	if err != nil {
		return 0, err
	}
	var envelope attributesEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return 0, fmt.Errorf("无法解析谱面 %d 的难度属性: %w", beatmapID, err)
	}
	return envelope.Attributes.StarRating, nil
}

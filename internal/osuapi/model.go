package osuapi

import "time"

// ScoreKind 是成绩列表端点的类型参数。
type ScoreKind string

const (
	ScoreKindBest   ScoreKind = "best"
	ScoreKindFirsts ScoreKind = "firsts"
	ScoreKindRecent ScoreKind = "recent"
	ScoreKindPinned ScoreKind = "pinned"
)

// ScoreKinds 是摄取流程需要抓取的全部四个页面集合。
var ScoreKinds = []ScoreKind{ScoreKindBest, ScoreKindFirsts, ScoreKindRecent, ScoreKindPinned}

// PageSize 是成绩列表端点的固定页大小。
const PageSize = 100

// UserBatchLimit 是批量用户查询端点单次允许的最大ID数量。
const UserBatchLimit = 50

// --- 远端载荷 ---
// 这些结构体只读地映射API响应，绝不会被直接落库。

// RemoteScore 是成绩端点返回的载荷
type RemoteScore struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Accuracy  float64   `json:"accuracy"`
	Mods      []string  `json:"mods"`
	PP        float64   `json:"pp"`
	CreatedAt time.Time `json:"created_at"`

	User       RemoteScoreUser  `json:"user"`
	Beatmap    RemoteBeatmap    `json:"beatmap"`
	Beatmapset RemoteBeatmapset `json:"beatmapset"`
}

// RemoteScoreUser 是成绩中内嵌的简要用户信息
type RemoteScoreUser struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// RemoteBeatmap 是谱面端点返回的载荷
type RemoteBeatmap struct {
	ID               uint64  `json:"id"`
	BeatmapsetID     uint64  `json:"beatmapset_id"`
	DifficultyRating float64 `json:"difficulty_rating"`
	Version          string  `json:"version"`
}

// RemoteBeatmapset 是成绩中内嵌的谱面集合信息
type RemoteBeatmapset struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Covers struct {
		List string `json:"list"`
	} `json:"covers"`
}

// RemoteUser 是用户端点返回的载荷
type RemoteUser struct {
	ID          uint64               `json:"id"`
	Username    string               `json:"username"`
	CountryCode string               `json:"country_code"`
	AvatarURL   string               `json:"avatar_url"`
	Statistics  RemoteUserStatistics `json:"statistics"`
}

// RemoteUserStatistics 是用户载荷中的统计数据块
type RemoteUserStatistics struct {
	GlobalRank     uint64  `json:"global_rank"`
	PP             float64 `json:"pp"`
	HitAccuracy    float64 `json:"hit_accuracy"`
	PlayCount      uint64  `json:"play_count"`
	PlayTime       uint64  `json:"play_time"`
	RankedScore    uint64  `json:"ranked_score"`
	MaximumCombo   uint64  `json:"maximum_combo"`
	ReplaysWatched uint64  `json:"replays_watched_by_others"`
}

// usersEnvelope 是批量用户端点的响应外壳
type usersEnvelope struct {
	Users []RemoteUser `json:"users"`
}

// attributesEnvelope 是谱面难度属性端点的响应外壳
type attributesEnvelope struct {
	Attributes struct {
		StarRating float64 `json:"star_rating"`
	} `json:"attributes"`
}

// attributesRequest 是谱面难度属性端点的POST请求体
type attributesRequest struct {
	Mods []string `json:"mods"`
}

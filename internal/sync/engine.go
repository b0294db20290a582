package sync

import (
	"context"

	"github.com/SlpAus/osu-score-tracker-backend/internal/osuapi"
	"github.com/SlpAus/osu-score-tracker-backend/internal/score"
	"github.com/SlpAus/osu-score-tracker-backend/internal/user"
	"gorm.io/gorm"
)

// API 是同步引擎对远端的全部要求。
// 生产环境由 *osuapi.Client 满足，测试中注入假实现。
type API interface {
	User(ctx context.Context, userID uint64) (*osuapi.RemoteUser, error)
	Users(ctx context.Context, userIDs []uint64) ([]osuapi.RemoteUser, error)
	UserScores(ctx context.Context, userID uint64, kind osuapi.ScoreKind, limit, offset int) ([]osuapi.RemoteScore, error)
	Score(ctx context.Context, scoreID uint64) (*osuapi.RemoteScore, error)
}

// Engine 驱动抓取、翻译、去重与落库的全部流程。
// 所有远端调用与存储操作都在单个逻辑工作者内顺序执行，
// 绝不并行访问远端（那会破坏共享的限速预算）。
type Engine struct {
	db         *gorm.DB
	api        API
	translator *score.Translator
}

// NewEngine 创建一个同步引擎。
func NewEngine(db *gorm.DB, api API, translator *score.Translator) *Engine {
	return &Engine{db: db, api: api, translator: translator}
}

// userFromRemote 把远端用户载荷合并为本地记录。
// existing 非nil时保留所有不来自远端的字段（Autotrack与名次计数，
// 后者由名次重算流程单独维护）。
func userFromRemote(ru *osuapi.RemoteUser, existing *user.User) user.User {
	u := user.User{
		UserID:          ru.ID,
		Username:        ru.Username,
		CountryCode:     ru.CountryCode,
		GlobalRank:      ru.Statistics.GlobalRank,
		PP:              ru.Statistics.PP,
		Accuracy:        ru.Statistics.HitAccuracy,
		PlaytimeSeconds: ru.Statistics.PlayTime,
		PlayCount:       ru.Statistics.PlayCount,
		RankedScore:     ru.Statistics.RankedScore,
		MaxCombo:        ru.Statistics.MaximumCombo,
		ReplaysWatched:  ru.Statistics.ReplaysWatched,
		AvatarURL:       ru.AvatarURL,
		Autotrack:       true,
	}
	if existing != nil {
		u.Autotrack = existing.Autotrack
		u.Top1Count = existing.Top1Count
		u.Top2Count = existing.Top2Count
		u.Top3Count = existing.Top3Count
	}
	return u
}

// AddUser 抓取远端用户资料并建立本地追踪记录（幂等）。
// 用户已存在时插入是空操作，返回的是库中的现有记录
// （其Autotrack开关与名次计数可能与远端快照不同）。
// 上游不存在该用户时返回 osuapi.ErrNotFound。
func (e *Engine) AddUser(ctx context.Context, userID uint64) (*user.User, error) {
	ru, err := e.api.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	u := userFromRemote(ru, nil)
	if err := user.InsertUser(e.db, &u); err != nil {
		return nil, err
	}
	stored, err := user.GetUser(e.db, userID)
	if err != nil {
		return nil, err
	}
	user.RefreshCacheIfHealthy()
	return stored, nil
}

// AddScore 按ID抓取单条成绩，翻译后插入其规范分区（幂等）。
func (e *Engine) AddScore(ctx context.Context, scoreID uint64) (*score.Score, error) {
	rs, err := e.api.Score(ctx, scoreID)
	if err != nil {
		return nil, err
	}
	rec, err := e.translator.Translate(ctx, rs)
	if err != nil {
		return nil, err
	}
	if err := score.InsertScore(e.db, rec.Mods, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

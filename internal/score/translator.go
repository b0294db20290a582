package score

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/osu-score-tracker-backend/internal/mods"
	"github.com/SlpAus/osu-score-tracker-backend/internal/osuapi"
)

// ratingAffectingMods 是会改变谱面星级的模组。
// 只要成绩带有其中任意一个，翻译时就需要一次补充的难度属性查询。
var ratingAffectingMods = map[string]struct{}{
	"DT": {}, "NC": {}, "HR": {}, "EZ": {}, "HT": {}, "FL": {},
}

// SkipError 表示单条成绩的翻译失败是可恢复的：
// 调用方应当记录告警并跳过该成绩，而不是中止整个批次。
// 它与致命错误（认证耗尽、API契约变化）在类型上严格区分。
type SkipError struct {
	ScoreID uint64
	Reason  string
	Err     error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("成绩 %d 被跳过: %s: %v", e.ScoreID, e.Reason, e.Err)
}

func (e *SkipError) Unwrap() error {
	return e.Err
}

// AsSkip 判断一个错误是否是可跳过的翻译失败。
func AsSkip(err error) (*SkipError, bool) {
	var skip *SkipError
	if errors.As(err, &skip) {
		return skip, true
	}
	return nil, false
}

// AttributeSource 提供谱面在给定模组下的修正星级。
// 生产环境由 osuapi.Client 实现，测试中可以注入假实现。
type AttributeSource interface {
	BeatmapAttributes(ctx context.Context, beatmapID uint64, modTokens []string) (float64, error)
}

// Translator 将远端成绩载荷映射为本地记录。
type Translator struct {
	attrs AttributeSource
}

// NewTranslator 创建一个翻译器。
func NewTranslator(attrs AttributeSource) *Translator {
	return &Translator{attrs: attrs}
}

// Translate 把一条远端成绩翻译为本地Score记录。
// 可恢复的失败（未知模组组合、难度属性查询404）返回 *SkipError；
// 其余错误原样传播，调用方应视为致命。
func (t *Translator) Translate(ctx context.Context, rs *osuapi.RemoteScore) (*Score, error) {
	canonical, err := mods.Canonicalize(rs.Mods)
	if err != nil {
		var unknownErr *mods.UnknownCombinationError
		if errors.As(err, &unknownErr) {
			return nil, &SkipError{ScoreID: rs.ID, Reason: "无法规范化模组组合", Err: err}
		}
		return nil, err
	}

	rating, err := t.resolveStarRating(ctx, rs)
	if err != nil {
		if errors.Is(err, osuapi.ErrNotFound) {
			return nil, &SkipError{ScoreID: rs.ID, Reason: "难度属性查询未找到谱面", Err: err}
		}
		return nil, err
	}

	label := fmt.Sprintf("%s - %s [%s]", rs.Beatmapset.Artist, rs.Beatmapset.Title, rs.Beatmap.Version)
	return &Score{
		ScoreID:      rs.ID,
		UserID:       rs.UserID,
		BeatmapID:    rs.Beatmap.ID,
		Username:     rs.User.Username,
		BeatmapLabel: label,
		Mods:         canonical,
		PP:           rs.PP,
		Accuracy:     rs.Accuracy,
		StarRating:   rating,
		SetAt:        rs.CreatedAt,
		CoverURL:     rs.Beatmapset.Covers.List,
	}, nil
}

// resolveStarRating 解析成绩对应的星级。
// 不带影响星级的模组时直接使用谱面的基础星级；
// 否则发起一次带模组列表的难度属性查询（翻译过程中唯一的网络I/O）。
func (t *Translator) resolveStarRating(ctx context.Context, rs *osuapi.RemoteScore) (float64, error) {
	affecting := false
	for _, mod := range rs.Mods {
		if _, ok := ratingAffectingMods[mod]; ok {
			affecting = true
			break
		}
	}
	if !affecting {
		return rs.Beatmap.DifficultyRating, nil
	}
	return t.attrs.BeatmapAttributes(ctx, rs.Beatmap.ID, rs.Mods)
}

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/osu-score-tracker-backend/internal/mods"
	"github.com/SlpAus/osu-score-tracker-backend/internal/osuapi"
	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/metadata"
	"github.com/SlpAus/osu-score-tracker-backend/internal/score"
	"github.com/SlpAus/osu-score-tracker-backend/internal/user"
	"github.com/google/uuid"
)

// IngestNewScores 是流程A：为每个被追踪用户抓取四个成绩页面集合，
// 翻译后插入尚未入库的成绩。
// 单条成绩的翻译失败只会告警并跳过；致命错误中止整个流程。
func (e *Engine) IngestNewScores(ctx context.Context) error {
	runID := uuid.NewString()[:8]
	fmt.Printf("同步引擎[%s]: 开始摄取新成绩...\n", runID)

	tracked, err := user.GetTrackedUsers(e.db)
	if err != nil {
		return err
	}

	inserted := 0
	for _, u := range tracked {
		n, err := e.ingestUserScores(ctx, runID, u.UserID)
		if err != nil {
			return fmt.Errorf("摄取用户 %d 的成绩失败: %w", u.UserID, err)
		}
		inserted += n
	}

	if err := metadata.SetCheckpoint(e.db, metadata.LastIngestAtKey, time.Now()); err != nil {
		fmt.Printf("警告: 无法更新摄取检查点: %v\n", err)
	}
	fmt.Printf("同步引擎[%s]: 摄取完成，共处理 %d 个用户，新增 %d 条成绩。\n", runID, len(tracked), inserted)
	return nil
}

// ingestUserScores 抓取单个用户的 best/firsts/recent/pinned 四个页面集合。
// seen 集合保证同一批次内跨页面集合重复出现的成绩ID只被插入一次。
func (e *Engine) ingestUserScores(ctx context.Context, runID string, userID uint64) (int, error) {
	seen := make(map[uint64]struct{})
	inserted := 0

	for _, kind := range osuapi.ScoreKinds {
		offset := 0
		for {
			page, err := e.api.UserScores(ctx, userID, kind, osuapi.PageSize, offset)
			if err != nil {
				if errors.Is(err, osuapi.ErrNotFound) {
					// 用户在远端不存在（被删除或受限），跳过这个页面集合
					fmt.Printf("同步引擎[%s]: 用户 %d 的%s列表在远端不存在，跳过。\n", runID, userID, kind)
					break
				}
				return inserted, err
			}

			for i := range page {
				ok, err := e.ingestOne(ctx, runID, &page[i], seen)
				if err != nil {
					return inserted, err
				}
				if ok {
					inserted++
				}
			}

			if len(page) < osuapi.PageSize {
				break
			}
			offset += osuapi.PageSize
		}
	}
	return inserted, nil
}

// ingestOne 处理单条远端成绩，返回是否产生了一次插入。
// 可恢复的失败（未知模组组合、属性查询404）告警后跳过。
func (e *Engine) ingestOne(ctx context.Context, runID string, rs *osuapi.RemoteScore, seen map[uint64]struct{}) (bool, error) {
	if _, dup := seen[rs.ID]; dup {
		return false, nil
	}
	seen[rs.ID] = struct{}{}

	// 先做廉价的存在性检查，避免为已入库的成绩浪费属性查询
	key, err := mods.Canonicalize(rs.Mods)
	if err != nil {
		fmt.Printf("同步引擎[%s]警告: 摄取时跳过成绩 %d: %v\n", runID, rs.ID, err)
		return false, nil
	}
	exists, err := score.ScoreExists(e.db, key, rs.ID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	rec, err := e.translator.Translate(ctx, rs)
	if err != nil {
		if skip, ok := score.AsSkip(err); ok {
			fmt.Printf("同步引擎[%s]警告: 摄取时跳过成绩 (分区 %s): %v\n", runID, key, skip)
			return false, nil
		}
		return false, err
	}

	if err := score.InsertScore(e.db, rec.Mods, rec); err != nil {
		return false, err
	}
	return true, nil
}

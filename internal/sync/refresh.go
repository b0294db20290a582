package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/osu-score-tracker-backend/internal/mods"
	"github.com/SlpAus/osu-score-tracker-backend/internal/osuapi"
	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/backup"
	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/metadata"
	"github.com/SlpAus/osu-score-tracker-backend/internal/score"
	"github.com/google/uuid"
)

// RefreshAllScores 是流程C：对所有分区的每条成绩按ID重新核对远端。
// 远端不存在的删除，存在的重新翻译后原地覆盖。
// 这是最慢的流程，受限于远端限速，预期以小时到天为单位运行；
// 没有显式的断点续传——重启后的刷新从第一个分区重新开始，
// 依赖幂等写入保证正确性。
func (e *Engine) RefreshAllScores(ctx context.Context) error {
	runID := uuid.NewString()[:8]
	fmt.Printf("同步引擎[%s]: 开始全量刷新...\n", runID)

	if err := backup.SnapshotDatabaseFile("refresh"); err != nil {
		fmt.Printf("同步引擎[%s]警告: 全量刷新前的数据库快照失败: %v\n", runID, err)
	}

	refreshed, deleted := 0, 0
	for _, key := range mods.PartitionKeys {
		scores, err := score.GetScores(e.db, key)
		if err != nil {
			return err
		}
		for i := range scores {
			outcome, err := e.refreshOne(ctx, runID, key, &scores[i])
			if err != nil {
				return fmt.Errorf("刷新分区 %s 的成绩 %d 失败: %w", key, scores[i].ScoreID, err)
			}
			switch outcome {
			case refreshUpdated:
				refreshed++
			case refreshDeleted:
				deleted++
			}
		}
	}

	if err := metadata.SetCheckpoint(e.db, metadata.LastFullRefreshAtKey, time.Now()); err != nil {
		fmt.Printf("警告: 无法更新全量刷新检查点: %v\n", err)
	}
	fmt.Printf("同步引擎[%s]: 全量刷新完成，更新 %d 条，删除 %d 条。\n", runID, refreshed, deleted)
	return nil
}

type refreshOutcome int

const (
	refreshSkipped refreshOutcome = iota
	refreshUpdated
	refreshDeleted
)

// refreshOne 核对并刷新单条成绩。
// 分区键在记录创建时即固定：重新翻译得到不同规范键时拒绝更新并告警，
// 防止成绩在分区间静默迁移或复制。
func (e *Engine) refreshOne(ctx context.Context, runID, key string, s *score.Score) (refreshOutcome, error) {
	rs, err := e.api.Score(ctx, s.ScoreID)
	if err != nil {
		if errors.Is(err, osuapi.ErrNotFound) {
			if err := score.DeleteScore(e.db, key, s.ScoreID); err != nil {
				return refreshSkipped, err
			}
			return refreshDeleted, nil
		}
		return refreshSkipped, err
	}

	rec, err := e.translator.Translate(ctx, rs)
	if err != nil {
		if skip, ok := score.AsSkip(err); ok {
			fmt.Printf("同步引擎[%s]警告: 全量刷新跳过分区 %s 的成绩: %v\n", runID, key, skip)
			return refreshSkipped, nil
		}
		return refreshSkipped, err
	}

	if rec.Mods != key {
		fmt.Printf("同步引擎[%s]警告: 成绩 %d 重新翻译后的分区键 %s 与所在分区 %s 不一致，拒绝更新。\n",
			runID, s.ScoreID, rec.Mods, key)
		return refreshSkipped, nil
	}

	if err := score.UpdateScore(e.db, key, rec); err != nil {
		return refreshSkipped, err
	}
	return refreshUpdated, nil
}

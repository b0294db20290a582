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

// RemoveDuplicateScores 是流程B：逐分区识别内容完全相同（主键除外）的
// 重复组，并对照远端裁决。
//
// 裁决策略（按组）：只要组内任何一个成员在远端已不存在，就删除该组的
// 全部成员——无法判断哪一条被覆盖，全部视为过时镜像；否则只删除
// SetAt 与远端不一致（已偏离）的成员。
func (e *Engine) RemoveDuplicateScores(ctx context.Context) error {
	runID := uuid.NewString()[:8]
	fmt.Printf("同步引擎[%s]: 开始去重...\n", runID)

	if err := backup.SnapshotDatabaseFile("dedup"); err != nil {
		fmt.Printf("同步引擎[%s]警告: 去重前的数据库快照失败: %v\n", runID, err)
	}

	removed := 0
	for _, key := range mods.PartitionKeys {
		n, err := e.dedupPartition(ctx, runID, key)
		if err != nil {
			return fmt.Errorf("分区 %s 去重失败: %w", key, err)
		}
		removed += n
	}

	if err := metadata.SetCheckpoint(e.db, metadata.LastDedupAtKey, time.Now()); err != nil {
		fmt.Printf("警告: 无法更新去重检查点: %v\n", err)
	}
	fmt.Printf("同步引擎[%s]: 去重完成，共删除 %d 条记录。\n", runID, removed)
	return nil
}

func (e *Engine) dedupPartition(ctx context.Context, runID, key string) (int, error) {
	scores, err := score.GetScores(e.db, key)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, group := range groupDuplicates(scores) {
		n, err := e.resolveDuplicateGroup(ctx, runID, key, group)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

// groupDuplicates 把分区内容完全相同的记录归为一组，只返回规模大于1的组。
func groupDuplicates(scores []score.Score) [][]score.Score {
	var groups [][]score.Score
	used := make([]bool, len(scores))
	for i := range scores {
		if used[i] {
			continue
		}
		group := []score.Score{scores[i]}
		for j := i + 1; j < len(scores); j++ {
			if !used[j] && scores[i].SameContent(scores[j]) {
				group = append(group, scores[j])
				used[j] = true
			}
		}
		if len(group) > 1 {
			groups = append(groups, group)
		}
	}
	return groups
}

// resolveDuplicateGroup 对照远端裁决一组重复记录，返回删除的数量。
func (e *Engine) resolveDuplicateGroup(ctx context.Context, runID, key string, group []score.Score) (int, error) {
	anyMissing := false
	diverged := make([]uint64, 0, len(group))

	for _, s := range group {
		rs, err := e.api.Score(ctx, s.ScoreID)
		if err != nil {
			if errors.Is(err, osuapi.ErrNotFound) {
				anyMissing = true
				continue
			}
			return 0, err
		}
		if !s.SetAt.Equal(rs.CreatedAt) {
			diverged = append(diverged, s.ScoreID)
		}
	}

	if anyMissing {
		// 组内有成员已从远端消失：整组删除
		for _, s := range group {
			if err := score.DeleteScore(e.db, key, s.ScoreID); err != nil {
				return 0, err
			}
		}
		fmt.Printf("同步引擎[%s]: 分区 %s 中的重复组（%d 条）因远端缺失被整组删除。\n", runID, key, len(group))
		return len(group), nil
	}

	for _, id := range diverged {
		if err := score.DeleteScore(e.db, key, id); err != nil {
			return 0, err
		}
		fmt.Printf("同步引擎[%s]: 分区 %s 中的成绩 %d 因与远端偏离被删除。\n", runID, key, id)
	}
	return len(diverged), nil
}

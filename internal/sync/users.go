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

// placements 累计一个用户在各分区前三名中的占位次数。
type placements struct {
	top1, top2, top3 int
}

// RefreshUsers 是流程D：分批（≤50）拉取所有用户的当前统计数据，
// 重算每个用户的前三名占位计数后落库。
// 不来自远端的字段（Autotrack）从现有记录原样保留。
func (e *Engine) RefreshUsers(ctx context.Context) error {
	runID := uuid.NewString()[:8]
	fmt.Printf("同步引擎[%s]: 开始刷新用户数据与名次计数...\n", runID)

	users, err := user.GetUsers(e.db)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Printf("同步引擎[%s]: 没有需要刷新的用户。\n", runID)
		return nil
	}

	counts, err := e.recountTopPlacements()
	if err != nil {
		return err
	}

	existing := make(map[uint64]*user.User, len(users))
	ids := make([]uint64, 0, len(users))
	for i := range users {
		existing[users[i].UserID] = &users[i]
		ids = append(ids, users[i].UserID)
	}

	updated := 0
	for start := 0; start < len(ids); start += osuapi.UserBatchLimit {
		end := start + osuapi.UserBatchLimit
		if end > len(ids) {
			end = len(ids)
		}

		remotes, err := e.api.Users(ctx, ids[start:end])
		if err != nil {
			if errors.Is(err, osuapi.ErrNotFound) {
				fmt.Printf("同步引擎[%s]警告: 批量用户查询返回不存在，跳过该批次。\n", runID)
				continue
			}
			return err
		}

		seen := make(map[uint64]struct{}, len(remotes))
		for i := range remotes {
			ru := &remotes[i]
			seen[ru.ID] = struct{}{}
			prev, ok := existing[ru.ID]
			if !ok {
				continue
			}
			u := userFromRemote(ru, prev)
			p := counts[ru.ID]
			u.Top1Count, u.Top2Count, u.Top3Count = p.top1, p.top2, p.top3
			if err := user.UpdateUser(e.db, &u); err != nil {
				return err
			}
			updated++
		}

		// 出现在请求中却没出现在响应里的用户（被删除或受限）只告警
		for _, id := range ids[start:end] {
			if _, ok := seen[id]; !ok {
				fmt.Printf("同步引擎[%s]警告: 用户 %d 未出现在远端批量响应中，本轮跳过。\n", runID, id)
			}
		}
	}

	user.RefreshCacheIfHealthy()

	if err := metadata.SetCheckpoint(e.db, metadata.LastUserRefreshAtKey, time.Now()); err != nil {
		fmt.Printf("警告: 无法更新用户刷新检查点: %v\n", err)
	}
	fmt.Printf("同步引擎[%s]: 用户刷新完成，更新 %d 个用户。\n", runID, updated)
	return nil
}

// recountTopPlacements 遍历全部35个分区，按表现分降序取前三，
// 为对应名次的用户累计计数。
// 同一用户可以在一个分区的前三名中占据多个席位，每个席位都计数。
func (e *Engine) recountTopPlacements() (map[uint64]placements, error) {
	counts := make(map[uint64]placements)
	for _, key := range mods.PartitionKeys {
		top, err := score.TopScores(e.db, key, 3)
		if err != nil {
			return nil, fmt.Errorf("无法读取分区 %s 的前三名: %w", key, err)
		}
		for rank, s := range top {
			p := counts[s.UserID]
			switch rank {
			case 0:
				p.top1++
			case 1:
				p.top2++
			case 2:
				p.top3++
			}
			counts[s.UserID] = p
		}
	}
	return counts, nil
}

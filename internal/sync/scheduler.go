package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/config"
	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/metadata"
	"github.com/SlpAus/osu-score-tracker-backend/pkg/lifecycle"
)

// StartScheduler 启动后台同步调度器。
// 所有流程在同一个Goroutine内顺序执行：远端限速预算是全局共享的，
// 并行执行任何两个流程都会破坏它。
func StartScheduler(handle *lifecycle.Handle, engine *Engine, cfg config.SyncConfig) {
	defer handle.Close()
	fmt.Println("同步调度器已启动。")

	for {
		// 使用可中断的休眠，收到停机信号时立刻退出
		if err := handle.Sleep(cfg.IngestInterval()); err != nil {
			fmt.Println("同步调度器: 休眠被中断，正在关闭...")
			return
		}

		runDueProcedures(handle.Ctx(), engine, cfg)

		select {
		case <-handle.Done():
			fmt.Println("同步调度器: 收到停机信号，正在关闭...")
			return
		default:
		}
	}
}

// runDueProcedures 按节奏依次执行到期的流程。
// 单个流程的致命错误只中止该流程本身，其余流程照常调度。
func runDueProcedures(ctx context.Context, engine *Engine, cfg config.SyncConfig) {
	runProcedure(ctx, "摄取新成绩", engine.IngestNewScores)

	if due(ctx, engine, metadata.LastUserRefreshAtKey, cfg.UserRefreshInterval()) {
		runProcedure(ctx, "用户刷新", engine.RefreshUsers)
	}
	if due(ctx, engine, metadata.LastDedupAtKey, cfg.DedupInterval()) {
		runProcedure(ctx, "去重", engine.RemoveDuplicateScores)
	}
	if cfg.FullRefreshInterval() > 0 && due(ctx, engine, metadata.LastFullRefreshAtKey, cfg.FullRefreshInterval()) {
		runProcedure(ctx, "全量刷新", engine.RefreshAllScores)
	}
}

func runProcedure(ctx context.Context, name string, proc func(context.Context) error) {
	if err := proc(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		fmt.Printf("错误: %s流程中止: %v\n", name, err)
	}
}

// due 根据元数据检查点判断某个流程是否到期。
// 读取检查点失败时保守地视为未到期。
func due(ctx context.Context, engine *Engine, key string, interval time.Duration) bool {
	if interval <= 0 {
		return false
	}
	last, err := metadata.GetCheckpoint(engine.db, key)
	if err != nil {
		fmt.Printf("警告: 无法读取检查点 %s: %v\n", key, err)
		return false
	}
	return time.Since(last) >= interval
}

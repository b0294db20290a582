package startup

import (
	"fmt"

	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/metadata"
	"github.com/SlpAus/osu-score-tracker-backend/internal/score"
	"github.com/SlpAus/osu-score-tracker-backend/internal/user"
)

// InitializeApplication 是应用首次启动时执行的总入口
func InitializeApplication() error {
	fmt.Println("开始应用首次初始化...")

	if err := metadata.PrimeDB(); err != nil {
		return err
	}
	if err := score.PrimeDB(); err != nil {
		return err
	}
	if err := user.PrimeCachedDB(); err != nil {
		return err
	}

	fmt.Println("应用初始化完成！")
	return nil
}

// RebuildCache 是一个专门用于在运行时热重建Redis缓存的函数
func RebuildCache() error {
	fmt.Println("开始缓存热重建...")
	if err := user.WarmupCache(); err != nil {
		return err
	}
	fmt.Println("缓存热重建完成。")
	return nil
}

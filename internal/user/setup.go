package user

import (
	"fmt"

	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/database"
)

// PrimeCachedDB 负责初始化user模块的数据库结构并预热排名缓存
func PrimeCachedDB() error {
	if err := MigrateDB(database.DB); err != nil {
		return err
	}
	fmt.Println("User数据库表迁移成功。")

	if err := WarmupCache(); err != nil {
		return err
	}
	return nil
}

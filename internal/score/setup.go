package score

import (
	"fmt"

	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/database"
)

// PrimeDB 负责初始化score模块的数据库结构
func PrimeDB() error {
	if err := MigrateDB(database.DB); err != nil {
		return err
	}
	fmt.Println("成绩分区表迁移成功。")
	return nil
}

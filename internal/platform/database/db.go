package database

import (
	"fmt"

	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是全局的GORM实例。SQLite是唯一的持久层，
// 所有分区表、用户表和元数据表都在这一个文件里。
var DB *gorm.DB

// InitDB 打开配置指定的SQLite数据库文件。
// GORM自身的SQL日志保持静默，流程级的日志由各模块自己打印。
func InitDB(cfg config.SqliteConfig) {
	var err error
	DB, err = gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("连接数据库失败: %v", err))
	}

	fmt.Println("数据库连接成功！")
}

package score

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SlpAus/osu-score-tracker-backend/internal/mods"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TableName 返回某个规范模组组合对应的分区表名。
func TableName(partitionKey string) string {
	return "scores_" + strings.ToLower(partitionKey)
}

// MigrateDB 为全部35个分区迁移成绩表结构。
func MigrateDB(db *gorm.DB) error {
	for _, key := range mods.PartitionKeys {
		if err := db.Table(TableName(key)).AutoMigrate(&Score{}); err != nil {
			return fmt.Errorf("无法迁移分区 %s 的成绩表: %w", key, err)
		}
	}
	return nil
}

// InsertScore 向指定分区插入一条成绩。
// 主键冲突被视为“已存在”的成功空操作，保证插入的幂等性。
func InsertScore(db *gorm.DB, partitionKey string, s *Score) error {
	if !mods.IsKnownKey(partitionKey) {
		return fmt.Errorf("未知的分区键: %q", partitionKey)
	}
	return db.Table(TableName(partitionKey)).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(s).Error
}

// ScoreExists 检查指定分区中是否已存在某个成绩ID。
func ScoreExists(db *gorm.DB, partitionKey string, scoreID uint64) (bool, error) {
	var count int64
	err := db.Table(TableName(partitionKey)).
		Where("score_id = ?", scoreID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetScore 从指定分区读取单条成绩。
func GetScore(db *gorm.DB, partitionKey string, scoreID uint64) (*Score, error) {
	var s Score
	err := db.Table(TableName(partitionKey)).
		Where("score_id = ?", scoreID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetScores 按表现分降序返回某个分区的全部成绩。
func GetScores(db *gorm.DB, partitionKey string) ([]Score, error) {
	var scores []Score
	err := db.Table(TableName(partitionKey)).
		Order("pp desc").
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("无法读取分区 %s 的成绩: %w", partitionKey, err)
	}
	return scores, nil
}

// TopScores 按表现分降序返回某个分区的前 n 条成绩，名次重算使用。
func TopScores(db *gorm.DB, partitionKey string, n int) ([]Score, error) {
	var scores []Score
	err := db.Table(TableName(partitionKey)).
		Order("pp desc").
		Limit(n).
		Find(&scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// UpdateScore 在指定分区内整条覆盖一条成绩。
func UpdateScore(db *gorm.DB, partitionKey string, s *Score) error {
	return db.Table(TableName(partitionKey)).
		Where("score_id = ?", s.ScoreID).
		Select("*").
		Updates(s).Error
}

// DeleteScore 从指定分区删除一条成绩。
func DeleteScore(db *gorm.DB, partitionKey string, scoreID uint64) error {
	return db.Table(TableName(partitionKey)).
		Where("score_id = ?", scoreID).
		Delete(&Score{}).Error
}

// DeleteScoreAnyPartition 在所有分区中查找并删除一条成绩，
// 返回删除发生的分区键。所有分区都没有该成绩时返回 gorm.ErrRecordNotFound。
func DeleteScoreAnyPartition(db *gorm.DB, scoreID uint64) (string, error) {
	for _, key := range mods.PartitionKeys {
		exists, err := ScoreExists(db, key, scoreID)
		if err != nil {
			return "", err
		}
		if !exists {
			continue
		}
		if err := DeleteScore(db, key, scoreID); err != nil {
			return "", err
		}
		return key, nil
	}
	return "", gorm.ErrRecordNotFound
}

// DeleteScoresByUser 级联删除某个用户在所有分区中的全部成绩。
func DeleteScoresByUser(db *gorm.DB, userID uint64) error {
	var errs []error
	for _, key := range mods.PartitionKeys {
		if err := db.Table(TableName(key)).
			Where("user_id = ?", userID).
			Delete(&Score{}).Error; err != nil {
			errs = append(errs, fmt.Errorf("分区 %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

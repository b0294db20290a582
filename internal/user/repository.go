package user

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MigrateDB 负责迁移用户表结构。
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}); err != nil {
		return fmt.Errorf("无法迁移user表: %w", err)
	}
	return nil
}

// InsertUser 插入一个新用户。主键冲突视为已存在的成功空操作。
func InsertUser(db *gorm.DB, u *User) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(u).Error
}

// GetUser 按ID读取单个用户。
func GetUser(db *gorm.DB, userID uint64) (*User, error) {
	var u User
	if err := db.First(&u, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUsers 返回全部用户，按表现分降序。
func GetUsers(db *gorm.DB) ([]User, error) {
	var users []User
	if err := db.Order("pp desc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("无法读取用户列表: %w", err)
	}
	return users, nil
}

// GetTrackedUsers 返回所有开启了自动追踪的用户。
func GetTrackedUsers(db *gorm.DB) ([]User, error) {
	var users []User
	if err := db.Where("autotrack = ?", true).Order("user_id asc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("无法读取被追踪用户: %w", err)
	}
	return users, nil
}

// UpdateUser 整条覆盖一个用户。调用方负责在覆盖前保留
// 不来自远端的字段（Autotrack）。
func UpdateUser(db *gorm.DB, u *User) error {
	return db.Model(&User{}).
		Where("user_id = ?", u.UserID).
		Select("*").Omit("created_at").
		Updates(u).Error
}

// DeleteUser 删除一个用户。
func DeleteUser(db *gorm.DB, userID uint64) error {
	return db.Delete(&User{}, "user_id = ?", userID).Error
}

// SetAutotrack 切换某个用户的自动追踪开关。
func SetAutotrack(db *gorm.DB, userID uint64, enabled bool) error {
	result := db.Model(&User{}).Where("user_id = ?", userID).Update("autotrack", enabled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

package user

import (
	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/database"
	"github.com/SlpAus/osu-score-tracker-backend/internal/score"
)

// ListUsers 返回全部用户，按表现分降序。
func ListUsers() ([]User, error) {
	return GetUsers(database.DB)
}

// RemoveUser 移除一个用户。cascade为true时，
// 同时级联删除该用户在所有35个分区中的成绩。
func RemoveUser(userID uint64, cascade bool) error {
	if _, err := GetUser(database.DB, userID); err != nil {
		return err
	}
	if cascade {
		if err := score.DeleteScoresByUser(database.DB, userID); err != nil {
			return err
		}
	}
	if err := DeleteUser(database.DB, userID); err != nil {
		return err
	}
	RemoveFromCache(userID)
	return nil
}

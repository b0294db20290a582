package score

import (
	"fmt"

	"github.com/SlpAus/osu-score-tracker-backend/internal/mods"
	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/database"
	"gorm.io/gorm"
)

// --- Service-Level Data Transfer Objects (DTOs) ---

// PartitionScoresDTO 是按分区返回成绩列表时的数据包
type PartitionScoresDTO struct {
	Partition string
	Scores    []Score
}

// --- Service Functions ---

// ListScores 返回指定分区的成绩列表；分区键为空时返回全部35个分区。
// 空分区不会出现在结果中。
func ListScores(partitionKey string) ([]PartitionScoresDTO, error) {
	keys := mods.PartitionKeys
	if partitionKey != "" {
		if !mods.IsKnownKey(partitionKey) {
			return nil, fmt.Errorf("未知的分区键: %q", partitionKey)
		}
		keys = []string{partitionKey}
	}

	result := make([]PartitionScoresDTO, 0, len(keys))
	for _, key := range keys {
		scores, err := GetScores(database.DB, key)
		if err != nil {
			return nil, err
		}
		if len(scores) == 0 && partitionKey == "" {
			continue
		}
		result = append(result, PartitionScoresDTO{Partition: key, Scores: scores})
	}
	return result, nil
}

// RemoveScore 删除一条成绩。给定分区键时只在该分区内删除，
// 否则在所有分区中查找。找不到时返回 gorm.ErrRecordNotFound。
func RemoveScore(partitionKey string, scoreID uint64) (string, error) {
	if partitionKey != "" {
		if !mods.IsKnownKey(partitionKey) {
			return "", fmt.Errorf("未知的分区键: %q", partitionKey)
		}
		exists, err := ScoreExists(database.DB, partitionKey, scoreID)
		if err != nil {
			return "", err
		}
		if !exists {
			return "", gorm.ErrRecordNotFound
		}
		return partitionKey, DeleteScore(database.DB, partitionKey, scoreID)
	}
	return DeleteScoreAnyPartition(database.DB, scoreID)
}

package score

import "time"

// Score 定义了成绩在SQLite中的持久化模型。
// 同一个模型被35张分区表共享，表名由规范模组组合决定（见repository.go）。
// ScoreID 在其所属分区内唯一；分区键在记录创建时即固定。
type Score struct {
	// ScoreID 是成绩在远端的唯一ID，作为分区表内的主键
	ScoreID uint64 `gorm:"primarykey" json:"scoreId"`

	// UserID 是成绩所属用户的ID
	UserID uint64 `gorm:"index;not null" json:"userId"`

	// BeatmapID 是谱面ID
	BeatmapID uint64 `gorm:"not null" json:"beatmapId"`

	// Username 是取得成绩时的用户名快照
	Username string `json:"username"`

	// BeatmapLabel 是谱面的展示标签，例如 "Artist - Title [Insane]"
	BeatmapLabel string `json:"beatmapLabel"`

	// Mods 是规范化后的模组组合字符串，同时也是记录所在分区的键
	Mods string `gorm:"type:varchar(12);not null" json:"mods"`

	// PP 是成绩的表现分
	PP float64 `gorm:"check:pp >= 0" json:"pp"`

	// Accuracy 是成绩的准确率
	Accuracy float64 `gorm:"check:accuracy >= 0" json:"accuracy"`

	// StarRating 是应用模组修正后的谱面星级
	StarRating float64 `gorm:"check:star_rating >= 0" json:"starRating"`

	// SetAt 是成绩在远端的取得时间，去重流程以它判定镜像是否偏离
	SetAt time.Time `gorm:"not null" json:"setAt"`

	// CoverURL 是谱面封面缩略图地址
	CoverURL string `json:"coverUrl"`
}

// SameContent 报告两条记录是否在主键以外的所有字段上完全相等。
// 去重流程用它识别重复对。
func (s Score) SameContent(o Score) bool {
	return s.UserID == o.UserID &&
		s.BeatmapID == o.BeatmapID &&
		s.Username == o.Username &&
		s.BeatmapLabel == o.BeatmapLabel &&
		s.Mods == o.Mods &&
		s.PP == o.PP &&
		s.Accuracy == o.Accuracy &&
		s.StarRating == o.StarRating &&
		s.SetAt.Equal(o.SetAt) &&
		s.CoverURL == o.CoverURL
}

package user

import "time"

// User 定义了被追踪用户在SQLite中的持久化模型。
// 通过显式添加创建，由周期性刷新和名次重算流程更新，显式移除时删除。
type User struct {
	// UserID 是用户在远端的唯一ID，作为主键
	UserID uint64 `gorm:"primarykey" json:"userId"`

	// Username 是当前用户名
	Username string `gorm:"not null" json:"username"`

	// CountryCode 是两位国家代码
	CountryCode string `gorm:"type:varchar(2)" json:"countryCode"`

	// GlobalRank 是全球排名
	GlobalRank uint64 `json:"globalRank"`

	// PP 是用户的总表现分
	PP float64 `gorm:"check:pp >= 0" json:"pp"`

	// Accuracy 是用户的总准确率
	Accuracy float64 `gorm:"check:accuracy >= 0" json:"accuracy"`

	// PlaytimeSeconds 是累计游玩时长（秒）
	PlaytimeSeconds uint64 `json:"playtimeSeconds"`

	// PlayCount 是累计游玩次数
	PlayCount uint64 `json:"playCount"`

	// RankedScore 是计入排名的总分
	RankedScore uint64 `json:"rankedScore"`

	// MaxCombo 是最大连击数
	MaxCombo uint64 `json:"maxCombo"`

	// ReplaysWatched 是回放被观看的次数
	ReplaysWatched uint64 `json:"replaysWatched"`

	// AvatarURL 是头像缩略图地址
	AvatarURL string `json:"avatarUrl"`

	// Top1Count/Top2Count/Top3Count 记录用户在多少个分区中分别
	// 占据第1/2/3名，由名次重算流程维护，上限为分区总数35
	Top1Count int `gorm:"check:top1_count BETWEEN 0 AND 35" json:"top1Count"`
	Top2Count int `gorm:"check:top2_count BETWEEN 0 AND 35" json:"top2Count"`
	Top3Count int `gorm:"check:top3_count BETWEEN 0 AND 35" json:"top3Count"`

	// Autotrack 标记用户是否参与自动的周期性成绩摄取。
	// 它不来自远端，刷新时必须原样保留。
	Autotrack bool `gorm:"default:true" json:"autotrack"`

	// 由GORM自动管理
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

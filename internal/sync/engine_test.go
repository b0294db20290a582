package sync

import (
	"context"
	"testing"
	"time"

	"github.com/SlpAus/osu-score-tracker-backend/internal/osuapi"
	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/metadata"
	"github.com/SlpAus/osu-score-tracker-backend/internal/score"
	"github.com/SlpAus/osu-score-tracker-backend/internal/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeAPI 是测试用的远端实现。
type fakeAPI struct {
	users  map[uint64]osuapi.RemoteUser
	scores map[uint64]*osuapi.RemoteScore
	// pages 按页面集合类型提供成绩列表（所有用户共用，测试里只有一个用户时足够）
	pages map[osuapi.ScoreKind][]osuapi.RemoteScore

	scoreCalls int
}

func (f *fakeAPI) User(ctx context.Context, userID uint64) (*osuapi.RemoteUser, error) {
	if ru, ok := f.users[userID]; ok {
		return &ru, nil
	}
	return nil, osuapi.ErrNotFound
}

func (f *fakeAPI) Users(ctx context.Context, userIDs []uint64) ([]osuapi.RemoteUser, error) {
	var out []osuapi.RemoteUser
	for _, id := range userIDs {
		if ru, ok := f.users[id]; ok {
			out = append(out, ru)
		}
	}
	return out, nil
}

func (f *fakeAPI) UserScores(ctx context.Context, userID uint64, kind osuapi.ScoreKind, limit, offset int) ([]osuapi.RemoteScore, error) {
	page := f.pages[kind]
	if offset >= len(page) {
		return nil, nil
	}
	end := offset + limit
	if end > len(page) {
		end = len(page)
	}
	return page[offset:end], nil
}

func (f *fakeAPI) Score(ctx context.Context, scoreID uint64) (*osuapi.RemoteScore, error) {
	f.scoreCalls++
	if rs, ok := f.scores[scoreID]; ok {
		return rs, nil
	}
	return nil, osuapi.ErrNotFound
}

// fakeAttributes 返回固定的难度星级。
type fakeAttributes struct {
	rating float64
}

func (f *fakeAttributes) BeatmapAttributes(ctx context.Context, beatmapID uint64, modTokens []string) (float64, error) {
	return f.rating, nil
}

func newTestEngine(t *testing.T, api API) (*Engine, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("无法打开内存数据库: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("无法获取底层连接: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := score.MigrateDB(db); err != nil {
		t.Fatalf("迁移分区表失败: %v", err)
	}
	if err := user.MigrateDB(db); err != nil {
		t.Fatalf("迁移用户表失败: %v", err)
	}
	if err := db.AutoMigrate(&metadata.Metadata{}); err != nil {
		t.Fatalf("迁移元数据表失败: %v", err)
	}

	translator := score.NewTranslator(&fakeAttributes{rating: 7.77})
	return NewEngine(db, api, translator), db
}

func remoteScore(id, userID uint64, pp float64, mods []string) osuapi.RemoteScore {
	rs := osuapi.RemoteScore{
		ID:        id,
		UserID:    userID,
		Accuracy:  0.99,
		Mods:      mods,
		PP:        pp,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	rs.User.ID = userID
	rs.User.Username = "player"
	rs.Beatmap.ID = 4242
	rs.Beatmap.DifficultyRating = 5.4
	rs.Beatmap.Version = "Insane"
	rs.Beatmapset.Artist = "Artist"
	rs.Beatmapset.Title = "Title"
	rs.Beatmapset.Covers.List = "https://example.com/cover.jpg"
	return rs
}

func remoteUser(id uint64, username string, pp float64) osuapi.RemoteUser {
	ru := osuapi.RemoteUser{
		ID:          id,
		Username:    username,
		CountryCode: "KR",
		AvatarURL:   "https://example.com/avatar.png",
	}
	ru.Statistics.GlobalRank = 1234
	ru.Statistics.PP = pp
	ru.Statistics.HitAccuracy = 98.76
	ru.Statistics.PlayCount = 10000
	return ru
}

func insertTrackedUser(t *testing.T, db *gorm.DB, id uint64, username string) {
	t.Helper()
	if err := user.InsertUser(db, &user.User{UserID: id, Username: username, Autotrack: true}); err != nil {
		t.Fatalf("无法插入测试用户: %v", err)
	}
}

func storedScore(id, userID uint64, pp float64, key string) score.Score {
	return score.Score{
		ScoreID:      id,
		UserID:       userID,
		BeatmapID:    4242,
		Username:     "player",
		BeatmapLabel: "Artist - Title [Insane]",
		Mods:         key,
		PP:           pp,
		Accuracy:     0.99,
		StarRating:   5.4,
		SetAt:        time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		CoverURL:     "https://example.com/cover.jpg",
	}
}

func TestIngestSharedScoreInsertedOnce(t *testing.T) {
	shared := remoteScore(1, 100, 300, nil)
	api := &fakeAPI{
		pages: map[osuapi.ScoreKind][]osuapi.RemoteScore{
			osuapi.ScoreKindBest:   {shared},
			osuapi.ScoreKindRecent: {shared},
		},
	}
	engine, db := newTestEngine(t, api)
	insertTrackedUser(t, db, 100, "player")

	if err := engine.IngestNewScores(context.Background()); err != nil {
		t.Fatalf("摄取失败: %v", err)
	}

	got, err := score.GetScores(db, "NM")
	if err != nil {
		t.Fatalf("读取分区失败: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("同一成绩出现在两个页面集合中，期望只入库1条，得到 %d 条", len(got))
	}

	// 再跑一轮必须保持幂等
	if err := engine.IngestNewScores(context.Background()); err != nil {
		t.Fatalf("第二轮摄取失败: %v", err)
	}
	got, _ = score.GetScores(db, "NM")
	if len(got) != 1 {
		t.Fatalf("重复摄取后期望仍为1条，得到 %d 条", len(got))
	}
}

func TestIngestRoutesScoresToCanonicalPartition(t *testing.T) {
	api := &fakeAPI{
		pages: map[osuapi.ScoreKind][]osuapi.RemoteScore{
			osuapi.ScoreKindBest: {
				remoteScore(1, 100, 300, []string{"NC", "HD"}),
				remoteScore(2, 100, 250, []string{"NF"}),
			},
		},
	}
	engine, db := newTestEngine(t, api)
	insertTrackedUser(t, db, 100, "player")

	if err := engine.IngestNewScores(context.Background()); err != nil {
		t.Fatalf("摄取失败: %v", err)
	}

	if got, _ := score.GetScores(db, "HDDT"); len(got) != 1 {
		t.Errorf("NC+HD成绩应落入HDDT分区，得到 %d 条", len(got))
	}
	if got, _ := score.GetScores(db, "NM"); len(got) != 1 {
		t.Errorf("纯NF成绩应落入NM分区，得到 %d 条", len(got))
	}
}

func TestIngestSkipsUnknownModCombination(t *testing.T) {
	api := &fakeAPI{
		pages: map[osuapi.ScoreKind][]osuapi.RemoteScore{
			osuapi.ScoreKindBest: {
				remoteScore(1, 100, 300, []string{"RX"}),
				remoteScore(2, 100, 250, nil),
			},
		},
	}
	engine, db := newTestEngine(t, api)
	insertTrackedUser(t, db, 100, "player")

	if err := engine.IngestNewScores(context.Background()); err != nil {
		t.Fatalf("未知模组组合不应中止摄取: %v", err)
	}

	if got, _ := score.GetScores(db, "NM"); len(got) != 1 || got[0].ScoreID != 2 {
		t.Fatalf("期望只有成绩2入库，得到 %+v", got)
	}
}

func TestDedupRemovesWholeGroupWhenRemoteMissing(t *testing.T) {
	api := &fakeAPI{scores: map[uint64]*osuapi.RemoteScore{}}
	engine, db := newTestEngine(t, api)

	// 两条内容完全相同、主键不同的镜像记录，远端均已消失
	a := storedScore(1, 100, 300, "NM")
	b := storedScore(2, 100, 300, "NM")
	if err := score.InsertScore(db, "NM", &a); err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	if err := score.InsertScore(db, "NM", &b); err != nil {
		t.Fatalf("插入失败: %v", err)
	}

	if err := engine.RemoveDuplicateScores(context.Background()); err != nil {
		t.Fatalf("去重失败: %v", err)
	}

	if got, _ := score.GetScores(db, "NM"); len(got) != 0 {
		t.Fatalf("远端缺失的重复组应被整组删除，剩余 %d 条", len(got))
	}
}

func TestDedupDeletesOnlyDivergedMembers(t *testing.T) {
	setAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rs1 := remoteScore(1, 100, 300, nil)
	rs2 := remoteScore(2, 100, 300, nil)
	rs2.CreatedAt = setAt.Add(48 * time.Hour) // 成绩2在远端已被覆盖

	api := &fakeAPI{scores: map[uint64]*osuapi.RemoteScore{1: &rs1, 2: &rs2}}
	engine, db := newTestEngine(t, api)

	a := storedScore(1, 100, 300, "NM")
	b := storedScore(2, 100, 300, "NM")
	if err := score.InsertScore(db, "NM", &a); err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	if err := score.InsertScore(db, "NM", &b); err != nil {
		t.Fatalf("插入失败: %v", err)
	}

	if err := engine.RemoveDuplicateScores(context.Background()); err != nil {
		t.Fatalf("去重失败: %v", err)
	}

	got, _ := score.GetScores(db, "NM")
	if len(got) != 1 || got[0].ScoreID != 1 {
		t.Fatalf("期望只保留成绩1，得到 %+v", got)
	}
}

func TestDedupIgnoresDistinctScores(t *testing.T) {
	api := &fakeAPI{scores: map[uint64]*osuapi.RemoteScore{}}
	engine, db := newTestEngine(t, api)

	a := storedScore(1, 100, 300, "NM")
	b := storedScore(2, 100, 250, "NM") // 表现分不同，不构成重复组
	if err := score.InsertScore(db, "NM", &a); err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	if err := score.InsertScore(db, "NM", &b); err != nil {
		t.Fatalf("插入失败: %v", err)
	}

	if err := engine.RemoveDuplicateScores(context.Background()); err != nil {
		t.Fatalf("去重失败: %v", err)
	}

	if api.scoreCalls != 0 {
		t.Errorf("没有重复组时不应发起远端调用，实际 %d 次", api.scoreCalls)
	}
	if got, _ := score.GetScores(db, "NM"); len(got) != 2 {
		t.Fatalf("非重复记录不应被删除，剩余 %d 条", len(got))
	}
}

func TestRefreshAllScoresDeletesMissingAndUpdatesRest(t *testing.T) {
	rs := remoteScore(6, 100, 321, nil)
	api := &fakeAPI{scores: map[uint64]*osuapi.RemoteScore{6: &rs}}
	engine, db := newTestEngine(t, api)

	gone := storedScore(5, 100, 300, "NM")
	stay := storedScore(6, 100, 300, "NM")
	if err := score.InsertScore(db, "NM", &gone); err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	if err := score.InsertScore(db, "NM", &stay); err != nil {
		t.Fatalf("插入失败: %v", err)
	}

	if err := engine.RefreshAllScores(context.Background()); err != nil {
		t.Fatalf("全量刷新失败: %v", err)
	}

	got, _ := score.GetScores(db, "NM")
	if len(got) != 1 || got[0].ScoreID != 6 {
		t.Fatalf("期望成绩5被删除、成绩6保留，得到 %+v", got)
	}
	if got[0].PP != 321 {
		t.Errorf("期望成绩6的表现分被刷新为321，得到 %v", got[0].PP)
	}
}

func TestRefreshRejectsPartitionKeyChange(t *testing.T) {
	// 远端成绩的模组已变为HD，但本地记录位于NM分区
	rs := remoteScore(7, 100, 300, []string{"HD"})
	api := &fakeAPI{scores: map[uint64]*osuapi.RemoteScore{7: &rs}}
	engine, db := newTestEngine(t, api)

	rec := storedScore(7, 100, 300, "NM")
	if err := score.InsertScore(db, "NM", &rec); err != nil {
		t.Fatalf("插入失败: %v", err)
	}

	if err := engine.RefreshAllScores(context.Background()); err != nil {
		t.Fatalf("全量刷新失败: %v", err)
	}

	if got, _ := score.GetScores(db, "NM"); len(got) != 1 {
		t.Fatalf("分区键变化时应拒绝更新而非删除，剩余 %d 条", len(got))
	}
	if got, _ := score.GetScores(db, "HD"); len(got) != 0 {
		t.Fatalf("成绩不应被迁移到新分区，HD分区有 %d 条", len(got))
	}
}

func TestRefreshUsersRecountsTopPlacements(t *testing.T) {
	api := &fakeAPI{
		users: map[uint64]osuapi.RemoteUser{
			1: remoteUser(1, "alpha", 9000),
			2: remoteUser(2, "beta", 8000),
			3: remoteUser(3, "gamma", 7000),
		},
	}
	engine, db := newTestEngine(t, api)
	insertTrackedUser(t, db, 1, "alpha")
	insertTrackedUser(t, db, 2, "beta")
	insertTrackedUser(t, db, 3, "gamma")

	for i, rec := range []score.Score{
		storedScore(11, 1, 300, "NM"),
		storedScore(12, 2, 250, "NM"),
		storedScore(13, 3, 200, "NM"),
	} {
		r := rec
		if err := score.InsertScore(db, "NM", &r); err != nil {
			t.Fatalf("插入第 %d 条成绩失败: %v", i, err)
		}
	}

	if err := engine.RefreshUsers(context.Background()); err != nil {
		t.Fatalf("用户刷新失败: %v", err)
	}

	want := map[uint64][3]int{
		1: {1, 0, 0},
		2: {0, 1, 0},
		3: {0, 0, 1},
	}
	for id, counts := range want {
		u, err := user.GetUser(db, id)
		if err != nil {
			t.Fatalf("读取用户 %d 失败: %v", id, err)
		}
		got := [3]int{u.Top1Count, u.Top2Count, u.Top3Count}
		if got != counts {
			t.Errorf("用户 %d 的名次计数期望 %v，得到 %v", id, counts, got)
		}
	}

	// 远端统计数据应已同步
	u, _ := user.GetUser(db, 1)
	if u.PP != 9000 || u.Username != "alpha" {
		t.Errorf("用户1的远端统计未同步: %+v", u)
	}
}

func TestRefreshUsersPreservesAutotrack(t *testing.T) {
	api := &fakeAPI{
		users: map[uint64]osuapi.RemoteUser{1: remoteUser(1, "alpha", 9000)},
	}
	engine, db := newTestEngine(t, api)
	insertTrackedUser(t, db, 1, "alpha")
	if err := user.SetAutotrack(db, 1, false); err != nil {
		t.Fatalf("无法关闭自动追踪: %v", err)
	}

	if err := engine.RefreshUsers(context.Background()); err != nil {
		t.Fatalf("用户刷新失败: %v", err)
	}

	u, err := user.GetUser(db, 1)
	if err != nil {
		t.Fatalf("读取用户失败: %v", err)
	}
	if u.Autotrack {
		t.Error("刷新不应覆盖用户的自动追踪开关")
	}
}

func TestAddUserReturnsExistingRecord(t *testing.T) {
	api := &fakeAPI{
		users: map[uint64]osuapi.RemoteUser{1: remoteUser(1, "alpha", 9000)},
	}
	engine, db := newTestEngine(t, api)

	// 已入库的用户：关闭了自动追踪，并持有名次计数
	insertTrackedUser(t, db, 1, "alpha")
	if err := user.SetAutotrack(db, 1, false); err != nil {
		t.Fatalf("无法关闭自动追踪: %v", err)
	}
	existing, _ := user.GetUser(db, 1)
	existing.Top1Count = 2
	if err := user.UpdateUser(db, existing); err != nil {
		t.Fatalf("无法写入名次计数: %v", err)
	}

	got, err := engine.AddUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("重复添加不应报错: %v", err)
	}
	if got.Autotrack {
		t.Error("重复添加应返回库中记录，而非覆盖自动追踪开关")
	}
	if got.Top1Count != 2 {
		t.Errorf("重复添加应返回库中的名次计数，得到 %d", got.Top1Count)
	}
}

func TestAddUserNotFound(t *testing.T) {
	api := &fakeAPI{}
	engine, _ := newTestEngine(t, api)

	if _, err := engine.AddUser(context.Background(), 404); err != osuapi.ErrNotFound {
		t.Fatalf("期望 ErrNotFound，得到 %v", err)
	}
}

func TestAddScoreStoresTranslatedRecord(t *testing.T) {
	rs := remoteScore(8, 100, 300, []string{"HD", "DT"})
	api := &fakeAPI{scores: map[uint64]*osuapi.RemoteScore{8: &rs}}
	engine, db := newTestEngine(t, api)

	rec, err := engine.AddScore(context.Background(), 8)
	if err != nil {
		t.Fatalf("添加成绩失败: %v", err)
	}
	if rec.Mods != "HDDT" {
		t.Fatalf("期望规范分区键HDDT，得到 %s", rec.Mods)
	}
	if rec.StarRating != 7.77 {
		t.Errorf("影响难度的模组应触发属性查询，星级期望7.77，得到 %v", rec.StarRating)
	}

	stored, err := score.GetScore(db, "HDDT", 8)
	if err != nil {
		t.Fatalf("读取落库记录失败: %v", err)
	}
	if stored.BeatmapLabel != "Artist - Title [Insane]" {
		t.Errorf("谱面标签拼装错误: %s", stored.BeatmapLabel)
	}
}

func TestIngestSetsCheckpoint(t *testing.T) {
	api := &fakeAPI{}
	engine, db := newTestEngine(t, api)

	before, err := metadata.GetCheckpoint(db, metadata.LastIngestAtKey)
	if err != nil {
		t.Fatalf("读取检查点失败: %v", err)
	}
	if !before.IsZero() {
		t.Fatalf("初始检查点应为零值，得到 %v", before)
	}

	if err := engine.IngestNewScores(context.Background()); err != nil {
		t.Fatalf("摄取失败: %v", err)
	}

	after, err := metadata.GetCheckpoint(db, metadata.LastIngestAtKey)
	if err != nil {
		t.Fatalf("读取检查点失败: %v", err)
	}
	if after.IsZero() {
		t.Fatal("摄取完成后应写入检查点")
	}
}

package score

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SlpAus/osu-score-tracker-backend/internal/osuapi"
)

// fakeAttributeSource 是测试用的难度属性来源。
type fakeAttributeSource struct {
	rating float64
	err    error
	calls  int
}

func (f *fakeAttributeSource) BeatmapAttributes(ctx context.Context, beatmapID uint64, modTokens []string) (float64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.rating, nil
}

func sampleRemoteScore(mods []string) *osuapi.RemoteScore {
	rs := &osuapi.RemoteScore{
		ID:        9001,
		UserID:    124493,
		Accuracy:  0.9876,
		Mods:      mods,
		PP:        512.3,
		CreatedAt: time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC),
	}
	rs.User.ID = 124493
	rs.User.Username = "Cookiezi"
	rs.Beatmap.ID = 129891
	rs.Beatmap.DifficultyRating = 6.53
	rs.Beatmap.Version = "FOUR DIMENSIONS"
	rs.Beatmapset.Artist = "xi"
	rs.Beatmapset.Title = "FREEDOM DiVE"
	rs.Beatmapset.Covers.List = "https://assets.ppy.sh/beatmaps/39804/covers/list.jpg"
	return rs
}

func TestTranslateWithoutRatingAffectingMods(t *testing.T) {
	attrs := &fakeAttributeSource{rating: 99}
	tr := NewTranslator(attrs)

	got, err := tr.Translate(context.Background(), sampleRemoteScore([]string{"HD", "NF"}))
	if err != nil {
		t.Fatalf("Translate 返回错误: %v", err)
	}
	if attrs.calls != 0 {
		t.Fatalf("不影响星级的模组不应触发属性查询, 实际调用了 %d 次", attrs.calls)
	}
	if got.StarRating != 6.53 {
		t.Fatalf("星级应使用谱面基础值 6.53, 得到 %v", got.StarRating)
	}
	if got.Mods != "HD" {
		t.Fatalf("规范模组串为 %q, 期望 HD", got.Mods)
	}
	if got.BeatmapLabel != "xi - FREEDOM DiVE [FOUR DIMENSIONS]" {
		t.Fatalf("谱面标签不正确: %q", got.BeatmapLabel)
	}
	if got.ScoreID != 9001 || got.UserID != 124493 || got.Username != "Cookiezi" {
		t.Fatalf("直接字段拷贝不正确: %+v", *got)
	}
}

func TestTranslateWithRatingAffectingMods(t *testing.T) {
	attrs := &fakeAttributeSource{rating: 9.25}
	tr := NewTranslator(attrs)

	got, err := tr.Translate(context.Background(), sampleRemoteScore([]string{"HD", "DT"}))
	if err != nil {
		t.Fatalf("Translate 返回错误: %v", err)
	}
	if attrs.calls != 1 {
		t.Fatalf("应当恰好发起一次属性查询, 实际 %d 次", attrs.calls)
	}
	if got.StarRating != 9.25 {
		t.Fatalf("星级应使用修正值 9.25, 得到 %v", got.StarRating)
	}
	if got.Mods != "HDDT" {
		t.Fatalf("规范模组串为 %q, 期望 HDDT", got.Mods)
	}
}

func TestTranslateNightcoreTriggersLookup(t *testing.T) {
	attrs := &fakeAttributeSource{rating: 8.8}
	tr := NewTranslator(attrs)

	got, err := tr.Translate(context.Background(), sampleRemoteScore([]string{"NC"}))
	if err != nil {
		t.Fatal(err)
	}
	if attrs.calls != 1 {
		t.Fatal("NC 与 DT 等价，应当触发属性查询")
	}
	if got.Mods != "DT" {
		t.Fatalf("NC 应折叠为 DT 分区, 得到 %q", got.Mods)
	}
}

func TestTranslateAttributeNotFoundIsSkippable(t *testing.T) {
	attrs := &fakeAttributeSource{err: osuapi.ErrNotFound}
	tr := NewTranslator(attrs)

	_, err := tr.Translate(context.Background(), sampleRemoteScore([]string{"DT"}))
	skip, ok := AsSkip(err)
	if !ok {
		t.Fatalf("期望可跳过的翻译失败, 得到: %v", err)
	}
	if skip.ScoreID != 9001 {
		t.Fatalf("SkipError记录的成绩ID为 %d", skip.ScoreID)
	}
}

func TestTranslateUnknownModsIsSkippable(t *testing.T) {
	tr := NewTranslator(&fakeAttributeSource{})

	_, err := tr.Translate(context.Background(), sampleRemoteScore([]string{"V2", "HD"}))
	if _, ok := AsSkip(err); !ok {
		t.Fatalf("未知模组组合应当是可跳过的, 得到: %v", err)
	}
}

func TestTranslateFatalErrorPropagates(t *testing.T) {
	fatal := &osuapi.UnhandledStatusError{Code: 418, URL: "http://example"}
	tr := NewTranslator(&fakeAttributeSource{err: fatal})

	_, err := tr.Translate(context.Background(), sampleRemoteScore([]string{"DT"}))
	if _, ok := AsSkip(err); ok {
		t.Fatal("致命错误不应被包装为SkipError")
	}
	var statusErr *osuapi.UnhandledStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("期望UnhandledStatusError原样传播, 得到: %v", err)
	}
}

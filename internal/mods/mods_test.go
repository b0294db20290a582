package mods

import (
	"errors"
	"math/rand"
	"testing"
)

func TestCanonicalizeBasics(t *testing.T) {
	cases := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"空输入", nil, "NM"},
		{"NC等价于DT", []string{"NC"}, "DT"},
		{"仅含被删除的模组", []string{"NF", "SO"}, "NM"},
		{"SD与PF被删除", []string{"SD", "PF", "HD"}, "HD"},
		{"HDDT", []string{"DT", "HD"}, "HDDT"},
		{"HDNC折叠为HDDT", []string{"NC", "HD"}, "HDDT"},
		{"完整组合", []string{"FL", "HR", "HD", "DT"}, "HDHRDTFL"},
		{"含NF的完整组合", []string{"NF", "EZ", "HT"}, "EZHT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Canonicalize(tc.tokens)
			if err != nil {
				t.Fatalf("Canonicalize(%v) 返回错误: %v", tc.tokens, err)
			}
			if got != tc.want {
				t.Fatalf("Canonicalize(%v) = %q, 期望 %q", tc.tokens, got, tc.want)
			}
		})
	}
}

func TestCanonicalizeNCMatchesDT(t *testing.T) {
	a, err := Canonicalize([]string{"NC"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Canonicalize([]string{"DT"})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("NC(%q) 与 DT(%q) 的规范化结果应当相同", a, b)
	}
}

// TestCanonicalizeOrderInvariance 验证输出与输入顺序无关。
func TestCanonicalizeOrderInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	inputs := [][]string{
		{"HD", "DT"},
		{"EZ", "HD", "FL"},
		{"NF", "HR", "NC", "FL"},
		{"HT", "HD", "HR", "SD"},
		{"FL", "DT", "HD", "HR", "NF", "SO"},
	}
	for _, tokens := range inputs {
		want, err := Canonicalize(tokens)
		if err != nil {
			t.Fatalf("Canonicalize(%v) 返回错误: %v", tokens, err)
		}
		for i := 0; i < 20; i++ {
			shuffled := make([]string, len(tokens))
			copy(shuffled, tokens)
			rng.Shuffle(len(shuffled), func(a, b int) {
				shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
			})
			got, err := Canonicalize(shuffled)
			if err != nil {
				t.Fatalf("Canonicalize(%v) 返回错误: %v", shuffled, err)
			}
			if got != want {
				t.Fatalf("输入顺序 %v 得到 %q, 期望 %q", shuffled, got, want)
			}
		}
	}
}

func TestCanonicalizeUnknownCombination(t *testing.T) {
	// V2是虚构的模组代号，删除替换后残留在结果中
	_, err := Canonicalize([]string{"HD", "V2"})
	if err == nil {
		t.Fatal("期望返回 UnknownCombinationError")
	}
	var unknownErr *UnknownCombinationError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("错误类型不正确: %T", err)
	}
	if unknownErr.Key != "HDV2" {
		t.Fatalf("错误中记录的键为 %q, 期望 %q", unknownErr.Key, "HDV2")
	}

	// EZHDHTFL 在语法上成立，但不属于35个被追踪的分区
	_, err = Canonicalize([]string{"EZ", "HD", "HT", "FL"})
	if !errors.As(err, &unknownErr) {
		t.Fatalf("EZHDHTFL 应当被拒绝, 实际错误: %v", err)
	}
}

func TestPartitionKeysWellFormed(t *testing.T) {
	if len(PartitionKeys) != 35 {
		t.Fatalf("分区键数量为 %d, 期望 35", len(PartitionKeys))
	}
	seen := make(map[string]struct{})
	for _, k := range PartitionKeys {
		if _, dup := seen[k]; dup {
			t.Fatalf("分区键 %q 重复", k)
		}
		seen[k] = struct{}{}
		if len(k) > 12 {
			t.Fatalf("分区键 %q 超过12个字符", k)
		}
		if !IsKnownKey(k) {
			t.Fatalf("IsKnownKey(%q) = false", k)
		}
	}
}

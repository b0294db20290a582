package mods

import (
	"fmt"
	"sort"
	"strings"
)

// NM 是无模组（No Mod）组合对应的规范分区键。
const NM = "NM"

// priorityOrder 定义了模组代号在拼接前的固定排序优先级。
// 未知的代号统一排在所有已知代号之后，且彼此之间保持输入顺序（稳定排序）。
var priorityOrder = map[string]int{
	"NF": 0,
	"EZ": 1,
	"HD": 2,
	"HR": 3,
	"SD": 4,
	"DT": 5,
	"NC": 6,
	"HT": 7,
	"FL": 8,
	"SO": 9,
	"PF": 10,
}

// strippedMods 是拼接后需要从字符串中整体删除的模组代号。
// 这些模组不影响成绩的计分分类。
var strippedMods = []string{"NF", "SO", "SD", "PF"}

// PartitionKeys 是全部35个规范模组组合，每个组合对应一张独立的成绩表。
// 组合由 EZ/HD/HR/DT/HT/FL 构成，其中 EZ 与 HR、DT 与 HT 互斥；
// 上游排行榜从未发出过 EZHDHTFL，因此该组合不在追踪范围内。
var PartitionKeys = []string{
	NM, "DT", "HT", "FL", "DTFL", "HTFL",
	"HD", "HDDT", "HDHT", "HDFL", "HDDTFL", "HDHTFL",
	"EZ", "EZDT", "EZHT", "EZFL", "EZDTFL", "EZHTFL",
	"EZHD", "EZHDDT", "EZHDHT", "EZHDFL", "EZHDDTFL",
	"HR", "HRDT", "HRHT", "HRFL", "HRDTFL", "HRHTFL",
	"HDHR", "HDHRDT", "HDHRHT", "HDHRFL", "HDHRDTFL", "HDHRHTFL",
}

// knownKeys 提供分区键的 O(1) 成员检查。
var knownKeys = func() map[string]struct{} {
	m := make(map[string]struct{}, len(PartitionKeys))
	for _, k := range PartitionKeys {
		m[k] = struct{}{}
	}
	return m
}()

// UnknownCombinationError 表示规范化结果不属于任何已知分区。
// 调用方必须将其视为“跳过并告警”的可恢复条件，而不是批处理的致命错误。
type UnknownCombinationError struct {
	Key    string
	Tokens []string
}

func (e *UnknownCombinationError) Error() string {
	return fmt.Sprintf("未知的模组组合: %q (输入: %v)", e.Key, e.Tokens)
}

// IsKnownKey 报告给定的字符串是否是35个规范分区键之一。
func IsKnownKey(key string) bool {
	_, ok := knownKeys[key]
	return ok
}

// Canonicalize 将远端API报告的无序模组列表映射为唯一的规范分区键。
// 算法:
//  1. 按固定优先级排序（未知代号稳定地排在最后）；
//  2. 依序拼接为一个字符串；
//  3. 应用替换: NC→DT（Nightcore 在计分上等价于 Double Time），
//     然后整体删除 NF/SO/SD/PF；
//  4. 结果为空则为 NM；
//  5. 结果必须是已知分区键，否则返回 *UnknownCombinationError。
//
// 对任意输入顺序，输出保持不变。
func Canonicalize(tokens []string) (string, error) {
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, iok := priorityOrder[sorted[i]]
		pj, jok := priorityOrder[sorted[j]]
		if iok && jok {
			return pi < pj
		}
		// 已知代号排在未知代号之前；未知代号之间不交换
		return iok && !jok
	})

	combined := strings.Join(sorted, "")
	combined = strings.ReplaceAll(combined, "NC", "DT")
	for _, mod := range strippedMods {
		combined = strings.ReplaceAll(combined, mod, "")
	}

	if combined == "" {
		combined = NM
	}
	if !IsKnownKey(combined) {
		return "", &UnknownCombinationError{Key: combined, Tokens: tokens}
	}
	return combined, nil
}

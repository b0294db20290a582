package metadata

// 同步流程的检查点键。
// 每个键记录对应流程最近一次成功完成的时间（RFC3339），
// 值为空表示该流程从未完成过。
const (
	// LastIngestAtKey 记录新成绩摄取流程的最近完成时间
	LastIngestAtKey = "last_ingest_at"

	// LastUserRefreshAtKey 记录用户刷新与名次重算流程的最近完成时间
	LastUserRefreshAtKey = "last_user_refresh_at"

	// LastDedupAtKey 记录去重流程的最近完成时间
	LastDedupAtKey = "last_dedup_at"

	// LastFullRefreshAtKey 记录全量刷新流程的最近完成时间
	LastFullRefreshAtKey = "last_full_refresh_at"
)

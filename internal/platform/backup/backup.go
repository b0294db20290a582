package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/config"
)

var (
	backupMutex sync.Mutex // 避免意外竞态
	cfg         config.SqliteConfig
	configured  bool
)

// Configure 在应用启动时注入SQLite文件配置。
func Configure(c config.SqliteConfig) {
	backupMutex.Lock()
	defer backupMutex.Unlock()
	cfg = c
	configured = true
}

// SnapshotDatabaseFile 在破坏性流程（去重、全量刷新）开始前，
// 把SQLite数据库文件复制一份到备份目录。
// 数据库文件不存在（例如测试环境使用内存库）时静默跳过。
func SnapshotDatabaseFile(reason string) error {
	backupMutex.Lock()
	defer backupMutex.Unlock()

	if !configured {
		return nil
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := os.MkdirAll(cfg.BackupDir, 0o755); err != nil {
		return fmt.Errorf("无法创建备份目录: %w", err)
	}

	stamp := time.Now().Format("20060102-150405")
	target := filepath.Join(cfg.BackupDir, fmt.Sprintf("%s-%s-%s", stamp, reason, filepath.Base(cfg.Path)))

	if err := copyFile(cfg.Path, target); err != nil {
		return fmt.Errorf("无法创建数据库快照: %w", err)
	}
	fmt.Printf("备份: 已创建数据库快照 %s\n", target)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

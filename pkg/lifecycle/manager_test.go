package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestContextCancelledOnShutdown(t *testing.T) {
	m := NewManager()

	select {
	case <-m.Context().Done():
		t.Fatal("停机前上下文不应被取消")
	default:
	}

	m.Shutdown()

	select {
	case <-m.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("停机后上下文应被取消")
	}
	if !errors.Is(m.Context().Err(), context.Canceled) {
		t.Fatalf("期望 context.Canceled，得到 %v", m.Context().Err())
	}
}

func TestSleepInterruptedByShutdown(t *testing.T) {
	m := NewManager()
	handle, err := m.NewServiceHandle("worker")
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	defer handle.Close()

	go m.Shutdown()

	start := time.Now()
	if err := handle.Sleep(10 * time.Second); err == nil {
		t.Fatal("停机期间的休眠应返回错误")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("休眠未被停机信号及时打断")
	}
}

func TestWaitReportsRemainingServices(t *testing.T) {
	m := NewManager()
	if _, err := m.NewServiceHandle("stuck"); err != nil {
		t.Fatalf("注册失败: %v", err)
	}

	m.Shutdown()
	remaining := m.WaitWithTimeout(50 * time.Millisecond)
	if len(remaining) != 1 || remaining[0] != "stuck" {
		t.Fatalf("期望报告未退出的服务 [stuck]，得到 %v", remaining)
	}
}

func TestDuplicateServiceNameRejected(t *testing.T) {
	m := NewManager()
	if _, err := m.NewServiceHandle("worker"); err != nil {
		t.Fatalf("首次注册失败: %v", err)
	}
	if _, err := m.NewServiceHandle("worker"); err == nil {
		t.Fatal("重名注册应被拒绝")
	}
}

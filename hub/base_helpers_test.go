/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-04-29 09:12:36
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-29 16:48:22
 * @FilePath: \go-dvh\hub\base_helpers_test.go
 * @Description: 测试辅助函数 - 统一管理测试中的公共方法
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package hub

import (
	"context"
	"sync"
	"testing"
	"time"

	wscconfig "github.com/kamalyes/go-config/pkg/wsc"
	"github.com/kamalyes/go-dvh/models"
	"github.com/kamalyes/go-toolbox/pkg/errorx"
	"github.com/kamalyes/go-toolbox/pkg/json"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// ============================================================================
// Hub 测试辅助函数
// ============================================================================

// CreateTestConfig 创建测试用配置
func CreateTestConfig() *wscconfig.WSC {
	return wscconfig.Default().
		WithNodeInfo("127.0.0.1", 8080).
		WithMessageBufferSize(64)
}

// CreateTestHub 创建测试用的 Hub
func CreateTestHub(t *testing.T, config *wscconfig.WSC) *Hub {
	if config == nil {
		config = CreateTestConfig()
	}
	return NewHub(config)
}

// StartTestHub 启动测试 Hub 并等待就绪
func StartTestHub(t *testing.T, hub *Hub) {
	go hub.Run()
	hub.WaitForStart()
}

// ============================================================================
// 连接测试辅助函数
// ============================================================================

// CreateTestDeviceConn 创建测试设备连接（不挂真实socket，只走发送通道）
func CreateTestDeviceConn(connID, deviceID, tenantID string, bufferSize int) *DeviceConn {
	return NewDeviceConn(connID, deviceID, nil, bufferSize).
		WithTenant(tenantID).
		WithName(deviceID)
}

// CreateTestObserverConn 创建测试观察者连接
func CreateTestObserverConn(connID, observerID, tenantID string, bufferSize int) *ObserverConn {
	return NewObserverConn(connID, observerID, nil, bufferSize).
		WithTenant(tenantID)
}

// ReceiveDeviceFrame 从设备发送通道读取并解析一帧
func ReceiveDeviceFrame(t *testing.T, conn *DeviceConn, timeout time.Duration) *models.DeviceFrame {
	select {
	case data := <-conn.SendChan:
		frame, err := models.DecodeDeviceFrame(data)
		if err != nil {
			t.Fatalf("设备帧解析失败: %v", err)
		}
		return frame
	case <-time.After(timeout):
		t.Fatal("超时：未收到设备帧")
		return nil
	}
}

// ReceiveObserverFrame 从观察者发送通道读取并解析一帧
func ReceiveObserverFrame(t *testing.T, conn *ObserverConn, timeout time.Duration) *models.ObserverFrame {
	select {
	case data := <-conn.SendChan:
		var frame models.ObserverFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("观察者帧解析失败: %v", err)
		}
		return &frame
	case <-time.After(timeout):
		t.Fatal("超时：未收到观察者帧")
		return nil
	}
}

// AssertNoObserverFrame 断言观察者在指定窗口内没有收到帧
func AssertNoObserverFrame(t *testing.T, conn *ObserverConn, timeout time.Duration) {
	select {
	case data := <-conn.SendChan:
		t.Fatalf("不应该收到帧，但收到了: %s", string(data))
	case <-time.After(timeout):
		// 正常，没有收到帧
	}
}

// ============================================================================
// 等待和重试工具
// ============================================================================

// Eventually 最终满足条件（带重试）
func Eventually(condition func() bool, timeout, interval time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return condition()
}

// WaitShort 短暂等待（50ms）
func WaitShort() {
	time.Sleep(50 * time.Millisecond)
}

// WaitMedium 中等等待（100ms）
func WaitMedium() {
	time.Sleep(100 * time.Millisecond)
}

// ============================================================================
// Mock 设备仓库
// ============================================================================

// fakeDeviceRepository 内存版设备仓库，记录所有写入用于断言
type fakeDeviceRepository struct {
	mu          sync.RWMutex
	devices     map[string]*models.Device
	logs        []*models.DeviceLog
	playbacks   []*models.PlaybackLog
	stats       map[string]*models.DeviceStatsRecord
	screenshots []*models.ScreenshotRecord
	lastSeen    map[string]time.Time
}

// newFakeDeviceRepository 创建内存设备仓库
func newFakeDeviceRepository() *fakeDeviceRepository {
	return &fakeDeviceRepository{
		devices:  make(map[string]*models.Device),
		stats:    make(map[string]*models.DeviceStatsRecord),
		lastSeen: make(map[string]time.Time),
	}
}

// AddDevice 预登记设备档案
func (r *fakeDeviceRepository) AddDevice(device *models.Device) {
	syncx.WithLock(&r.mu, func() {
		r.devices[device.ID] = device
	})
}

// GetStatus 读取设备状态投影
func (r *fakeDeviceRepository) GetStatus(deviceID string) models.DeviceStatus {
	return syncx.WithRLockReturnValue(&r.mu, func() models.DeviceStatus {
		if device, ok := r.devices[deviceID]; ok {
			return device.Status
		}
		return ""
	})
}

// GetBlockMessage 读取封禁提示语
func (r *fakeDeviceRepository) GetBlockMessage(deviceID string) string {
	return syncx.WithRLockReturnValue(&r.mu, func() string {
		if device, ok := r.devices[deviceID]; ok {
			return device.BlockMessage
		}
		return ""
	})
}

// CountLogs 统计指定类型的日志条数
func (r *fakeDeviceRepository) CountLogs(deviceID string, event models.LogEventType) int {
	return syncx.WithRLockReturnValue(&r.mu, func() int {
		count := 0
		for _, log := range r.logs {
			if log.DeviceID == deviceID && log.EventType == event {
				count++
			}
		}
		return count
	})
}

// PlaybackCount 统计播放日志条数
func (r *fakeDeviceRepository) PlaybackCount(deviceID string) int {
	return syncx.WithRLockReturnValue(&r.mu, func() int {
		count := 0
		for _, record := range r.playbacks {
			if record.DeviceID == deviceID {
				count++
			}
		}
		return count
	})
}

func (r *fakeDeviceRepository) FindByID(ctx context.Context, deviceID string) (*models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	device, ok := r.devices[deviceID]
	if !ok {
		return nil, errorx.NewError(models.ErrTypeDeviceNotFound, deviceID)
	}
	copied := *device
	return &copied, nil
}

func (r *fakeDeviceRepository) SetStatus(ctx context.Context, deviceID string, status models.DeviceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	device, ok := r.devices[deviceID]
	if !ok {
		return nil
	}
	// 与GORM实现一致：在离线切换不覆盖blocked
	if (status == models.DeviceStatusOnline || status == models.DeviceStatusOffline) &&
		device.Status == models.DeviceStatusBlocked {
		return nil
	}
	device.Status = status
	return nil
}

func (r *fakeDeviceRepository) TouchLastSeen(ctx context.Context, deviceID string, t time.Time) error {
	syncx.WithLock(&r.mu, func() {
		r.lastSeen[deviceID] = t
	})
	return nil
}

func (r *fakeDeviceRepository) UpdateBlockState(ctx context.Context, deviceID string, status models.DeviceStatus, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	device, ok := r.devices[deviceID]
	if !ok {
		return nil
	}
	device.Status = status
	device.BlockMessage = message
	return nil
}

func (r *fakeDeviceRepository) AppendLog(ctx context.Context, deviceID string, event models.LogEventType, message string) error {
	syncx.WithLock(&r.mu, func() {
		r.logs = append(r.logs, &models.DeviceLog{
			DeviceID:  deviceID,
			EventType: event,
			Message:   message,
			CreatedAt: time.Now(),
		})
	})
	return nil
}

func (r *fakeDeviceRepository) UpsertStats(ctx context.Context, record *models.DeviceStatsRecord) error {
	syncx.WithLock(&r.mu, func() {
		r.stats[record.DeviceID] = record
	})
	return nil
}

func (r *fakeDeviceRepository) InsertPlayback(ctx context.Context, record *models.PlaybackLog) error {
	syncx.WithLock(&r.mu, func() {
		r.playbacks = append(r.playbacks, record)
	})
	return nil
}

func (r *fakeDeviceRepository) InsertScreenshot(ctx context.Context, record *models.ScreenshotRecord) error {
	syncx.WithLock(&r.mu, func() {
		r.screenshots = append(r.screenshots, record)
	})
	return nil
}

func (r *fakeDeviceRepository) ListPlayback(ctx context.Context, deviceID string, limit int) ([]*models.PlaybackLog, error) {
	return syncx.WithRLockReturnValue(&r.mu, func() []*models.PlaybackLog {
		var logs []*models.PlaybackLog
		for i := len(r.playbacks) - 1; i >= 0 && len(logs) < limit; i-- {
			if r.playbacks[i].DeviceID == deviceID {
				logs = append(logs, r.playbacks[i])
			}
		}
		return logs
	}), nil
}

func (r *fakeDeviceRepository) LatestScreenshot(ctx context.Context, deviceID string) (*models.ScreenshotRecord, error) {
	return syncx.WithRLockReturnValue(&r.mu, func() *models.ScreenshotRecord {
		for i := len(r.screenshots) - 1; i >= 0; i-- {
			if r.screenshots[i].DeviceID == deviceID {
				return r.screenshots[i]
			}
		}
		return nil
	}), nil
}

// ============================================================================
// Mock 心跳超时记录器
// ============================================================================

// TimeoutCall 一次心跳超时回调的记录
type TimeoutCall struct {
	DeviceID string
	LastSeen time.Time
}

// MockHeartbeatTimeoutRecorder 记录心跳超时回调，支持等待
type MockHeartbeatTimeoutRecorder struct {
	mu    sync.Mutex
	calls []TimeoutCall
	ch    chan TimeoutCall
}

// NewMockHeartbeatTimeoutRecorder 创建心跳超时记录器
func NewMockHeartbeatTimeoutRecorder() *MockHeartbeatTimeoutRecorder {
	return &MockHeartbeatTimeoutRecorder{
		ch: make(chan TimeoutCall, 16),
	}
}

// Record 记录一次超时回调
func (m *MockHeartbeatTimeoutRecorder) Record(deviceID string, lastSeen time.Time) {
	call := TimeoutCall{DeviceID: deviceID, LastSeen: lastSeen}
	syncx.WithLock(&m.mu, func() {
		m.calls = append(m.calls, call)
	})
	select {
	case m.ch <- call:
	default:
	}
}

// GetCalls 获取所有回调记录的副本
func (m *MockHeartbeatTimeoutRecorder) GetCalls() []TimeoutCall {
	return syncx.WithLockReturnValue(&m.mu, func() []TimeoutCall {
		calls := make([]TimeoutCall, len(m.calls))
		copy(calls, m.calls)
		return calls
	})
}

// WaitForTimeout 等待下一次超时回调
func (m *MockHeartbeatTimeoutRecorder) WaitForTimeout(timeout time.Duration) (TimeoutCall, bool) {
	select {
	case call := <-m.ch:
		return call, true
	case <-time.After(timeout):
		return TimeoutCall{}, false
	}
}

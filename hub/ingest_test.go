/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-04-29 17:52:11
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-29 22:05:36
 * @FilePath: \go-dvh\hub\ingest_test.go
 * @Description: 上报帧处理测试 - 播放日志、硬件指标、截图落库与事件广播
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package hub

import (
	"context"
	"testing"
	"time"

	"github.com/kamalyes/go-dvh/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHandleHeartbeatSendsAck 测试心跳帧回执
func TestHandleHeartbeatSendsAck(t *testing.T) {
	hub := CreateTestHub(t, nil)
	conn := CreateTestDeviceConn("conn-1", "device-1", "tenant-a", 8)
	hub.putDevice(conn)

	hub.handleHeartbeat(conn)

	frame := ReceiveDeviceFrame(t, conn, 1*time.Second)
	assert.Equal(t, models.FrameHeartbeatAck, frame.Type)
	assert.Equal(t, "device-1", frame.DeviceID)
}

// TestHandlePlaybackLog 测试播放日志落库与事件广播
func TestHandlePlaybackLog(t *testing.T) {
	hub := CreateTestHub(t, nil)
	repo := newFakeDeviceRepository()
	hub.SetDeviceRepository(repo)

	observer := CreateTestObserverConn("conn-o", "admin-1", "tenant-a", 8)
	hub.addObserver(observer)

	conn := CreateTestDeviceConn("conn-1", "device-1", "tenant-a", 8)
	start := time.Now().Add(-15 * time.Second)
	end := time.Now()

	hub.handlePlaybackLog(conn, &InboundFrame{
		Type:       models.FramePlaybackLog,
		DeviceID:   "device-1",
		ContentID:  "content-1",
		CampaignID: "campaign-1",
		Duration:   15000,
		StartTime:  &start,
		EndTime:    &end,
	})

	// 事件同步广播
	frame := ReceiveObserverFrame(t, observer, 1*time.Second)
	assert.Equal(t, models.FramePlaybackUpdate, frame.Type)
	assert.Equal(t, "content-1", frame.ContentID)
	assert.Equal(t, "campaign-1", frame.CampaignID)
	assert.Equal(t, int64(15000), frame.Duration)

	// 落库是异步尽力而为
	assert.True(t, Eventually(func() bool {
		return repo.PlaybackCount("device-1") == 1
	}, 2*time.Second, 20*time.Millisecond))

	logs, err := repo.ListPlayback(context.Background(), "device-1", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "tenant-a", logs[0].TenantID)
	assert.Equal(t, &start, logs[0].StartTime)
}

// TestHandlePlaybackLogMissingContentID 测试缺失contentId丢弃
func TestHandlePlaybackLogMissingContentID(t *testing.T) {
	hub := CreateTestHub(t, nil)
	repo := newFakeDeviceRepository()
	hub.SetDeviceRepository(repo)

	observer := CreateTestObserverConn("conn-o", "admin-1", "tenant-a", 8)
	hub.addObserver(observer)

	conn := CreateTestDeviceConn("conn-1", "device-1", "tenant-a", 8)
	hub.handlePlaybackLog(conn, &InboundFrame{Type: models.FramePlaybackLog, DeviceID: "device-1"})

	AssertNoObserverFrame(t, observer, 200*time.Millisecond)
	assert.Equal(t, 0, repo.PlaybackCount("device-1"))
}

// TestHandleDeviceStatus 测试硬件指标落库与事件广播
func TestHandleDeviceStatus(t *testing.T) {
	hub := CreateTestHub(t, nil)
	repo := newFakeDeviceRepository()
	hub.SetDeviceRepository(repo)

	observer := CreateTestObserverConn("conn-o", "admin-1", "tenant-a", 8)
	hub.addObserver(observer)

	conn := CreateTestDeviceConn("conn-1", "device-1", "tenant-a", 8).WithName("大堂屏")
	stats := &DeviceStats{CPU: 23.5, Memory: 41.2, Storage: 67.8, Temperature: 45}

	hub.handleDeviceStatus(conn, &InboundFrame{
		Type:     models.FrameDeviceStatus,
		DeviceID: "device-1",
		Stats:    stats,
	})

	// 自报状态为空时回退online
	frame := ReceiveObserverFrame(t, observer, 1*time.Second)
	assert.Equal(t, models.FrameDeviceStatusUpdate, frame.Type)
	assert.Equal(t, models.DeviceStatusOnline.String(), frame.Status)
	assert.Equal(t, "大堂屏", frame.DeviceName)
	require.NotNil(t, frame.Stats)
	assert.Equal(t, 23.5, frame.Stats.CPU)

	assert.True(t, Eventually(func() bool {
		record := getStatsRecord(repo, "device-1")
		return record != nil && record.CPU == 23.5
	}, 2*time.Second, 20*time.Millisecond))
}

// TestHandleDeviceStatusWithoutStats 测试无指标时只广播不落库
func TestHandleDeviceStatusWithoutStats(t *testing.T) {
	hub := CreateTestHub(t, nil)
	repo := newFakeDeviceRepository()
	hub.SetDeviceRepository(repo)

	observer := CreateTestObserverConn("conn-o", "admin-1", "tenant-a", 8)
	hub.addObserver(observer)

	conn := CreateTestDeviceConn("conn-1", "device-1", "tenant-a", 8)
	hub.handleDeviceStatus(conn, &InboundFrame{
		Type:     models.FrameDeviceStatus,
		DeviceID: "device-1",
		Status:   "degraded",
	})

	frame := ReceiveObserverFrame(t, observer, 1*time.Second)
	assert.Equal(t, "degraded", frame.Status)
	assert.Nil(t, frame.Stats)

	WaitMedium()
	assert.Nil(t, getStatsRecord(repo, "device-1"))
}

// TestHandleScreenshotResult 测试截图回传落库与就绪事件
func TestHandleScreenshotResult(t *testing.T) {
	hub := CreateTestHub(t, nil)
	repo := newFakeDeviceRepository()
	hub.SetDeviceRepository(repo)

	observer := CreateTestObserverConn("conn-o", "admin-1", "tenant-a", 8)
	hub.addObserver(observer)

	conn := CreateTestDeviceConn("conn-1", "device-1", "tenant-a", 8)
	capturedAt := time.Now()

	hub.handleScreenshotResult(conn, &InboundFrame{
		Type:       models.FrameScreenshotResult,
		DeviceID:   "device-1",
		Screenshot: "aGVsbG8td29ybGQ=",
		Timestamp:  &capturedAt,
	})

	frame := ReceiveObserverFrame(t, observer, 1*time.Second)
	assert.Equal(t, models.FrameScreenshotReady, frame.Type)
	assert.Equal(t, "device-1", frame.DeviceID)

	assert.True(t, Eventually(func() bool {
		record, _ := repo.LatestScreenshot(context.Background(), "device-1")
		return record != nil && record.Data == "aGVsbG8td29ybGQ="
	}, 2*time.Second, 20*time.Millisecond))

	record, err := repo.LatestScreenshot(context.Background(), "device-1")
	require.NoError(t, err)
	assert.Equal(t, &capturedAt, record.CapturedAt)
}

// TestHandleScreenshotResultEmpty 测试空截图丢弃
func TestHandleScreenshotResultEmpty(t *testing.T) {
	hub := CreateTestHub(t, nil)
	observer := CreateTestObserverConn("conn-o", "admin-1", "tenant-a", 8)
	hub.addObserver(observer)

	conn := CreateTestDeviceConn("conn-1", "device-1", "tenant-a", 8)
	hub.handleScreenshotResult(conn, &InboundFrame{Type: models.FrameScreenshotResult, DeviceID: "device-1"})

	AssertNoObserverFrame(t, observer, 200*time.Millisecond)
}

// getStatsRecord 读取指标快照（加锁）
func getStatsRecord(repo *fakeDeviceRepository, deviceID string) *models.DeviceStatsRecord {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	return repo.stats[deviceID]
}

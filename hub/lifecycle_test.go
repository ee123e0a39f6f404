/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-04-29 17:30:26
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-29 21:38:54
 * @FilePath: \go-dvh\hub\lifecycle_test.go
 * @Description: 生命周期测试 - 启动等待、安全关闭、健康快照
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHubStartAndShutdown 测试启动与安全关闭
func TestHubStartAndShutdown(t *testing.T) {
	hub := CreateTestHub(t, nil)
	assert.False(t, hub.IsStarted())

	StartTestHub(t, hub)
	assert.True(t, hub.IsStarted())
	assert.False(t, hub.IsShutdown())

	require.NoError(t, hub.SafeShutdown())
	assert.True(t, hub.IsShutdown())

	// 重复关闭幂等
	require.NoError(t, hub.SafeShutdown())
}

// TestWaitForStartWithTimeout 测试带超时的启动等待
func TestWaitForStartWithTimeout(t *testing.T) {
	hub := CreateTestHub(t, nil)

	// 未启动时等待超时
	err := hub.WaitForStartWithTimeout(50 * time.Millisecond)
	assert.ErrorIs(t, err, ErrHubStartupTimeout)

	StartTestHub(t, hub)
	defer hub.Shutdown()

	assert.NoError(t, hub.WaitForStartWithTimeout(1*time.Second))
}

// TestShutdownClosesConnections 测试关闭时清空注册表
func TestShutdownClosesConnections(t *testing.T) {
	hub := CreateTestHub(t, nil)
	StartTestHub(t, hub)

	device := CreateTestDeviceConn("conn-d", "device-1", "tenant-a", 8)
	observer := CreateTestObserverConn("conn-o", "admin-1", "tenant-a", 8)
	hub.putDevice(device)
	hub.addObserver(observer)

	require.NoError(t, hub.SafeShutdown())

	assert.Equal(t, int64(0), hub.DeviceCount())
	assert.Equal(t, int64(0), hub.ObserverConnCount())
	assert.True(t, device.IsClosed())
	assert.True(t, observer.IsClosed())
}

// TestGetHubHealth 测试健康快照
func TestGetHubHealth(t *testing.T) {
	hub := CreateTestHub(t, nil)
	StartTestHub(t, hub)
	defer hub.Shutdown()

	hub.putDevice(CreateTestDeviceConn("conn-d", "device-1", "tenant-a", 8))
	hub.addObserver(CreateTestObserverConn("conn-o1", "admin-1", "tenant-a", 8))
	hub.addObserver(CreateTestObserverConn("conn-o2", "admin-1", "tenant-a", 8))

	hub.PublishEvent(NewDeviceOfflineEvent("device-x", "", "tenant-a"))
	hub.SendCommand("device-1", NewRefreshContentCommand())

	health := hub.GetHubHealth()

	assert.NotEmpty(t, health.NodeID)
	assert.True(t, health.Started)
	assert.False(t, health.Shutdown)
	assert.Equal(t, int64(1), health.DeviceCount)
	assert.Equal(t, 1, health.ObserverCount)
	assert.Equal(t, int64(2), health.ObserverConnCount)
	assert.Equal(t, int64(1), health.BroadcastsSent)
	assert.Equal(t, int64(1), health.CommandsSent)
}

// TestSetKeepaliveInterval 测试保活间隔配置兜底
func TestSetKeepaliveInterval(t *testing.T) {
	hub := CreateTestHub(t, nil)

	hub.SetKeepaliveInterval(10 * time.Second)
	assert.Equal(t, 10*time.Second, hub.keepaliveInterval)

	// 零值回退到默认30秒
	hub.SetKeepaliveInterval(0)
	assert.Equal(t, DefaultKeepaliveInterval, hub.keepaliveInterval)
}

// TestSetEventChannel 测试事件频道配置兜底
func TestSetEventChannel(t *testing.T) {
	hub := CreateTestHub(t, nil)
	assert.Equal(t, DefaultEventChannel, hub.eventChannel)

	hub.SetEventChannel("signage:events")
	assert.Equal(t, "signage:events", hub.eventChannel)

	hub.SetEventChannel("")
	assert.Equal(t, DefaultEventChannel, hub.eventChannel)
}

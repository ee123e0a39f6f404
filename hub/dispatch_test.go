/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-04-29 11:18:09
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-29 18:03:52
 * @FilePath: \go-dvh\hub\dispatch_test.go
 * @Description: 指令派发测试 - 至多一次投递、封禁落库与对账
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package hub

import (
	"testing"
	"time"

	"github.com/kamalyes/go-dvh/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSendCommandOfflineDevice 测试设备不在线直接返回false
func TestSendCommandOfflineDevice(t *testing.T) {
	hub := CreateTestHub(t, nil)

	delivered := hub.SendCommand("ghost-device", NewRefreshContentCommand())

	assert.False(t, delivered)
	assert.Equal(t, int64(0), hub.commandsSent.Load())
}

// TestSendCommandDelivered 测试在线设备指令送达
func TestSendCommandDelivered(t *testing.T) {
	hub := CreateTestHub(t, nil)
	conn := CreateTestDeviceConn("conn-1", "device-1", "tenant-a", 8)
	hub.putDevice(conn)

	delivered := hub.SendCommand("device-1", NewRefreshContentCommand())

	require.True(t, delivered)
	assert.Equal(t, int64(1), hub.commandsSent.Load())

	frame := ReceiveDeviceFrame(t, conn, 1*time.Second)
	assert.Equal(t, models.FrameContentUpdate, frame.Type)
	assert.Equal(t, "device-1", frame.DeviceID)
	assert.Equal(t, "refresh", frame.Action)
}

// TestSendCommandChannelFull 测试发送通道拥塞返回false
func TestSendCommandChannelFull(t *testing.T) {
	hub := CreateTestHub(t, nil)
	conn := CreateTestDeviceConn("conn-1", "device-1", "tenant-a", 1)
	require.True(t, conn.TrySend([]byte("occupied")))
	hub.putDevice(conn)

	delivered := hub.SendCommand("device-1", NewRefreshContentCommand())

	assert.False(t, delivered)
	assert.Equal(t, int64(0), hub.commandsSent.Load())
}

// TestSendCommandClosedConn 测试已关闭连接返回false
func TestSendCommandClosedConn(t *testing.T) {
	hub := CreateTestHub(t, nil)
	conn := CreateTestDeviceConn("conn-1", "device-1", "tenant-a", 8)
	hub.putDevice(conn)
	hub.closeDeviceConn(conn)

	assert.False(t, hub.SendCommand("device-1", NewRefreshContentCommand()))
}

// TestSendCommandUnknownType 测试未知指令类型返回false
func TestSendCommandUnknownType(t *testing.T) {
	hub := CreateTestHub(t, nil)
	conn := CreateTestDeviceConn("conn-1", "device-1", "tenant-a", 8)
	hub.putDevice(conn)

	delivered := hub.SendCommand("device-1", Command{Type: "reboot"})

	assert.False(t, delivered)
}

// TestBlockDeviceDeliversFrame 测试在线设备封禁指令送达
func TestBlockDeviceDeliversFrame(t *testing.T) {
	hub := CreateTestHub(t, nil)
	repo := newFakeDeviceRepository()
	repo.AddDevice(&models.Device{ID: "device-1", TenantID: "tenant-a", Status: models.DeviceStatusOnline})
	hub.SetDeviceRepository(repo)

	conn := CreateTestDeviceConn("conn-1", "device-1", "tenant-a", 8)
	hub.putDevice(conn)

	delivered := hub.BlockDevice("device-1", "违规内容，已下线")

	require.True(t, delivered)
	frame := ReceiveDeviceFrame(t, conn, 1*time.Second)
	assert.Equal(t, models.FrameBlockDevice, frame.Type)
	assert.Equal(t, "device-1", frame.DeviceID)
	assert.Equal(t, "违规内容，已下线", frame.Message)

	// 封禁状态与审计日志异步落库
	assert.True(t, Eventually(func() bool {
		return repo.GetStatus("device-1") == models.DeviceStatusBlocked &&
			repo.GetBlockMessage("device-1") == "违规内容，已下线"
	}, 2*time.Second, 20*time.Millisecond))
	assert.True(t, Eventually(func() bool {
		return repo.CountLogs("device-1", models.LogEventBlocked) == 1
	}, 2*time.Second, 20*time.Millisecond))
}

// TestBlockDevicePersistsWhenOffline 测试离线设备封禁照常落库
// 指令送不到（返回false），重连时由对账补发
func TestBlockDevicePersistsWhenOffline(t *testing.T) {
	hub := CreateTestHub(t, nil)
	repo := newFakeDeviceRepository()
	repo.AddDevice(&models.Device{ID: "device-1", TenantID: "tenant-a", Status: models.DeviceStatusOffline})
	hub.SetDeviceRepository(repo)

	delivered := hub.BlockDevice("device-1", "设备已被管理员封禁")

	assert.False(t, delivered)
	assert.True(t, Eventually(func() bool {
		return repo.GetStatus("device-1") == models.DeviceStatusBlocked
	}, 2*time.Second, 20*time.Millisecond))
}

// TestUnblockDeviceOnline 测试在线设备解封：送达指令且状态回写online
func TestUnblockDeviceOnline(t *testing.T) {
	hub := CreateTestHub(t, nil)
	repo := newFakeDeviceRepository()
	repo.AddDevice(&models.Device{ID: "device-1", TenantID: "tenant-a", Status: models.DeviceStatusBlocked, BlockMessage: "违规"})
	hub.SetDeviceRepository(repo)

	conn := CreateTestDeviceConn("conn-1", "device-1", "tenant-a", 8)
	hub.putDevice(conn)

	delivered := hub.UnblockDevice("device-1")

	require.True(t, delivered)
	frame := ReceiveDeviceFrame(t, conn, 1*time.Second)
	assert.Equal(t, models.FrameUnblockDevice, frame.Type)

	assert.True(t, Eventually(func() bool {
		return repo.GetStatus("device-1") == models.DeviceStatusOnline &&
			repo.GetBlockMessage("device-1") == ""
	}, 2*time.Second, 20*time.Millisecond))
	assert.True(t, Eventually(func() bool {
		return repo.CountLogs("device-1", models.LogEventUnblocked) == 1
	}, 2*time.Second, 20*time.Millisecond))
}

// TestUnblockDeviceOffline 测试离线设备解封：状态回写offline
func TestUnblockDeviceOffline(t *testing.T) {
	hub := CreateTestHub(t, nil)
	repo := newFakeDeviceRepository()
	repo.AddDevice(&models.Device{ID: "device-1", TenantID: "tenant-a", Status: models.DeviceStatusBlocked})
	hub.SetDeviceRepository(repo)

	delivered := hub.UnblockDevice("device-1")

	assert.False(t, delivered)
	assert.True(t, Eventually(func() bool {
		return repo.GetStatus("device-1") == models.DeviceStatusOffline
	}, 2*time.Second, 20*time.Millisecond))
}

// TestRefreshContentDelivered 测试内容刷新指令
func TestRefreshContentDelivered(t *testing.T) {
	hub := CreateTestHub(t, nil)
	conn := CreateTestDeviceConn("conn-1", "device-1", "tenant-a", 8)
	hub.putDevice(conn)

	assert.True(t, hub.RefreshContent("device-1"))
	assert.False(t, hub.RefreshContent("ghost-device"))
}

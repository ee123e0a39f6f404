/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-10 09:18:55
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-28 14:25:02
 * @FilePath: \go-dvh\exports_models.go
 * @Description: Models 包的类型和函数导出
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package dvh

import (
	"github.com/kamalyes/go-dvh/models"
)

// ============================================================================
// Models 类型导出
// ============================================================================

type (
	Device            = models.Device
	DeviceLog         = models.DeviceLog
	PlaybackLog       = models.PlaybackLog
	DeviceStatsRecord = models.DeviceStatsRecord
	ScreenshotRecord  = models.ScreenshotRecord
	DeviceConn        = models.DeviceConn
	ObserverConn      = models.ObserverConn
	DeviceStats       = models.DeviceStats
	Event             = models.Event
	Command           = models.Command
	CommandType       = models.CommandType
	InboundFrame      = models.InboundFrame
	DeviceFrame       = models.DeviceFrame
	ObserverFrame     = models.ObserverFrame
	FrameKind         = models.FrameKind
	DeviceStatus      = models.DeviceStatus
	LogEventType      = models.LogEventType
	SessionState      = models.SessionState
	DisconnectReason  = models.DisconnectReason
	ConnectionStatus  = models.ConnectionStatus
	IDGenerator       = models.IDGenerator
	ErrorType         = models.ErrorType
)

// ============================================================================
// 帧类型常量导出
// ============================================================================

const (
	FrameDeviceRegister   = models.FrameDeviceRegister
	FrameHeartbeat        = models.FrameHeartbeat
	FramePlaybackLog      = models.FramePlaybackLog
	FrameDeviceStatus     = models.FrameDeviceStatus
	FrameScreenshotResult = models.FrameScreenshotResult
	FrameAdminRegister    = models.FrameAdminRegister

	FrameConnected     = models.FrameConnected
	FrameRegistered    = models.FrameRegistered
	FrameError         = models.FrameError
	FrameHeartbeatAck  = models.FrameHeartbeatAck
	FrameContentUpdate = models.FrameContentUpdate
	FrameBlockDevice   = models.FrameBlockDevice
	FrameUnblockDevice = models.FrameUnblockDevice

	FrameDeviceOnline       = models.FrameDeviceOnline
	FrameDeviceOffline      = models.FrameDeviceOffline
	FrameDeviceRegistered   = models.FrameDeviceRegistered
	FrameDeviceStatusUpdate = models.FrameDeviceStatusUpdate
	FramePlaybackUpdate     = models.FramePlaybackUpdate
	FrameScreenshotReady    = models.FrameScreenshotReady
)

// 设备状态常量导出
const (
	DeviceStatusOnline  = models.DeviceStatusOnline
	DeviceStatusOffline = models.DeviceStatusOffline
	DeviceStatusBlocked = models.DeviceStatusBlocked
)

// 指令类型常量导出
const (
	CommandBlock          = models.CommandBlock
	CommandUnblock        = models.CommandUnblock
	CommandRefreshContent = models.CommandRefreshContent
)

// ============================================================================
// Models 函数导出
// ============================================================================

var (
	DecodeInboundFrame = models.DecodeInboundFrame
	EncodeInboundFrame = models.EncodeInboundFrame
	DecodeDeviceFrame  = models.DecodeDeviceFrame

	NewDeviceOnlineEvent       = models.NewDeviceOnlineEvent
	NewDeviceOfflineEvent      = models.NewDeviceOfflineEvent
	NewDeviceRegisteredEvent   = models.NewDeviceRegisteredEvent
	NewDeviceStatusUpdateEvent = models.NewDeviceStatusUpdateEvent
	NewPlaybackUpdateEvent     = models.NewPlaybackUpdateEvent
	NewScreenshotReadyEvent    = models.NewScreenshotReadyEvent

	NewBlockCommand          = models.NewBlockCommand
	NewUnblockCommand        = models.NewUnblockCommand
	NewRefreshContentCommand = models.NewRefreshContentCommand

	IsRetryableError      = models.IsRetryableError
	IsDeviceNotFoundError = models.IsDeviceNotFoundError
	IsSendFailureError    = models.IsSendFailureError
)

// 错误导出
var (
	ErrDeviceIDMissing   = models.ErrDeviceIDMissing
	ErrObserverIDMissing = models.ErrObserverIDMissing
	ErrInvalidFrame      = models.ErrInvalidFrame
	ErrConnClosed        = models.ErrConnClosed
	ErrSendChannelFull   = models.ErrSendChannelFull
	ErrHubNotRunning     = models.ErrHubNotRunning
)

/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-04-29 15:10:26
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-29 19:55:41
 * @FilePath: \go-dvh\models\frame_test.go
 * @Description: 线上帧协议测试 - 信封解析、camelCase字段、构造器
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecodeInboundFrameRegister 测试设备注册帧解析
func TestDecodeInboundFrameRegister(t *testing.T) {
	data := []byte(`{"type":"DEVICE_REGISTER","deviceId":"screen-01","tenantId":"tenant-a","token":"secret"}`)

	frame, err := DecodeInboundFrame(data)

	require.NoError(t, err)
	assert.Equal(t, FrameDeviceRegister, frame.Type)
	assert.Equal(t, "screen-01", frame.DeviceID)
	assert.Equal(t, "tenant-a", frame.TenantID)
	assert.Equal(t, "secret", frame.Token)
}

// TestDecodeInboundFramePlaybackLog 测试播放日志帧解析
func TestDecodeInboundFramePlaybackLog(t *testing.T) {
	data := []byte(`{"type":"PLAYBACK_LOG","deviceId":"screen-01","contentId":"content-1","campaignId":"campaign-1","duration":15000,"startTime":"2026-04-29T10:00:00Z"}`)

	frame, err := DecodeInboundFrame(data)

	require.NoError(t, err)
	assert.Equal(t, FramePlaybackLog, frame.Type)
	assert.Equal(t, "content-1", frame.ContentID)
	assert.Equal(t, "campaign-1", frame.CampaignID)
	assert.Equal(t, int64(15000), frame.Duration)
	require.NotNil(t, frame.StartTime)
	assert.Nil(t, frame.EndTime)
}

// TestDecodeInboundFrameStats 测试硬件指标帧解析
func TestDecodeInboundFrameStats(t *testing.T) {
	data := []byte(`{"type":"DEVICE_STATUS","deviceId":"screen-01","status":"online","stats":{"cpu":23.5,"memory":41.2,"storage":67.8,"temperature":45}}`)

	frame, err := DecodeInboundFrame(data)

	require.NoError(t, err)
	require.NotNil(t, frame.Stats)
	assert.Equal(t, 23.5, frame.Stats.CPU)
	assert.Equal(t, 45.0, frame.Stats.Temperature)
	assert.Equal(t, "online", frame.Status)
}

// TestDecodeInboundFrameInvalid 测试畸形帧返回ErrInvalidFrame
func TestDecodeInboundFrameInvalid(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"非法JSON", []byte("{not-json")},
		{"缺失type", []byte(`{"deviceId":"screen-01"}`)},
		{"空type", []byte(`{"type":""}`)},
		{"空payload", []byte(``)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := DecodeInboundFrame(tc.data)
			assert.Nil(t, frame)
			assert.ErrorIs(t, err, ErrInvalidFrame)
		})
	}
}

// TestDecodeInboundFrameUnknownKindPasses 测试未知type字段不在解析层拦截
// 路由层负责丢弃未知帧，信封解析只校验格式
func TestDecodeInboundFrameUnknownKindPasses(t *testing.T) {
	frame, err := DecodeInboundFrame([]byte(`{"type":"FUTURE_KIND"}`))
	require.NoError(t, err)
	assert.Equal(t, FrameKind("FUTURE_KIND"), frame.Type)
}

// TestEncodeInboundFrameRoundTrip 测试入站帧编码使用camelCase且省略零值
func TestEncodeInboundFrameRoundTrip(t *testing.T) {
	data, err := EncodeInboundFrame(&InboundFrame{
		Type:     FrameDeviceRegister,
		DeviceID: "screen-01",
		TenantID: "tenant-a",
	})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "DEVICE_REGISTER", raw["type"])
	assert.Equal(t, "screen-01", raw["deviceId"])
	assert.NotContains(t, raw, "token")
	assert.NotContains(t, raw, "contentId")
	assert.NotContains(t, raw, "stats")
}

// TestDeviceFrameEncode 测试设备出站帧编码
func TestDeviceFrameEncode(t *testing.T) {
	data, err := NewErrorFrame("device not registered").Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ERROR","message":"device not registered"}`, string(data))

	data, err = NewRegisteredFrame("screen-01").Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"REGISTERED","deviceId":"screen-01"}`, string(data))

	data, err = NewConnectedFrame().Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"CONNECTED"}`, string(data))

	data, err = NewHeartbeatAckFrame("screen-01").Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"HEARTBEAT_ACK","deviceId":"screen-01"}`, string(data))
}

// TestDecodeDeviceFrame 测试终端侧解析设备出站帧
func TestDecodeDeviceFrame(t *testing.T) {
	frame, err := DecodeDeviceFrame([]byte(`{"type":"BLOCK_DEVICE","deviceId":"screen-01","message":"违规内容"}`))
	require.NoError(t, err)
	assert.Equal(t, FrameBlockDevice, frame.Type)
	assert.Equal(t, "违规内容", frame.Message)

	_, err = DecodeDeviceFrame([]byte(`{"deviceId":"screen-01"}`))
	assert.ErrorIs(t, err, ErrInvalidFrame)

	_, err = DecodeDeviceFrame([]byte("garbage"))
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

// TestObserverRegisteredFrame 测试观察者注册回执
func TestObserverRegisteredFrame(t *testing.T) {
	frame := NewObserverRegisteredFrame("admin-1")
	assert.Equal(t, FrameRegistered, frame.Type)
	assert.Equal(t, "admin-1", frame.UserID)
	assert.False(t, frame.Timestamp.IsZero())

	data, err := frame.Encode()
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "admin-1", raw["userId"])
	assert.Contains(t, raw, "timestamp")
}

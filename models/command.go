/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 15:40:09
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-02 17:26:55
 * @FilePath: \go-dvh\models\command.go
 * @Description: 设备下行指令定义
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package models

// CommandType 指令类型
type CommandType string

const (
	CommandBlock          CommandType = "block"           // 封禁设备
	CommandUnblock        CommandType = "unblock"         // 解封设备
	CommandRefreshContent CommandType = "refresh_content" // 刷新播放内容
)

// String 实现Stringer接口
func (t CommandType) String() string {
	return string(t)
}

// Command 设备下行指令
// 指令是即发即弃的：设备不在线直接丢弃，不排队不重试
type Command struct {
	Type    CommandType `json:"type"`              // 指令类型
	Message string      `json:"message,omitempty"` // 附带信息（封禁提示语）
}

// NewBlockCommand 构造封禁指令
func NewBlockCommand(message string) Command {
	return Command{Type: CommandBlock, Message: message}
}

// NewUnblockCommand 构造解封指令
func NewUnblockCommand() Command {
	return Command{Type: CommandUnblock}
}

// NewRefreshContentCommand 构造内容刷新指令
func NewRefreshContentCommand() Command {
	return Command{Type: CommandRefreshContent}
}

// ToFrame 转换为设备出站帧
func (c Command) ToFrame(deviceID string) *DeviceFrame {
	switch c.Type {
	case CommandBlock:
		return &DeviceFrame{Type: FrameBlockDevice, DeviceID: deviceID, Message: c.Message}
	case CommandUnblock:
		return &DeviceFrame{Type: FrameUnblockDevice, DeviceID: deviceID}
	case CommandRefreshContent:
		return &DeviceFrame{Type: FrameContentUpdate, DeviceID: deviceID, Action: "refresh"}
	default:
		return nil
	}
}

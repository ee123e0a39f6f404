/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-10 09:42:03
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-28 14:33:10
 * @FilePath: \go-dvh\exports_middleware.go
 * @Description: Middleware 包的类型和函数导出
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package dvh

import (
	"github.com/kamalyes/go-dvh/middleware"
)

// ============================================================================
// Middleware 类型导出
// ============================================================================

type (
	DVHLogger = middleware.DVHLogger
)

// ============================================================================
// Middleware 函数导出
// ============================================================================

var (
	NewDVHLogger        = middleware.NewDVHLogger
	NewDefaultDVHLogger = middleware.NewDefaultDVHLogger
	NewNoOpLogger       = middleware.NewNoOpLogger
	SetDefaultLogger    = middleware.SetDefaultLogger
	InitLogger          = middleware.InitLogger
)

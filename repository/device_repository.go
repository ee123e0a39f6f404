/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-03 09:40:18
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-18 10:07:56
 * @FilePath: \go-dvh\repository\device_repository.go
 * @Description: 设备档案与上报数据仓库 - GORM 实现
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kamalyes/go-dvh/models"
	"github.com/kamalyes/go-logger"
	"github.com/kamalyes/go-toolbox/pkg/errorx"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DeviceRepository 设备仓库接口
// 枢纽只依赖这几个操作：注册门禁读档案，其余全是尽力而为的投影写入
type DeviceRepository interface {
	// ========== 档案读取（注册门禁） ==========

	// FindByID 根据设备ID获取设备档案
	// 设备未登记返回 ErrTypeDeviceNotFound
	FindByID(ctx context.Context, deviceID string) (*models.Device, error)

	// ========== 状态投影写入 ==========

	// SetStatus 更新设备状态投影
	// 封禁状态由CRUD后台写入，枢纽只在 online/offline 间切换且不覆盖 blocked
	SetStatus(ctx context.Context, deviceID string, status models.DeviceStatus) error

	// TouchLastSeen 更新设备最后活跃时间
	TouchLastSeen(ctx context.Context, deviceID string, t time.Time) error

	// UpdateBlockState 写入封禁/解封状态与提示语（管理动作，允许覆盖任何状态）
	UpdateBlockState(ctx context.Context, deviceID string, status models.DeviceStatus, message string) error

	// ========== 审计与上报落库 ==========

	// AppendLog 追加设备在离线日志
	AppendLog(ctx context.Context, deviceID string, event models.LogEventType, message string) error

	// UpsertStats 覆盖写入设备硬件指标快照
	UpsertStats(ctx context.Context, record *models.DeviceStatsRecord) error

	// InsertPlayback 插入播放完成日志
	InsertPlayback(ctx context.Context, record *models.PlaybackLog) error

	// InsertScreenshot 插入截图记录
	InsertScreenshot(ctx context.Context, record *models.ScreenshotRecord) error

	// ========== 查询操作 ==========

	// ListPlayback 查询设备播放日志（按开始时间倒序）
	ListPlayback(ctx context.Context, deviceID string, limit int) ([]*models.PlaybackLog, error)

	// LatestScreenshot 获取设备最近一次截图
	LatestScreenshot(ctx context.Context, deviceID string) (*models.ScreenshotRecord, error)
}

// gormDeviceRepository 设备仓库 GORM 实现
type gormDeviceRepository struct {
	db     *gorm.DB
	logger logger.ILogger
}

// NewDeviceRepository 创建设备仓库实例
//
// 参数:
//   - db: GORM 数据库实例
//   - log: 日志记录器
func NewDeviceRepository(db *gorm.DB, log logger.ILogger) DeviceRepository {
	return &gormDeviceRepository{
		db:     db,
		logger: log,
	}
}

// FindByID 根据设备ID获取设备档案
func (r *gormDeviceRepository) FindByID(ctx context.Context, deviceID string) (*models.Device, error) {
	var device models.Device
	err := r.db.WithContext(ctx).
		Where(models.QueryDeviceIDWhere, deviceID).
		First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.NewError(models.ErrTypeDeviceNotFound, deviceID)
		}
		return nil, errorx.WrapError("failed to query device", err)
	}
	return &device, nil
}

// SetStatus 更新设备状态投影
// blocked 是管理动作写入的状态，在离线切换不得覆盖它
func (r *gormDeviceRepository) SetStatus(ctx context.Context, deviceID string, status models.DeviceStatus) error {
	query := r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where(models.QueryDeviceIDWhere, deviceID)

	if status == models.DeviceStatusOnline || status == models.DeviceStatusOffline {
		query = query.Where("status <> ?", models.DeviceStatusBlocked)
	}

	return query.Update("status", status).Error
}

// TouchLastSeen 更新设备最后活跃时间
func (r *gormDeviceRepository) TouchLastSeen(ctx context.Context, deviceID string, t time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where(models.QueryDeviceIDWhere, deviceID).
		Update("last_seen_at", t).Error
}

// UpdateBlockState 写入封禁/解封状态与提示语
// 管理动作无条件覆盖，不受 SetStatus 的 blocked 保护约束
func (r *gormDeviceRepository) UpdateBlockState(ctx context.Context, deviceID string, status models.DeviceStatus, message string) error {
	return r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where(models.QueryDeviceIDWhere, deviceID).
		Updates(map[string]interface{}{
			"status":        status,
			"block_message": message,
		}).Error
}

// AppendLog 追加设备在离线日志
func (r *gormDeviceRepository) AppendLog(ctx context.Context, deviceID string, event models.LogEventType, message string) error {
	log := &models.DeviceLog{
		DeviceID:  deviceID,
		EventType: event,
		Message:   message,
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// UpsertStats 覆盖写入设备硬件指标快照（主键冲突即更新）
func (r *gormDeviceRepository) UpsertStats(ctx context.Context, record *models.DeviceStatsRecord) error {
	record.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(record).Error
}

// InsertPlayback 插入播放完成日志
func (r *gormDeviceRepository) InsertPlayback(ctx context.Context, record *models.PlaybackLog) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// InsertScreenshot 插入截图记录
func (r *gormDeviceRepository) InsertScreenshot(ctx context.Context, record *models.ScreenshotRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ListPlayback 查询设备播放日志
func (r *gormDeviceRepository) ListPlayback(ctx context.Context, deviceID string, limit int) ([]*models.PlaybackLog, error) {
	var logs []*models.PlaybackLog
	err := r.db.WithContext(ctx).
		Where(models.QueryDeviceIDWhere, deviceID).
		Order(models.OrderByStartTimeDesc).
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// LatestScreenshot 获取设备最近一次截图
func (r *gormDeviceRepository) LatestScreenshot(ctx context.Context, deviceID string) (*models.ScreenshotRecord, error) {
	var record models.ScreenshotRecord
	err := r.db.WithContext(ctx).
		Where(models.QueryDeviceIDWhere, deviceID).
		Order(models.OrderByCreatedAtDesc).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ============================================================================
// 数据库连接辅助
// ============================================================================

// OpenMySQL 打开 MySQL 数据库连接
func OpenMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, errorx.WrapError("failed to open mysql", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errorx.WrapError("failed to get sql.DB", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// AutoMigrate 迁移设备相关数据表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Device{},
		&models.DeviceLog{},
		&models.PlaybackLog{},
		&models.DeviceStatsRecord{},
		&models.ScreenshotRecord{},
	)
}

package database

import (
	"fmt"

	"sisgeagro/config"
	"sisgeagro/logger"
	"sisgeagro/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 初始化数据库连接
func Init(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
	)

	logLevel := gormlogger.Info
	if cfg.Server.Mode == "release" {
		logLevel = gormlogger.Warn
	}

	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(logLevel),
		TranslateError:         true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	if err := Migrate(DB); err != nil {
		return err
	}
	if err := Seed(DB, cfg); err != nil {
		return err
	}

	logger.Log.Info().Msg("数据库初始化成功")
	return nil
}

// Migrate 自动迁移数据库表
// 模型之间不声明关联，AutoMigrate 不会创建外键，级联删除由业务层按顺序完成
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Entity{},
		&models.Category{},
		&models.Subcategory{},
		&models.PaymentMethod{},
		&models.Bill{},
		&models.Operation{},
		&models.Movement{},
		&models.TaxDefinition{},
		&models.MovementTax{},
		&models.Notification{},
	)
}

// Seed 写入初始数据（仅当表为空时）
func Seed(db *gorm.DB, cfg *config.Config) error {
	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	if userCount == 0 && cfg.Admin.Username != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("生成管理员密码失败: %w", err)
		}
		admin := models.User{
			Username:           cfg.Admin.Username,
			Password:           string(hash),
			Email:              cfg.Admin.Email,
			EmailNotifications: cfg.Admin.Email != "",
			ExpenseThreshold:   cfg.Admin.ExpenseThreshold,
		}
		if err := db.Create(&admin).Error; err != nil {
			return fmt.Errorf("创建管理员失败: %w", err)
		}
		logger.Log.Info().Str("username", admin.Username).Msg("已创建初始管理员")
	}

	var taxCount int64
	db.Model(&models.TaxDefinition{}).Count(&taxCount)
	if taxCount == 0 {
		if err := db.Create(DefaultTaxes()).Error; err != nil {
			return fmt.Errorf("初始化默认税种失败: %w", err)
		}
	}
	return nil
}

// DefaultTaxes 默认税种
func DefaultTaxes() []models.TaxDefinition {
	pct := func(v float64) *float64 { return &v }
	return []models.TaxDefinition{
		{Name: "IVA 21%", Percentage: pct(21)},
		{Name: "IVA 10.5%", Percentage: pct(10.5)},
		{Name: "Ganancias", Percentage: pct(2)},
		{Name: "Ingresos Brutos"},
	}
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}

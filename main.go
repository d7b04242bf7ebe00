package main

import (
	"flag"
	"fmt"
	"strings"

	"sisgeagro/config"
	"sisgeagro/database"
	"sisgeagro/logger"
	"sisgeagro/middleware"
	"sisgeagro/router"
)

// @title SisGeAgro API
// @version 1.0
// @description 农业经营收支登记系统 API：收支录入、CSV 批量导入、往来单位、类别与税种管理、统计看板和 Excel 导出
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const version = "1.0.0"

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 8080 或 :8080")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("sisgeagro v%s\n", version)
		return
	}

	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("加载配置失败")
	}
	logger.Init(cfg.Server.Mode)

	// 命令行参数覆盖端口配置
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
		logger.Log.Info().Str("port", port).Msg("命令行指定端口")
	}

	config.PrintConfig()

	if err := database.Init(cfg); err != nil {
		logger.Log.Fatal().Err(err).Msg("数据库初始化失败")
	}

	middleware.InitJWT(cfg)

	r := router.SetupRouter(cfg)

	logger.Log.Info().
		Str("version", version).
		Str("api", fmt.Sprintf("http://localhost%s/api/v1/", cfg.Server.Port)).
		Str("swagger", fmt.Sprintf("http://localhost%s/swagger/index.html", cfg.Server.Port)).
		Msg("SisGeAgro iniciado")

	if err := r.Run(cfg.Server.Port); err != nil {
		logger.Log.Fatal().Err(err).Msg("服务器启动失败")
	}
}

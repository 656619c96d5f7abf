package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
// 进程级配置：连接地址、数据源、交易日历。运行时可变的监控参数存放在数据库配置表
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Database struct {
		Postgres struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			DBName   string `yaml:"dbname"`
			SSLMode  string `yaml:"sslmode"`
		} `yaml:"postgres"`
	} `yaml:"database"`

	NATS struct {
		URL      string `yaml:"url"` // 留空则不启用告警事件广播
		ClientID string `yaml:"client_id"`
	} `yaml:"nats"`

	Provider struct {
		QuoteBaseURL   string `yaml:"quote_base_url"`
		LimitPageURL   string `yaml:"limit_page_url"`
		NavAPIURL      string `yaml:"nav_api_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"provider"`

	Calendar struct {
		Holidays []string `yaml:"holidays"` // YYYY-MM-DD，北京时间
	} `yaml:"calendar"`

	API struct {
		Port string `yaml:"port"`
	} `yaml:"api"`
}

// DSN 拼接 Postgres 连接串
func (c *Config) DSN() string {
	pg := c.Database.Postgres
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		pg.Host, pg.Port, pg.User, pg.Password, pg.DBName, pg.SSLMode)
}

// LoadConfig 从文件加载配置
func LoadConfig(path string) (*Config, error) {
	// 读取配置文件
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析YAML
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 环境变量覆盖
	overrideFromEnv(&config)

	applyDefaults(&config)

	return &config, nil
}

// overrideFromEnv 使用环境变量覆盖配置
func overrideFromEnv(config *Config) {
	if env := os.Getenv("APP_NAME"); env != "" {
		config.App.Name = env
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		config.App.Env = env
	}
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		config.Log.Level = env
	}

	// 数据库配置
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Database.Postgres.Host = env
	}
	if env := os.Getenv("DB_PORT"); env != "" {
		var port int
		fmt.Sscanf(env, "%d", &port)
		if port > 0 {
			config.Database.Postgres.Port = port
		}
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.Database.Postgres.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Database.Postgres.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Database.Postgres.DBName = env
	}

	// NATS配置
	if env := os.Getenv("NATS_URL"); env != "" {
		config.NATS.URL = env
	}
	if env := os.Getenv("NATS_CLIENT_ID"); env != "" {
		config.NATS.ClientID = env
	}

	// API配置
	if env := os.Getenv("API_PORT"); env != "" {
		config.API.Port = env
	}
}

func applyDefaults(config *Config) {
	if config.API.Port == "" {
		config.API.Port = "8000"
	}
	if config.Provider.QuoteBaseURL == "" {
		config.Provider.QuoteBaseURL = "https://push2.eastmoney.com/api/qt/ulist.np/get"
	}
	if config.Provider.LimitPageURL == "" {
		config.Provider.LimitPageURL = "https://fundf10.eastmoney.com/jjfl_%s.html"
	}
	if config.Provider.NavAPIURL == "" {
		config.Provider.NavAPIURL = "https://fundmobapi.eastmoney.com/FundMApi/FundNetValue.ashx"
	}
	if config.Provider.TimeoutSeconds <= 0 {
		config.Provider.TimeoutSeconds = 10
	}
	if config.Database.Postgres.SSLMode == "" {
		config.Database.Postgres.SSLMode = "disable"
	}
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev" // 默认开发环境
	}

	return fmt.Sprintf("configs/%s/app.yaml", env)
}

// logging.go

package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Setup 根据配置初始化全局日志
func Setup(level string, debug bool) {
	logrus.SetOutput(os.Stdout)

	if debug {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithField("level", level).Warn("未知的日志级别，使用 info")
		lvl = logrus.InfoLevel
	}
	if debug && lvl < logrus.DebugLevel {
		lvl = logrus.DebugLevel
	}
	logrus.SetLevel(lvl)
}

// Component 返回带组件名字段的日志入口
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}

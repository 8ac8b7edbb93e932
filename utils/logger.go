package utils

import (
	"io"
	"os"
	"time"

	charmLog "github.com/charmbracelet/log"
)

// logger はパッケージ全体で共有するロガーです
var logger = newLogger(os.Stderr, charmLog.InfoLevel)

func newLogger(w io.Writer, level charmLog.Level) *charmLog.Logger {
	return charmLog.NewWithOptions(w, charmLog.Options{
		Level:           level,
		Prefix:          "smartsheet2jira",
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Formatter:       charmLog.TextFormatter,
	})
}

// Logger は構造化ログ用のロガーを返します
func Logger() *charmLog.Logger {
	return logger
}

// SetOutput はログの出力先を変更します
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// SetLevel はログレベルを文字列で設定します (debug, info, warn, error)
func SetLevel(level string) error {
	lvl, err := charmLog.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)
	return nil
}

// LogDebug はデバッグレベルのメッセージをログに記録します
func LogDebug(format string, v ...interface{}) {
	logger.Debugf(format, v...)
}

// LogInfo は情報レベルのメッセージをログに記録します
func LogInfo(format string, v ...interface{}) {
	logger.Infof(format, v...)
}

// LogWarn は警告レベルのメッセージをログに記録します
func LogWarn(format string, v ...interface{}) {
	logger.Warnf(format, v...)
}

// LogError はエラーレベルのメッセージをログに記録します
func LogError(format string, v ...interface{}) {
	logger.Errorf(format, v...)
}

// TrackTime は関数の実行時間を計測して出力するユーティリティです
func TrackTime(start time.Time, name string) {
	elapsed := time.Since(start)
	LogInfo("%s 完了時間: %s", name, elapsed)
}

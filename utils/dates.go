package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout はJIRAのリリース日とレポートで使う日付フォーマットです
const DateLayout = "2006-01-02"

// 受け付ける日付フォーマット (Smartsheet の DATE / ABSTRACT_DATETIME 列、JIRA の releaseDate)
var dateFormats = []string{
	DateLayout,
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
}

// ParseDate は日付文字列を解析し、記載された暦日の UTC 0時に切り詰めます
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	for _, format := range dateFormats {
		t, err := time.Parse(format, dateStr)
		if err == nil {
			return TruncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("日付を解析できません: '%s'", dateStr)
}

// TruncateDay は時刻を捨て、同じ暦日の UTC 0時を返します
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay は2つの日付が同じ暦日かどうかを返します (両方 nil の場合も true)
func SameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return TruncateDay(*a).Equal(TruncateDay(*b))
}

// FormatDate は日付を文字列にします。nil の場合は "-" を返します
func FormatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(DateLayout)
}

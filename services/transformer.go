package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"smartsheet2jira/models"
)

var (
	// ErrInvalidPattern はタスク名パターンが正規表現として不正な場合のエラーです
	ErrInvalidPattern = errors.New("invalid task pattern")
	// ErrFormatMismatch はフォーマットが不正、またはプレースホルダ数がキャプチャグループ数を超える場合のエラーです
	ErrFormatMismatch = errors.New("fix version format does not match task pattern")
)

// CompiledRule はコンパイル済みの変換ルールです
type CompiledRule struct {
	Rule     models.TransformRule
	pattern  *regexp.Regexp
	format   string // Go の fmt 形式に正規化したフォーマット
	argCount int    // フォーマットが消費するグループ数
}

// CompileRule はルールのパターンをタスク名全体に一致するようにコンパイルし、フォーマットを検証します
func CompileRule(rule models.TransformRule) (*CompiledRule, error) {
	pattern, err := regexp.Compile(`^(?:` + rule.TaskPattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("%w: シート %s: %v", ErrInvalidPattern, rule.SheetName, err)
	}

	format, argCount, err := normalizeFormat(rule.FixVersionFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: シート %s: %v", ErrFormatMismatch, rule.SheetName, err)
	}
	if argCount > pattern.NumSubexp() {
		return nil, fmt.Errorf("%w: シート %s: フォーマット %q は %d 個の値を必要としますが、パターンのグループは %d 個です",
			ErrFormatMismatch, rule.SheetName, rule.FixVersionFormat, argCount, pattern.NumSubexp())
	}

	return &CompiledRule{
		Rule:     rule,
		pattern:  pattern,
		format:   format,
		argCount: argCount,
	}, nil
}

// CompileRules はルール一覧をまとめてコンパイルします
func CompileRules(rules []models.TransformRule) ([]*CompiledRule, error) {
	compiled := make([]*CompiledRule, 0, len(rules))
	for _, rule := range rules {
		c, err := CompileRule(rule)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, c)
	}
	return compiled, nil
}

// Derive はタスク名からバージョンキーを生成します。
// タスク名全体がパターンに一致しない場合は ok=false を返します。
// フォーマットが必要とする数だけグループを使い、余ったグループは無視します。
func (r *CompiledRule) Derive(taskName string) (key string, groups []string, ok bool) {
	m := r.pattern.FindStringSubmatch(taskName)
	if m == nil {
		return "", nil, false
	}

	groups = m[1:]
	args := make([]interface{}, r.argCount)
	for i := range args {
		args[i] = groups[i]
	}

	return fmt.Sprintf(r.format, args...), groups, true
}

// normalizeFormat はフォーマット文字列を走査し、必要な引数の数を数えます。
// 出力ではすべてのプレースホルダに Go 形式の位置指定 (%[n]s) を付けます。
// Java 形式の位置指定 (%2$s) は通常の %s の順番を進めませんが、
// Go 形式の位置指定 (%[2]s) は以降の %s を 3 番目から数えます。
// 値は常に文字列なので、変換指定子は s と v のみ受け付けます。
func normalizeFormat(format string) (string, int, error) {
	var out strings.Builder
	ordinal, last, maxArg := 0, 0, 0

	for i := 0; i < len(format); i++ {
		c := format[i]
		out.WriteByte(c)
		if c != '%' {
			continue
		}

		i++
		if i >= len(format) {
			return "", 0, fmt.Errorf("フォーマット末尾に %% があります")
		}
		if format[i] == '%' {
			out.WriteByte('%')
			continue
		}

		arg := 0
		explicit := false

		// Java 形式の位置指定: %<n>$ と直前の値の再利用 %<
		if j := scanDigits(format, i); j > i && j < len(format) && format[j] == '$' {
			n, _ := strconv.Atoi(format[i:j])
			if n < 1 {
				return "", 0, fmt.Errorf("不正な位置指定 %q", format[i:j+1])
			}
			arg, explicit = n, true
			i = j + 1
		} else if format[i] == '<' {
			if last == 0 {
				return "", 0, fmt.Errorf("%%< の前に値を使うプレースホルダがありません")
			}
			arg, explicit = last, true
			i++
		}

		// フラグ
		flagsStart := i
		for i < len(format) && strings.IndexByte("+-# 0", format[i]) >= 0 {
			i++
		}
		flags := format[flagsStart:i]

		// Go 形式の位置指定: %[n] (幅の前または変換指定子の直前)
		goIndex := func() error {
			if i >= len(format) || format[i] != '[' {
				return nil
			}
			end := strings.IndexByte(format[i:], ']')
			if end < 0 {
				return fmt.Errorf("閉じていない位置指定")
			}
			n, err := strconv.Atoi(format[i+1 : i+end])
			if err != nil || n < 1 || explicit {
				return fmt.Errorf("不正な位置指定 %q", format[i:i+end+1])
			}
			arg, explicit = n, true
			ordinal = n
			i += end + 1
			return nil
		}
		if err := goIndex(); err != nil {
			return "", 0, err
		}

		// 幅と精度
		j := scanDigits(format, i)
		if j < len(format) && format[j] == '.' {
			j = scanDigits(format, j+1)
		}
		width := format[i:j]
		i = j

		if err := goIndex(); err != nil {
			return "", 0, err
		}

		if i >= len(format) {
			return "", 0, fmt.Errorf("フォーマット末尾に変換指定子がありません")
		}
		verb := format[i]
		if verb != 's' && verb != 'v' {
			return "", 0, fmt.Errorf("変換指定子 %q は使用できません (s または v のみ)", verb)
		}

		if !explicit {
			ordinal++
			arg = ordinal
		}
		last = arg
		if arg > maxArg {
			maxArg = arg
		}

		fmt.Fprintf(&out, "%s%s[%d]%c", flags, width, arg, verb)
	}

	return out.String(), maxArg, nil
}

// scanDigits は format[i:] 先頭の数字の終端位置を返します
func scanDigits(format string, i int) int {
	for i < len(format) && format[i] >= '0' && format[i] <= '9' {
		i++
	}
	return i
}

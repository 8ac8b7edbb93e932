package services

// ProcessedSet は1回の実行で処理済みのタスク名を記録します
type ProcessedSet struct {
	names map[string]struct{}
}

// NewProcessedSet は空の処理済みセットを作成します
func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{names: make(map[string]struct{})}
}

// ShouldProcess はタスク名が未処理であれば true を返します
func (p *ProcessedSet) ShouldProcess(taskName string) bool {
	_, seen := p.names[taskName]
	return !seen
}

// MarkProcessed はタスク名を処理済みにします
func (p *ProcessedSet) MarkProcessed(taskName string) {
	p.names[taskName] = struct{}{}
}

// Len は処理済みのタスク数を返します
func (p *ProcessedSet) Len() int {
	return len(p.names)
}

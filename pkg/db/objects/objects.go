package objects

// All 需要迁移的全部模型，顺序即建表顺序
func All() []any {
	return []any{
		&Industry{},
		&Location{},
		&BlogPost{},
		&SysJobLog{},
	}
}

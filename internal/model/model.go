package model

// All lists every model managed by AutoMigrate, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Job{},
		&Resume{},
		&Application{},
		&JobEmbedding{},
		&ResumeEmbedding{},
		&JobResumeInsight{},
		&Notification{},
	}
}

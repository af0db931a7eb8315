package models

// SessionFilter represents filter parameters for listing sessions
type SessionFilter struct {
	UserID   string `form:"userId"`
	Status   string `form:"status"` // recording, completed
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// AggregateFilter restricts which sessions feed the cross-session views
type AggregateFilter struct {
	UserID string `form:"userId"`
	Status string `form:"status"`
}

// TaskFilter represents filter parameters for listing analysis tasks
type TaskFilter struct {
	SkillName string `form:"skill_name"`
	Status    string `form:"status"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

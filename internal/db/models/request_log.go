package models

// RequestLog stores one intercepted request for diagnosis of routing
// decisions: which provider schema it spoke, which mode served it, and how
// it ended.
type RequestLog struct {
	ID        string `gorm:"primaryKey" json:"id"`
	Timestamp int64  `gorm:"index" json:"timestamp"`
	Method    string `json:"method"`
	Host      string `json:"host"`
	Path      string `json:"path"`
	Provider  string `gorm:"index" json:"provider,omitempty"`
	Mode      string `gorm:"index" json:"mode,omitempty"`
	Model     string `json:"model,omitempty"`
	Status    int    `json:"status"`
	Duration  int64  `json:"duration"` // milliseconds
	Error     string `json:"error,omitempty"`
}

package domain

import "time"

// MessageLogEntry 消息日志领域模型（对应 message_logs 表）
// 只追加，写入后不可变；contact_id 必须指向已存在的联系人
type MessageLogEntry struct {
	// 主键
	ID string `json:"id" db:"id"` // VARCHAR(21), PRIMARY KEY

	ContactID string    `json:"contact_id" db:"contact_id"` // VARCHAR(21), NOT NULL
	Timestamp time.Time `json:"timestamp" db:"ts"`          // TIMESTAMPTZ, NOT NULL

	MessageIn  string  `json:"message_in" db:"message_in"`   // TEXT, NOT NULL
	MessageOut *string `json:"message_out" db:"message_out"` // TEXT, nullable
}

// ConsentExportRow 联系人+同意状态导出行（contacts LEFT JOIN user_preferences）
type ConsentExportRow struct {
	ContactID      string     `json:"contact_id"`
	PhoneNumber    string     `json:"phone_number"`
	CreatedAt      time.Time  `json:"created_at"`
	HasPreference  bool       `json:"has_preference"`
	State          string     `json:"state"`
	IntroSentToday bool       `json:"intro_sent_today"`
	OptedInAt      *time.Time `json:"opted_in_at"`
	OptedOutAt     *time.Time `json:"opted_out_at"`
}

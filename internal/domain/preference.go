package domain

import "time"

// 偏好状态（由 has_opted_in / awaiting_optin 两个布尔推导）
const (
	StateAwaiting = "AWAITING"
	StateOptedIn  = "OPTED_IN"
	StateOptedOut = "OPTED_OUT"
)

// Preference 用户偏好领域模型（对应 user_preferences 表）
// 每个联系人至多一行（UNIQUE(contact_id)），只通过定义的转移操作修改
type Preference struct {
	// 主键
	ID string `json:"id" db:"id"` // VARCHAR(21), PRIMARY KEY

	// 联系人（UNIQUE）
	ContactID string `json:"contact_id" db:"contact_id"` // VARCHAR(21), NOT NULL, UNIQUE

	// 同意状态（两者不会同时为 true）
	HasOptedIn    bool `json:"has_opted_in" db:"has_opted_in"`       // BOOLEAN, NOT NULL, DEFAULT FALSE
	AwaitingOptin bool `json:"awaiting_optin" db:"awaiting_optin"` // BOOLEAN, NOT NULL, DEFAULT TRUE

	// 每日标记，批量重置清除
	IntroSentToday bool `json:"intro_sent_today" db:"intro_sent_today"` // BOOLEAN, NOT NULL, DEFAULT FALSE

	// 转移时间戳（只设置，不清除）
	OptedInAt  *time.Time `json:"opted_in_at" db:"opted_in_at"`   // TIMESTAMPTZ, nullable
	OptedOutAt *time.Time `json:"opted_out_at" db:"opted_out_at"` // TIMESTAMPTZ, nullable

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // TIMESTAMPTZ, NOT NULL
}

// State 返回当前偏好状态
func (p *Preference) State() string {
	switch {
	case p.HasOptedIn:
		return StateOptedIn
	case p.AwaitingOptin:
		return StateAwaiting
	default:
		return StateOptedOut
	}
}

// ConsentEvent 同意状态变更事件（发布到 Redis Streams / webhook）
type ConsentEvent struct {
	ContactID string    `json:"contact_id"`
	Event     string    `json:"event"` // "opt_in" / "opt_out"
	At        time.Time `json:"at"`
}

const (
	ConsentEventOptIn  = "opt_in"
	ConsentEventOptOut = "opt_out"
)

package domain

import "time"

// Contact 联系人领域模型（对应 contacts 表）
// 以手机号为自然键，一个手机号至多一条记录；创建后不可变
type Contact struct {
	// 主键
	ID string `json:"id" db:"id"` // VARCHAR(21), PRIMARY KEY（12位字母数字短ID）

	// 自然键
	PhoneNumber string `json:"phone_number" db:"phone_number"` // VARCHAR(20), NOT NULL, UNIQUE

	CreatedAt time.Time `json:"created_at" db:"created_at"` // TIMESTAMPTZ, NOT NULL
}

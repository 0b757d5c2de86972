/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-14 11:40:26
 * @FilePath: \pssuai-admin\backend\internal\domain\mirror\entity.go
 * @LastEditTime: 2025-10-14 11:40:30
 */
package mirror

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// TableAccessEvents mirrors the upstream /access-events feed.
	TableAccessEvents = "access_events"
	// TableQrEvents mirrors the upstream /qr-events feed.
	TableQrEvents = "qr_events"
	// TableResidents holds the denormalized resident copies.
	TableResidents = "residents"
)

// AccessEvent is one resident entry/exit row from the upstream feed.
type AccessEvent struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Name      string         `gorm:"column:name;size:100" json:"name"`
	Phone     string         `gorm:"column:phone;size:40" json:"phone"`
	Unit      string         `gorm:"column:unit;size:64" json:"unit"`
	DeviceID  string         `gorm:"column:device_id;size:64" json:"device_id"`
	EventTime *time.Time     `gorm:"column:event_time;index" json:"event_time"`
	RawJSON   datatypes.JSON `gorm:"column:raw_json;type:json" json:"raw_json"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

// TableName pins the table name.
func (AccessEvent) TableName() string {
	return TableAccessEvents
}

// QrEvent is one visitor QR scan row from the upstream feed.
type QrEvent struct {
	ID           int64          `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	VisitorName  string         `gorm:"column:visitor_name;size:100" json:"visitor_name"`
	VisitorPhone string         `gorm:"column:visitor_phone;size:40" json:"visitor_phone"`
	HostUnit     string         `gorm:"column:host_unit;size:64" json:"host_unit"`
	QrID         string         `gorm:"column:qr_id;size:128" json:"qr_id"`
	EventTime    *time.Time     `gorm:"column:event_time;index" json:"event_time"`
	RawJSON      datatypes.JSON `gorm:"column:raw_json;type:json" json:"raw_json"`
	UpdatedAt    time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

// TableName pins the table name.
func (QrEvent) TableName() string {
	return TableQrEvents
}

// Resident is the local copy of a resident owned by the upstream service.
type Resident struct {
	ID        int64     `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;size:100" json:"name"`
	Phone     string    `gorm:"column:phone;size:40" json:"phone"`
	Unit      string    `gorm:"column:unit;size:64" json:"unit"`
	Status    string    `gorm:"column:status;size:32" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName pins the table name.
func (Resident) TableName() string {
	return TableResidents
}

// Models lists every mirror entity, used by local-mode auto migration.
func Models() []any {
	return []any{&AccessEvent{}, &QrEvent{}, &Resident{}}
}

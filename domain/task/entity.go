package task

import "time"

// Task is a to-do item. Records are hard-deleted, so there is no DeletedAt column.
// The primary key is AUTOINCREMENT so a deleted ID is never handed out again.
type Task struct {
	ID          uint      `gorm:"primarykey;autoIncrement" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	Completed   bool      `gorm:"not null;default:false" json:"completed"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name for Task model.
func (Task) TableName() string {
	return "tasks"
}

// Now returns the current time in UTC at the precision timestamps are stored and served with.
// It is installed as the GORM NowFunc so autoCreateTime/autoUpdateTime agree with it.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

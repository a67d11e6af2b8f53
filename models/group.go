package models

import "time"

// Group is a check-in group. The creator is always a member; ownership can be
// transferred to another member.
type Group struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:64;uniqueIndex;not null" json:"name"`
	CreatorID    uint      `gorm:"index;not null" json:"creatorId"`
	CheckInCount int       `gorm:"not null;default:0" json:"checkInCount"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GroupMember links users to groups. Membership is many-to-many; the composite
// unique index keeps a user from joining the same group twice.
type GroupMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   uint      `gorm:"not null;index:idx_group_members_group_user,unique" json:"groupId"`
	UserID    uint      `gorm:"not null;index;index:idx_group_members_group_user,unique" json:"userId"`
	CreatedAt time.Time `json:"created_at"`
}

package models

import "time"

const DefaultRole = "user"

// User is a registered account. Posts and likes reference it by id; deleting
// a user removes both.
type User struct {
	ID           uint      `gorm:"primaryKey" bson:"_id" json:"id"`
	Username     string    `gorm:"size:50;not null;uniqueIndex" bson:"username" json:"username"`
	PasswordHash string    `gorm:"column:password;size:100;not null" bson:"password" json:"-"`
	Email        *string   `gorm:"size:256;uniqueIndex" bson:"email,omitempty" json:"email"`
	FirstName    *string   `gorm:"size:50" bson:"firstName,omitempty" json:"firstName"`
	LastName     *string   `gorm:"size:50" bson:"lastName,omitempty" json:"lastName"`
	Role         string    `gorm:"size:50;not null;default:user" bson:"role" json:"role"`
	CreatedAt    time.Time `gorm:"not null" bson:"createdAt" json:"createdAt"`

	Posts []Post `gorm:"constraint:OnDelete:CASCADE" bson:"-" json:"-"`
	Likes []Like `gorm:"constraint:OnDelete:CASCADE" bson:"-" json:"-"`
}

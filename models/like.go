package models

import "time"

// Like records that a user liked a post. (PostID, UserID) is unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" bson:"_id" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_post_user" bson:"postId" json:"postId"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_post_user;index" bson:"userId" json:"userId"`
	CreatedAt time.Time `gorm:"not null" bson:"createdAt" json:"createdAt"`
}

package models

import "time"

const MaxPostLength = 480

type Post struct {
	ID        uint      `gorm:"primaryKey" bson:"_id" json:"id"`
	UserID    uint      `gorm:"not null;index" bson:"userId" json:"userId"`
	Content   string    `gorm:"size:480;not null" bson:"content" json:"content"`
	CreatedAt time.Time `gorm:"not null" bson:"createdAt" json:"createdAt"`

	Likes []Like `gorm:"constraint:OnDelete:CASCADE" bson:"-" json:"-"`
}

// PostView is the read projection returned by the API: the post joined with
// its author's username and the number of likes it has.
type PostView struct {
	ID         uint      `bson:"_id" json:"id"`
	Content    string    `bson:"content" json:"content"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	Username   string    `bson:"username" json:"username"`
	LikesCount int64     `bson:"likesCount" json:"likesCount"`
}

type SortKey string

const (
	SortByCreatedAt  SortKey = "createdAt"
	SortByLikesCount SortKey = "likesCount"
)

type PostQuery struct {
	Username string
	OrderBy  SortKey
	Desc     bool
}

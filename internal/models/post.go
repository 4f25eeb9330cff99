package models

import "time"

// Post represents a forum post. A post with a non-nil RepliedToID is a
// reply; replies must live in the same theme as their parent. Deleting a
// post cascades to its replies (they are unreachable otherwise: the feed
// excludes them and they are only listed through the parent).
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Author      *User     `gorm:"foreignKey:UserID" json:"author,omitempty"`
	ThemeID     uint      `gorm:"not null;index" json:"theme_id"`
	Theme       *Theme    `gorm:"foreignKey:ThemeID" json:"theme,omitempty"`
	RepliedToID *uint     `gorm:"index" json:"replied_to_id,omitempty"`
	Parent      *Post     `gorm:"foreignKey:RepliedToID;constraint:OnDelete:CASCADE" json:"parent,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// RepliesCount is not persisted; computed at query time
	RepliesCount int `gorm:"->" json:"replies_count"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// Liked indicates whether the current requesting user liked this post.
	// Only populated for authenticated viewers.
	Liked *bool `gorm:"->" json:"is_liked,omitempty"`
}

// IsReply reports whether the post is a reply to another post.
func (p *Post) IsReply() bool {
	return p.RepliedToID != nil
}

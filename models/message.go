package models

import "time"

// Message is a note from an applicant to staff, optionally with one file.
// AdminReply and ReplyDate are only written by the admin tooling.
type Message struct {
	ID         string     `bson:"-"`
	AccountID  string     `bson:"-"`
	Body       string     `bson:"message"`
	File       string     `bson:"file,omitempty"`
	FileName   string     `bson:"file_name,omitempty"`
	FileType   string     `bson:"file_type,omitempty"`
	CreatedAt  time.Time  `bson:"created_at"`
	AdminReply string     `bson:"admin_reply,omitempty"`
	ReplyDate  *time.Time `bson:"reply_date,omitempty"`
}

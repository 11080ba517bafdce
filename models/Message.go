package models

import (
	"gorm.io/gorm"
)

type Message struct {
	gorm.Model
	ConversationID uint   `json:"conversationID" gorm:"not null;index"`
	SenderID       uint   `json:"senderID" gorm:"not null"`
	Text           string `json:"text" gorm:"type:text;not null"`
	Sender         User   `json:"sender" gorm:"foreignKey:SenderID;references:ID"`
}

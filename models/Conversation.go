package models

import (
	"gorm.io/gorm"
)

// Conversation is a thread between one buyer and one seller about one product.
// The composite unique index keeps a single thread per (product, buyer, seller)
// triple even when two first-contact requests race; the losing insert hits the
// index and the caller re-reads the winning row.
type Conversation struct {
	gorm.Model
	ProductID uint      `json:"productID" gorm:"not null;uniqueIndex:idx_conversations_triple;index"`
	BuyerID   uint      `json:"buyerID" gorm:"not null;uniqueIndex:idx_conversations_triple;index"`
	SellerID  uint      `json:"sellerID" gorm:"not null;uniqueIndex:idx_conversations_triple;index"`
	Messages  []Message `json:"messages" gorm:"constraint:OnDelete:CASCADE"`
	Product   Product   `json:"product" gorm:"foreignKey:ProductID;references:ID"`
	Buyer     User      `json:"buyer" gorm:"foreignKey:BuyerID;references:ID"`
	Seller    User      `json:"seller" gorm:"foreignKey:SellerID;references:ID"`
}

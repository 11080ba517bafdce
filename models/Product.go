package models

import (
	"gorm.io/gorm"
)

type Product struct {
	gorm.Model
	Name        string `json:"name" gorm:"size:100;not null;index"`
	Category    string `json:"category" gorm:"size:50;not null;index"` // seeds, fertilizers, pesticides, tools, produce
	Description string `json:"description" gorm:"type:text;not null"`
	Price       string `json:"price" gorm:"size:50;not null"` // display string, e.g. "₹450 / 5kg bag"
	ImageURL    string `json:"imageURL" gorm:"size:512"`
	SellerID    uint   `json:"sellerID" gorm:"not null;index"`
	Seller      User   `json:"seller" gorm:"foreignKey:SellerID;references:ID"`
}

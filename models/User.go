package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email         string         `json:"email" gorm:"uniqueIndex;size:120;not null"`
	Mobile        string         `json:"mobile" gorm:"uniqueIndex;size:20;not null"`
	Password      string         `json:"-"`
	Role          string         `json:"role" gorm:"type:varchar(20);not null;index"` // buyer, seller, customer
	Products      []Product      `json:"products" gorm:"foreignKey:SellerID;references:ID"`
	SavedProducts datatypes.JSON `json:"savedProducts"`
}

// Custom JSON marshaling so SavedProducts renders as an array, never raw bytes
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		SavedProducts []int `json:"savedProducts,omitempty"`
		*Alias
	}{
		SavedProducts: []int{},
		Alias:         (*Alias)(u),
	}

	if u.SavedProducts != nil {
		var saved []int
		if err := json.Unmarshal(u.SavedProducts, &saved); err == nil {
			aux.SavedProducts = saved
		}
	}

	// Products is excluded to prevent circular reference
	aux.Alias.Products = nil

	return json.Marshal(aux)
}

package models

import "time"

type User struct {
	ID             string    `json:"id"`
	UserName       string    `json:"userName"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	Avatar         string    `json:"avatar"`
	ProductsPosted []string  `json:"productsPosted"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

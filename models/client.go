package models

import "gorm.io/gorm"

type Client struct {
	gorm.Model
	FirstName        string `gorm:"not null"`
	LastName         string
	Email            string `gorm:"not null;unique"`
	Phone            string
	Company          string
	StripeCustomerID string `gorm:"index"`
}

func (c *Client) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type AddressModel struct {
	AddressID           uuid.UUID `gorm:"column:address_id;type:uuid;default:gen_random_uuid();primaryKey" json:"address_id"`
	AddressUserID       uuid.UUID `gorm:"column:address_user_id;type:uuid;not null;uniqueIndex" json:"-"`
	AddressStreet       string    `gorm:"column:address_street;size:150" json:"street"`
	AddressNumber       string    `gorm:"column:address_number;size:20" json:"number"`
	AddressComplement   string    `gorm:"column:address_complement;size:80" json:"complement,omitempty"`
	AddressNeighborhood string    `gorm:"column:address_neighborhood;size:80" json:"neighborhood"`
	AddressPostalCode   string    `gorm:"column:address_postal_code;size:15" json:"postal_code"`
	AddressCity         string    `gorm:"column:address_city;size:80" json:"city"`
	AddressState        string    `gorm:"column:address_state;size:40" json:"state"`
	AddressCountry      string    `gorm:"column:address_country;size:40;default:'Brasil'" json:"country"`
	UpdatedAt           time.Time `gorm:"column:address_updated_at;autoUpdateTime" json:"updated_at"`
}

func (AddressModel) TableName() string {
	return "addresses"
}

// OneLine formats the address for e-mails.
func (a *AddressModel) OneLine() string {
	if a == nil {
		return ""
	}
	parts := []string{}
	street := strings.TrimSpace(strings.Join([]string{a.AddressStreet, a.AddressNumber}, ", "))
	for _, p := range []string{street, a.AddressComplement, a.AddressNeighborhood, a.AddressCity, a.AddressState, a.AddressPostalCode} {
		p = strings.Trim(strings.TrimSpace(p), ",")
		if p != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, " - ")
}

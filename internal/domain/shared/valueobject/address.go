package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultCountry is applied when an address carries no country.
const DefaultCountry = "BR"

// Address is an immutable postal address.
// Street, city and state are required; the rest is optional.
type Address struct {
	street     string
	number     string
	complement string
	district   string
	city       string
	state      string
	postalCode string
	country    string
}

// AddressOption is a functional option for configuring Address
type AddressOption func(*Address)

// WithNumber sets the building number
func WithNumber(number string) AddressOption {
	return func(a *Address) {
		a.number = strings.TrimSpace(number)
	}
}

// WithComplement sets the complement (suite, floor, block)
func WithComplement(complement string) AddressOption {
	return func(a *Address) {
		a.complement = strings.TrimSpace(complement)
	}
}

// WithDistrict sets the district (bairro)
func WithDistrict(district string) AddressOption {
	return func(a *Address) {
		a.district = strings.TrimSpace(district)
	}
}

// WithPostalCode sets the postal code, keeping digits only
func WithPostalCode(postalCode string) AddressOption {
	return func(a *Address) {
		a.postalCode = digitsOnly(postalCode)
	}
}

// WithCountry sets the country code
func WithCountry(country string) AddressOption {
	return func(a *Address) {
		a.country = strings.ToUpper(strings.TrimSpace(country))
	}
}

// NewAddress creates a new Address
func NewAddress(street, city, state string, opts ...AddressOption) (Address, error) {
	addr := Address{
		street:  strings.TrimSpace(street),
		city:    strings.TrimSpace(city),
		state:   strings.ToUpper(strings.TrimSpace(state)),
		country: DefaultCountry,
	}
	for _, opt := range opts {
		opt(&addr)
	}
	if addr.country == "" {
		addr.country = DefaultCountry
	}

	if err := addr.validate(); err != nil {
		return Address{}, err
	}
	return addr, nil
}

// MustNewAddress creates a new Address, panics on error
func MustNewAddress(street, city, state string, opts ...AddressOption) Address {
	addr, err := NewAddress(street, city, state, opts...)
	if err != nil {
		panic(err)
	}
	return addr
}

// EmptyAddress returns an empty address (for optional address fields)
func EmptyAddress() Address {
	return Address{}
}

func (a Address) Street() string     { return a.street }
func (a Address) Number() string     { return a.number }
func (a Address) Complement() string { return a.complement }
func (a Address) District() string   { return a.district }
func (a Address) City() string       { return a.city }
func (a Address) State() string      { return a.state }
func (a Address) PostalCode() string { return a.postalCode }
func (a Address) Country() string    { return a.country }

// IsEmpty returns true if the address is empty
func (a Address) IsEmpty() bool {
	return a.street == "" && a.city == "" && a.state == ""
}

// String formats the address on one line
func (a Address) String() string {
	if a.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, 6)
	line := a.street
	if a.number != "" {
		line += ", " + a.number
	}
	parts = append(parts, line)
	if a.complement != "" {
		parts = append(parts, a.complement)
	}
	if a.district != "" {
		parts = append(parts, a.district)
	}
	parts = append(parts, a.city+"/"+a.state)
	if a.postalCode != "" {
		parts = append(parts, a.postalCode)
	}
	return strings.Join(parts, " - ")
}

// Equals returns true if both addresses are equal
func (a Address) Equals(other Address) bool {
	return a == other
}

// AddressDTO is the serialized form of Address, used for JSON columns and payloads
type AddressDTO struct {
	Street     string `json:"street"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// ToDTO converts Address to AddressDTO
func (a Address) ToDTO() AddressDTO {
	return AddressDTO{
		Street:     a.street,
		Number:     a.number,
		Complement: a.complement,
		District:   a.district,
		City:       a.city,
		State:      a.state,
		PostalCode: a.postalCode,
		Country:    a.country,
	}
}

// ToAddress converts AddressDTO back to Address
func (dto AddressDTO) ToAddress() (Address, error) {
	if dto.Street == "" && dto.City == "" && dto.State == "" {
		return EmptyAddress(), nil
	}
	return NewAddress(dto.Street, dto.City, dto.State,
		WithNumber(dto.Number),
		WithComplement(dto.Complement),
		WithDistrict(dto.District),
		WithPostalCode(dto.PostalCode),
		WithCountry(dto.Country),
	)
}

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.ToDTO())
}

// UnmarshalJSON implements json.Unmarshaler; validation rules of NewAddress apply.
func (a *Address) UnmarshalJSON(data []byte) error {
	var dto AddressDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return err
	}
	addr, err := dto.ToAddress()
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// Value implements driver.Valuer, storing the address as JSON
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = EmptyAddress()
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*a = EmptyAddress()
		return nil
	}
	return json.Unmarshal(data, a)
}

func (a Address) validate() error {
	if a.street == "" {
		return fmt.Errorf("street cannot be empty")
	}
	if len(a.street) > 200 {
		return fmt.Errorf("street cannot exceed 200 characters")
	}
	if a.city == "" {
		return fmt.Errorf("city cannot be empty")
	}
	if len(a.city) > 100 {
		return fmt.Errorf("city cannot exceed 100 characters")
	}
	if len(a.state) != 2 {
		return fmt.Errorf("state must be a 2-letter code")
	}
	if a.postalCode != "" && len(a.postalCode) != 8 {
		return fmt.Errorf("postal code must have 8 digits")
	}
	if len(a.country) != 2 {
		return fmt.Errorf("country must be a 2-letter code")
	}
	return nil
}

func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

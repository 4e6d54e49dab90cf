package domain

import "fmt"

type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleCollector Role = "collector"
	RoleAdmin     Role = "admin"
)

// Account is the read-only identity profile owned by the account service.
type Account struct {
	ID          string
	Name        string
	Email       string
	Role        Role
	WardNumber  string
	HouseNumber string
	Area        *string
	Location    *Location
}

// Principal is the closed set of callers the engine distinguishes.
// Operations switch on the concrete type once, at entry.
type Principal interface {
	AccountID() string
	isPrincipal()
}

type Citizen struct{ Account Account }

type Collector struct{ Account Account }

type Admin struct{ Account Account }

func (c Citizen) AccountID() string   { return c.Account.ID }
func (c Collector) AccountID() string { return c.Account.ID }
func (a Admin) AccountID() string     { return a.Account.ID }

func (Citizen) isPrincipal()   {}
func (Collector) isPrincipal() {}
func (Admin) isPrincipal()     {}

// PrincipalFor maps an account onto its role variant.
func PrincipalFor(acc Account) (Principal, error) {
	switch acc.Role {
	case RoleCitizen:
		return Citizen{Account: acc}, nil
	case RoleCollector:
		return Collector{Account: acc}, nil
	case RoleAdmin:
		return Admin{Account: acc}, nil
	}
	return nil, fmt.Errorf("account %q has unknown role %q", acc.ID, acc.Role)
}

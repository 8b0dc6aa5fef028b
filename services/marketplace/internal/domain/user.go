package domain

type Role string

const (
	RoleCustomer Role = "customer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCustomer, RoleOperator, RoleAdmin:
		return Role(s), true
	default:
		return "", false
	}
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Name  string `json:"name,omitempty"`
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

type Branding struct {
	LogoURL      string `json:"logo_url,omitempty"`
	PrimaryColor string `json:"primary_color,omitempty"`
}

// OperatorProfile shares its ID with the operator's User record.
type OperatorProfile struct {
	ID                 string             `json:"id"`
	CompanyName        string             `json:"company_name"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	ContactEmail       string             `json:"contact_email"`
	ContactPhone       string             `json:"contact_phone,omitempty"`
	Branding           *Branding          `json:"branding,omitempty"`
}

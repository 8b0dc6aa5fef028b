package domain

// RequestContext identifies the caller of every marketplace operation. It is built from
// verified session claims, never from request bodies.
type RequestContext struct {
	UserID string
	Role   Role
}

func (rc RequestContext) IsCustomer() bool { return rc.Role == RoleCustomer }
func (rc RequestContext) IsOperator() bool { return rc.Role == RoleOperator }
func (rc RequestContext) IsAdmin() bool    { return rc.Role == RoleAdmin }

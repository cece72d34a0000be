package app

// Identity is the resolved caller of an operation. Operations that need a
// credential take it explicitly; a nil *Identity means anonymous.
type Identity struct {
	UserID   string
	Username string
}

func requireIdentity(ident *Identity) error {
	if ident == nil || ident.UserID == "" {
		return ErrUnauthorized
	}
	return nil
}

package auth

// RequireAdmin fails unless the identity carries the admin role.
func RequireAdmin(identity Identity) error {
	if identity.Role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// RequireOwner fails with ErrNotFound, not ErrForbidden: a caller probing a
// foreign resource learns nothing beyond "it does not exist".
func RequireOwner(identity Identity, ownerID int64) error {
	if identity.UserID != ownerID {
		return ErrNotFound
	}
	return nil
}

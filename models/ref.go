package models

// UserRef ist eine Personen-Referenz, die entweder nur als ID vorliegt oder
// bereits zum vollen Datensatz aufgelöst wurde. Präsentationslogik arbeitet
// ausschließlich auf Refs und überspringt unaufgelöste Einträge.
type UserRef struct {
	ID   uint  `json:"id"`
	User *User `json:"user,omitempty"`
}

// Resolved meldet, ob der volle Datensatz geladen ist.
func (r UserRef) Resolved() bool {
	return r.User != nil
}

// UserRefOf baut eine aufgelöste Referenz.
func UserRefOf(u User) UserRef {
	c := u
	return UserRef{ID: u.ID, User: &c}
}

// UserRefID baut eine unaufgelöste Referenz.
func UserRefID(id uint) UserRef {
	return UserRef{ID: id}
}

// UserRefs löst eine bereits geladene User-Liste in Referenzen auf.
func UserRefs(users []User) []UserRef {
	refs := make([]UserRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, UserRefOf(u))
	}
	return refs
}

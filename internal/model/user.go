package model

// User is an allowlisted Telegram account.
type User struct {
	ID   int64
	Name string
}

// Registry is the fixed set of users allowed to talk to the bot. It is built
// once at start-up and never mutated, so it is safe for concurrent reads.
type Registry struct {
	users []User
	index map[int64]int
}

// NewRegistry keeps the given order; a later duplicate ID replaces the name
// of the earlier one.
func NewRegistry(users []User) *Registry {
	r := &Registry{index: make(map[int64]int, len(users))}
	for _, u := range users {
		if i, ok := r.index[u.ID]; ok {
			r.users[i].Name = u.Name
			continue
		}
		r.index[u.ID] = len(r.users)
		r.users = append(r.users, u)
	}
	return r
}

// Lookup returns the user with the given Telegram ID.
func (r *Registry) Lookup(id int64) (User, bool) {
	i, ok := r.index[id]
	if !ok {
		return User{}, false
	}
	return r.users[i], true
}

// Allowed reports whether id is on the allowlist.
func (r *Registry) Allowed(id int64) bool {
	_, ok := r.index[id]
	return ok
}

// Users returns a copy of every registered user in registration order.
func (r *Registry) Users() []User {
	out := make([]User, len(r.users))
	copy(out, r.users)
	return out
}

// Others returns every registered user except id.
func (r *Registry) Others(id int64) []User {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		if u.ID != id {
			out = append(out, u)
		}
	}
	return out
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	return len(r.users)
}

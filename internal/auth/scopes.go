package auth

// Known OAuth scopes used by the buddy service.
const (
	ScopeBuddiesWrite = "buddies:write"
	ScopeBuddiesRead  = "buddies:read"
)

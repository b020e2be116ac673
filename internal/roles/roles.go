package roles

type Role string

const (
	RoleUser   Role = "USER"
	RoleAdmin  Role = "ADMIN"
	RoleBanned Role = "BANNED"
)

type Permission string

const (
	CommentCreate Permission = "comment:create"
	CommentEdit   Permission = "comment:edit"
	CommentDelete Permission = "comment:delete"
	ReplyCreate   Permission = "reply:create"
	ReplyEdit     Permission = "reply:edit"
	ReplyDelete   Permission = "reply:delete"
	AccountManage Permission = "account:manage"
	GameManage    Permission = "game:manage"
	UserBan       Permission = "user:ban"
	UserRole      Permission = "user:role"
)

// rolePermissions is the single authority for role-based access.
// BANNED maps to the empty set so every check fails closed.
var rolePermissions = map[Role][]Permission{
	RoleUser: {
		CommentCreate, CommentEdit, CommentDelete,
		ReplyCreate, ReplyEdit, ReplyDelete,
		AccountManage,
		"ROLE_USER",
	},
	RoleAdmin: {
		CommentCreate, CommentEdit, CommentDelete,
		ReplyCreate, ReplyEdit, ReplyDelete,
		AccountManage,
		GameManage, UserBan, UserRole,
		"ROLE_ADMIN",
	},
	RoleBanned: {},
}

func Parse(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleBanned:
		return Role(s), true
	}
	return "", false
}

func (r Role) Permissions() []Permission {
	return rolePermissions[r]
}

func (r Role) Has(p Permission) bool {
	for _, granted := range rolePermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}

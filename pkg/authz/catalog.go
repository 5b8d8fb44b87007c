// Package authz is the authorization engine: a static role->permission
// catalog, actor scope resolution, per-permission field gating, and the
// decision point that composes them into one allow/deny answer per request.
// Everything here is a pure function of its inputs; no database access.
package authz

// Permission keys. The set is closed: a role grants exactly the keys listed
// in rolePermissions, and unknown keys grant nothing.
const (
	PermProgramCreate  = "program.create"
	PermProgramRead    = "program.read"
	PermProgramUpdate  = "program.update"
	PermProgramDelete  = "program.delete"
	PermProgramPublish = "program.publish"

	PermTemplateCreate = "template.create"
	PermTemplateRead   = "template.read"
	PermTemplateUpdate = "template.update"
	PermTemplateDelete = "template.delete"

	PermTaskCreate = "task.create"
	PermTaskRead   = "task.read"
	PermTaskUpdate = "task.update"
	PermTaskAssign = "task.assign"
	PermTaskDelete = "task.delete"

	PermUserRead   = "user.read"
	PermUserManage = "user.manage"
)

// allPermissions lists every known permission key, in catalog order.
var allPermissions = []string{
	PermProgramCreate, PermProgramRead, PermProgramUpdate, PermProgramDelete, PermProgramPublish,
	PermTemplateCreate, PermTemplateRead, PermTemplateUpdate, PermTemplateDelete,
	PermTaskCreate, PermTaskRead, PermTaskUpdate, PermTaskAssign, PermTaskDelete,
	PermUserRead, PermUserManage,
}

// rolePermissions is the static role->permission table. Admin holds the full
// set; manager holds a curated create/read/update/delete/assign subset over
// the resources it curates; viewer and trainee are read/self-service roles;
// auditor reads everything.
var rolePermissions = map[string][]string{
	"admin": allPermissions,
	"manager": {
		PermProgramRead, PermProgramUpdate, PermProgramPublish,
		PermTemplateCreate, PermTemplateRead, PermTemplateUpdate, PermTemplateDelete,
		PermTaskCreate, PermTaskRead, PermTaskUpdate, PermTaskAssign, PermTaskDelete,
	},
	"viewer": {
		PermProgramRead, PermTemplateRead, PermTaskRead,
	},
	"trainee": {
		PermTaskRead,
	},
	"auditor": {
		PermProgramRead, PermTemplateRead, PermTaskRead, PermUserRead,
	},
}

// PermissionsFor returns the union of permissions granted by the given
// roles. Unknown roles contribute nothing; they are not an error.
func PermissionsFor(roles []string) map[string]struct{} {
	perms := make(map[string]struct{})
	for _, role := range roles {
		for _, p := range rolePermissions[role] {
			perms[p] = struct{}{}
		}
	}
	return perms
}

// HasPermission reports whether any of the roles grants the permission key.
func HasPermission(roles []string, key string) bool {
	for _, role := range roles {
		for _, p := range rolePermissions[role] {
			if p == key {
				return true
			}
		}
	}
	return false
}

// IsKnownPermission reports whether key is part of the permission catalog.
func IsKnownPermission(key string) bool {
	for _, p := range allPermissions {
		if p == key {
			return true
		}
	}
	return false
}

// Package authroles decides the role a member's profile starts with.
package authroles

import (
	"slices"
	"strings"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/ports"
)

// StaticRoleMapper grants admin to configured emails or to members of AdminGroup.
// Everyone else starts as an ordinary member. The mapping only seeds new profiles;
// afterwards the profile's role column is authoritative.
type StaticRoleMapper struct {
	AdminEmails []string
	AdminGroup  string
}

var _ ports.RoleMapper = StaticRoleMapper{}

// NewStaticRoleMapper normalizes the configured email list.
func NewStaticRoleMapper(adminEmails []string, adminGroup string) StaticRoleMapper {
	emails := make([]string, 0, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			emails = append(emails, e)
		}
	}
	return StaticRoleMapper{AdminEmails: emails, AdminGroup: strings.TrimSpace(adminGroup)}
}

func (m StaticRoleMapper) Map(id domainauth.Identity) domainauth.Role {
	if slices.Contains(m.AdminEmails, strings.ToLower(strings.TrimSpace(id.Email))) {
		return domainauth.RoleAdmin
	}
	if m.AdminGroup != "" && slices.Contains(id.Groups, m.AdminGroup) {
		return domainauth.RoleAdmin
	}
	return domainauth.RoleUser
}

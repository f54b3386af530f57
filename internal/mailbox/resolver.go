// Package mailbox resolves a user-supplied mailbox token (id, role, or
// name) against the account's mailbox list.
package mailbox

import (
	"strings"

	"github.com/mikluko/jmap"
	"github.com/mikluko/jmap/mail/mailbox"
)

// roleAliases maps user-facing shorthand to the JMAP role they mean.
var roleAliases = map[string]mailbox.Role{
	"spam": mailbox.RoleJunk,
	"bin":  mailbox.RoleTrash,
}

// Resolve maps a user string to a server mailbox id using the precedence:
// exact id, role (lowercased, with spam/bin aliases), exact name, then
// case-insensitive name. Returns ("", false) when nothing matches.
func Resolve(needle string, mailboxes []*mailbox.Mailbox) (jmap.ID, bool) {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return "", false
	}

	for _, mb := range mailboxes {
		if string(mb.ID) == needle {
			return mb.ID, true
		}
	}

	role := mailbox.Role(strings.ToLower(needle))
	if aliased, ok := roleAliases[strings.ToLower(needle)]; ok {
		role = aliased
	}
	if role != "" && role != mailbox.RoleNone {
		for _, mb := range mailboxes {
			if mb.Role == role {
				return mb.ID, true
			}
		}
	}

	for _, mb := range mailboxes {
		if mb.Name == needle {
			return mb.ID, true
		}
	}

	lower := strings.ToLower(needle)
	for _, mb := range mailboxes {
		if strings.ToLower(mb.Name) == lower {
			return mb.ID, true
		}
	}

	return "", false
}

// RequireCoreRole resolves one of the core roles (inbox, trash, archive,
// drafts, sent, junk) and reports whether it is missing from the account —
// callers turn a miss for these roles into a config error per spec.
func RequireCoreRole(role mailbox.Role, mailboxes []*mailbox.Mailbox) (jmap.ID, bool) {
	for _, mb := range mailboxes {
		if mb.Role == role {
			return mb.ID, true
		}
	}
	return "", false
}

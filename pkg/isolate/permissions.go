package isolate

import (
	"strings"

	"github.com/cuemby/edgefunc/pkg/types"
)

// NetAllowed reports whether host may be reached under perms. A nil AllowNet
// means unrestricted (the default permission surface); a non-nil, empty
// slice denies all network access; otherwise host must match an entry
// exactly or be a subdomain of one.
func NetAllowed(perms types.PermissionSet, host string) bool {
	if perms.AllowNet == nil {
		return true
	}
	if len(perms.AllowNet) == 0 {
		return false
	}
	for _, allowed := range perms.AllowNet {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

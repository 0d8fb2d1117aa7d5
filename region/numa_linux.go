//go:build linux

package region

import "golang.org/x/sys/unix"

// BindNUMA is a best-effort hint that pins the region's pages to the
// given NUMA node, using mbind(2). Spec §1 lists NUMA page binding as
// an optional, out-of-scope-by-default collaborator feature; this hook
// lets a host process opt in without the core depending on it.
//
// Failures are not fatal: a region that cannot be bound (unsupported
// kernel, missing CAP_SYS_NICE, NUMA not compiled in) still works, just
// without the locality hint, so this returns an error for the caller to
// log rather than something that should abort region setup.
func (r *Region) BindNUMA(node int) error {
	if len(r.data) == 0 {
		return nil
	}
	mask := uint64(1) << uint(node)
	return unix.Mbind(r.data, unix.MPOL_BIND, &mask, 64, unix.MPOL_MF_MOVE)
}

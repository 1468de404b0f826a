// Package ids derives stable synthetic identities (UIDs, cluster IPs, pod
// IPs) from a project/service pair using a single documented hash function,
// so the same compose file always projects the same identities within a
// process and across restarts.
package ids

import (
	"fmt"
	"hash/fnv"

	"k8s.io/apimachinery/pkg/types"
)

// hash64 returns the FNV-1a 64-bit digest of "project/service". FNV-1a is
// used everywhere in this package for the sole reason that all four
// identity fields below must derive from the same primitive.
func hash64(project, service string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s/%s", project, service)
	return h.Sum64()
}

// PodUID returns a deterministic UID for the pod backing a compose service.
func PodUID(project, service string) types.UID {
	h := hash64(project, service)
	return types.UID(fmt.Sprintf("%08x-0000-4000-8000-%012x", uint32(h), h&0xffffffffffff))
}

// ClusterIP derives a stable address in the 10.96.0.0/16 block, the
// conventional Kubernetes service-CIDR range, from the hash of the pair.
func ClusterIP(project, service string) string {
	h := hash64(project, service)
	return fmt.Sprintf("10.96.%d.%d", (h>>8)&0xff, h&0xff)
}

// PodIP derives a stable address in the 10.244.0.0/16 block, the
// conventional Kubernetes pod-CIDR range.
func PodIP(project, service string) string {
	h := hash64(project, service)
	return fmt.Sprintf("10.244.%d.%d", (h>>16)&0xff, (h>>24)&0xff)
}

// HostIP derives a stable loopback-adjacent host address; the façade never
// runs on more than one node so this is cosmetic but must still be stable.
func HostIP(project, service string) string {
	h := hash64(project, service)
	return fmt.Sprintf("172.18.%d.%d", (h>>32)&0xff, (h>>40)&0xff)
}

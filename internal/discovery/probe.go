package discovery

import "strings"

// Known emulator markers found in hardware/build fingerprints.
var emulatorSignatures = []string{
	"goldfish",
	"ranchu",
	"sdk_gphone",
	"generic",
	"emulator",
	"simulator",
	"vbox",
}

// IsEmulator reports whether the given hardware/build fingerprint looks like
// a virtualized device. Decides the discovery strategy once at start.
func IsEmulator(fingerprint string) bool {
	fp := strings.ToLower(fingerprint)
	for _, sig := range emulatorSignatures {
		if strings.Contains(fp, sig) {
			return true
		}
	}
	return false
}

package domain

import "strings"

// Configuration identifies one capture session. Built once by the host
// application at start and held unchanged for the session's lifetime.
type Configuration struct {
	ProjectName      string
	DeviceName       string
	DeviceModel      string
	BundleIdentifier string
	// Fingerprint is the hardware/build fingerprint of the device, used by
	// the emulator probe to pick a discovery strategy.
	Fingerprint string
	// HostnameFilter, when set, restricts discovery to peers whose
	// advertised name contains it (case-insensitive).
	HostnameFilter string
	// Icon is an optional PNG blob shown by the inspector next to the app.
	Icon []byte
	// ID is the stable session id: bundle identifier + device model.
	ID string
}

// NewConfiguration derives the stable session id from the bundle identifier
// and the device model so reconnects from the same app+device collapse into
// one session on the inspector side.
func NewConfiguration(projectName, deviceName, deviceModel, bundleIdentifier string) Configuration {
	return Configuration{
		ProjectName:      projectName,
		DeviceName:       deviceName,
		DeviceModel:      deviceModel,
		BundleIdentifier: bundleIdentifier,
		ID:               bundleIdentifier + "-" + sanitizeModel(deviceModel),
	}
}

func sanitizeModel(model string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(model), " ", "-"))
}

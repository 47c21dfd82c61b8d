package urls

// Documentation URLs for guides and troubleshooting
// All URLs point to the documentation site at https://muurk.github.io/budsctl/

// GettingStarted is the quick start guide covering pairing and the first
// connection.
const GettingStarted = "https://muurk.github.io/budsctl/getting-started/"

// TroubleshootingGuide provides solutions to common connection issues:
// wrong RFCOMM channels, missing permissions and sleeping earbuds.
const TroubleshootingGuide = "https://muurk.github.io/budsctl/troubleshooting/"

// Permissions explains the bluetooth group and CAP_NET_RAW setup needed
// to open raw Bluetooth sockets.
const Permissions = "https://muurk.github.io/budsctl/troubleshooting/permissions/"

// SupportedDevices lists the device profiles and what each one supports.
const SupportedDevices = "https://muurk.github.io/budsctl/devices/"

// ContributingProfiles explains how to record a capture and contribute a
// profile for an unsupported model.
const ContributingProfiles = "https://muurk.github.io/budsctl/contributing/new-device/"

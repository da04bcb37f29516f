package upstream

// CpuIDCatalog is the upstream's /api/v2/cpuids/ response: a mapping of
// codename to a list of id patterns.
type CpuIDCatalog map[string][]string

// CertificateDTO is one item of /api/v2/public-certificates/.
type CertificateDTO struct {
	CanonicalID     string     `json:"canonical_id"`
	VendorName      string     `json:"vendor_name"`
	PlatformName    string     `json:"platform_name"`
	ConfigName      string     `json:"configuration_name"`
	CertificateName string     `json:"certificate_name"`
	Release         string     `json:"release"`
	Codename        string     `json:"codename"`
	Architecture    string     `json:"architecture"`
	Kernel          *KernelDTO `json:"kernel,omitempty"`
	Bios            *BiosDTO   `json:"bios,omitempty"`
}

// KernelDTO is the kernel block embedded in a certificate item.
type KernelDTO struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Signature string `json:"signature"`
}

// BiosDTO is the bios block embedded in a certificate item. Version
// defaults to Name when the upstream leaves version empty (§4.7).
type BiosDTO struct {
	Vendor           string `json:"vendor"`
	Name             string `json:"name"`
	Version          string `json:"version"`
	Revision         string `json:"revision"`
	FirmwareRevision string `json:"firmware_revision"`
	ReleaseDate      string `json:"release_date"`
}

// DeviceInstanceDTO is one item of /api/v2/public-device-instances/.
type DeviceInstanceDTO struct {
	MachineCanonicalID string `json:"machine_canonical_id"`
	CertificateName    string `json:"certificate_name"`
	VendorName         string `json:"vendor_name"`
	Name               string `json:"name"`
	Version            string `json:"version"`
	Subsystem          string `json:"subsystem"`
	Bus                string `json:"bus"`
	Category           string `json:"category"`
	CPUCodename        string `json:"cpu_codename"`
}

// certificatePage and deviceInstancePage exist because CertificateDTO and
// DeviceInstanceDTO share the Page envelope but Go's json package can't
// unmarshal a generic Page[T]; each is decoded with its own Results type.
type certificatePage struct {
	Count    int              `json:"count"`
	Next     string           `json:"next"`
	Previous string           `json:"previous"`
	Results  []CertificateDTO `json:"results"`
}

type deviceInstancePage struct {
	Count    int                 `json:"count"`
	Next     string              `json:"next"`
	Previous string              `json:"previous"`
	Results  []DeviceInstanceDTO `json:"results"`
}

package certengine

// Status is the classification the engine emits; it doubles as the
// discriminant in the JSON response union (§6.3, §9 "dynamic response
// union" design note).
type Status string

const (
	StatusNotSeen                Status = "Not Seen"
	StatusCertified              Status = "Certified"
	StatusCertifiedImageExists   Status = "Certified Image Exists"
	StatusRelatedCertifiedSystem Status = "Related Certified System Exists"
)

// BoardResponse shapes the board block common to the three non-NotSeen
// payloads.
type BoardResponse struct {
	Manufacturer string `json:"manufacturer"`
	ProductName  string `json:"product_name"`
	Version      string `json:"version"`
}

// BiosResponse shapes the nullable bios block; ReleaseDate is formatted
// %m/%d/%Y per the resolved Open Question in SPEC_FULL.md §9.
type BiosResponse struct {
	Vendor           string `json:"vendor"`
	Version          string `json:"version"`
	Revision         string `json:"revision,omitempty"`
	FirmwareRevision string `json:"firmware_revision,omitempty"`
	ReleaseDate      string `json:"release_date,omitempty"`
}

// KernelResponse shapes a kernel entry inside available_releases.
// LoadedModules is always empty in this core.
type KernelResponse struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Signature     string   `json:"signature"`
	LoadedModules []string `json:"loaded_modules"`
}

// AvailableRelease shapes one entry of available_releases.
type AvailableRelease struct {
	Distributor string         `json:"distributor"`
	Version     string         `json:"version"`
	Codename    string         `json:"codename"`
	Kernel      KernelResponse `json:"kernel"`
}

// Response is the full discriminated-union payload. Chassis is always
// null in this core (§4.6); the seven device-list fields serialize as
// null except when Status is Related Certified System Exists, when they
// are set to (still-empty) non-nil slices so they round-trip as `[]`
// rather than `null`. None of these carry `omitempty`: json.Marshal
// checks length for slices and nilness for pointers, not "is this the
// zero value a spec author would omit", so omitempty here would silently
// drop keys the wire format requires to always be present.
type Response struct {
	Status            Status             `json:"status"`
	Architecture      string             `json:"architecture,omitempty"`
	Board             *BoardResponse     `json:"board,omitempty"`
	Bios              *BiosResponse      `json:"bios"`
	Chassis           *struct{}          `json:"chassis"`
	AvailableReleases []AvailableRelease `json:"available_releases,omitempty"`
	GPU               []struct{}         `json:"gpu"`
	Audio             []struct{}         `json:"audio"`
	Video             []struct{}         `json:"video"`
	Network           []struct{}         `json:"network"`
	Wireless          []struct{}         `json:"wireless"`
	PCIPeripherals    []struct{}         `json:"pci_peripherals"`
	USBPeripherals    []struct{}         `json:"usb_peripherals"`
}

// NotSeen is the literal {status: "Not Seen"} payload.
func NotSeen() Response {
	return Response{Status: StatusNotSeen}
}

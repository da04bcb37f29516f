package httpapi

import "github.com/canonical/hardware-api/internal/certengine"

// certificationStatusRequest is the wire shape of POST
// /v1/certification/status (§6.3). It carries json tags the internal
// certengine.Request does not need, keeping the transport's field
// naming (snake_case, optional pointers) out of the decision engine.
type certificationStatusRequest struct {
	Vendor       string        `json:"vendor"`
	Model        string        `json:"model"`
	Architecture string        `json:"architecture"`
	Board        boardDTO      `json:"board"`
	Bios         *biosDTO      `json:"bios,omitempty"`
	OS           osDTO         `json:"os"`
	Processor    processorDTO  `json:"processor"`

	// Accepted but ignored by the core (§6.3).
	Chassis        interface{} `json:"chassis,omitempty"`
	GPU            interface{} `json:"gpu,omitempty"`
	Audio          interface{} `json:"audio,omitempty"`
	Video          interface{} `json:"video,omitempty"`
	Network        interface{} `json:"network,omitempty"`
	Wireless       interface{} `json:"wireless,omitempty"`
	PCIPeripherals interface{} `json:"pci_peripherals,omitempty"`
	USBPeripherals interface{} `json:"usb_peripherals,omitempty"`
}

type boardDTO struct {
	Manufacturer string `json:"manufacturer"`
	ProductName  string `json:"product_name"`
	Version      string `json:"version"`
}

type biosDTO struct {
	Vendor           string `json:"vendor"`
	Version          string `json:"version"`
	Revision         string `json:"revision,omitempty"`
	FirmwareRevision string `json:"firmware_revision,omitempty"`
	ReleaseDate      string `json:"release_date,omitempty"`
}

type kernelDTO struct {
	Name      string `json:"name,omitempty"`
	Version   string `json:"version"`
	Signature string `json:"signature,omitempty"`
}

type osDTO struct {
	Distributor string    `json:"distributor"`
	Version     string    `json:"version"`
	Codename    string    `json:"codename"`
	Kernel      kernelDTO `json:"kernel"`
}

// processorDTO.Identifier is []int, not []byte: encoding/json always
// renders a []byte as a base64 string, but §6.3 specifies a literal JSON
// array of small integers.
type processorDTO struct {
	Identifier   []int  `json:"identifier,omitempty"`
	Frequency    int    `json:"frequency"`
	Manufacturer string `json:"manufacturer"`
	Version      string `json:"version"`
}

// toEngineRequest converts the wire DTO into certengine's internal
// Request shape.
func (r certificationStatusRequest) toEngineRequest() certengine.Request {
	req := certengine.Request{
		Vendor:       r.Vendor,
		Model:        r.Model,
		Architecture: r.Architecture,
		Board: certengine.Board{
			Manufacturer: r.Board.Manufacturer,
			ProductName:  r.Board.ProductName,
			Version:      r.Board.Version,
		},
		OS: certengine.OSInfo{
			Distributor: r.OS.Distributor,
			Version:     r.OS.Version,
			Codename:    r.OS.Codename,
			Kernel: certengine.KernelInfo{
				Name:      r.OS.Kernel.Name,
				Version:   r.OS.Kernel.Version,
				Signature: r.OS.Kernel.Signature,
			},
		},
		Processor: certengine.ProcessorInfo{
			Identifier:   identifierBytes(r.Processor.Identifier),
			Frequency:    r.Processor.Frequency,
			Manufacturer: r.Processor.Manufacturer,
			Version:      r.Processor.Version,
		},
	}
	if r.Bios != nil {
		req.Bios = &certengine.BiosInfo{
			Vendor:           r.Bios.Vendor,
			Version:          r.Bios.Version,
			Revision:         r.Bios.Revision,
			FirmwareRevision: r.Bios.FirmwareRevision,
			ReleaseDate:      r.Bios.ReleaseDate,
		}
	}
	return req
}

func identifierBytes(id []int) []byte {
	if id == nil {
		return nil
	}
	out := make([]byte, len(id))
	for i, v := range id {
		out[i] = byte(v)
	}
	return out
}

package certengine

import "github.com/canonical/hardware-api/internal/model"

// DeviceCategory mirrors model.DeviceCategory but carries the full
// vocabulary the pre-distillation implementation matched against when
// populating the Related Certified System Exists device-list fields
// (endpoints/certification/logic.py's _get_matching_devices). This core
// leaves those seven fields null/empty per the response builder's contract,
// but keeps the category vocabulary here so a future populated
// implementation has it ready without re-deriving it from the original.
type DeviceCategory = model.DeviceCategory

const (
	CategoryProcessor DeviceCategory = model.CategoryProcessor
	CategoryBoard     DeviceCategory = model.CategoryBoard
	CategoryOther     DeviceCategory = model.CategoryOther
	CategoryGPU       DeviceCategory = "GPU"
	CategoryNetwork   DeviceCategory = "NETWORK"
	CategoryWireless  DeviceCategory = "WIRELESS"
	CategoryAudio     DeviceCategory = "AUDIO"
	CategoryVideo     DeviceCategory = "VIDEO"
	CategoryPCI       DeviceCategory = "PCI"
	CategoryUSB       DeviceCategory = "USB"
)

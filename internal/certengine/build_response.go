package certengine

import (
	"context"

	"github.com/canonical/hardware-api/internal/model"
	"github.com/canonical/hardware-api/internal/store"
)

// releaseDateLayout is the format mandated by SPEC_FULL.md §9 for the
// resolved Open Question: %m/%d/%Y, spelled in Go's reference-time layout.
const releaseDateLayout = "01/02/2006"

// buildResponse shapes the payload common to the three non-NotSeen
// statuses (§4.6), setting the seven device-list fields to empty, non-nil
// slices when status is Related Certified System Exists (they stay nil,
// and serialize as null, for the other statuses).
func buildResponse(ctx context.Context, repo store.Repository, status Status, machine *model.Machine, board *model.Device, bios *model.Bios) (Response, error) {
	arch, err := repo.GetMachineArchitecture(ctx, machine)
	if err != nil {
		return Response{}, storeErr(err)
	}

	vendorName, err := repo.GetVendorName(ctx, board.VendorID)
	if err != nil {
		return Response{}, storeErr(err)
	}

	pairs, err := repo.GetReleasesAndKernelsForMachine(ctx, machine)
	if err != nil {
		return Response{}, storeErr(err)
	}

	biosResp, err := biosResponse(ctx, repo, bios)
	if err != nil {
		return Response{}, storeErr(err)
	}

	resp := Response{
		Status:       status,
		Architecture: arch,
		Board: &BoardResponse{
			Manufacturer: vendorName,
			ProductName:  board.Name,
			Version:      board.Version,
		},
		Bios:              biosResp,
		AvailableReleases: availableReleases(pairs),
	}

	if status == StatusRelatedCertifiedSystem {
		resp.GPU = []struct{}{}
		resp.Audio = []struct{}{}
		resp.Video = []struct{}{}
		resp.Network = []struct{}{}
		resp.Wireless = []struct{}{}
		resp.PCIPeripherals = []struct{}{}
		resp.USBPeripherals = []struct{}{}
	}

	return resp, nil
}

// biosResponse shapes the bios block from the matched store row, not the
// client-submitted request, so two requests whose free-text bios blocks
// differ but that matched the same stored row get the same canonicalized
// response (§4.6).
func biosResponse(ctx context.Context, repo store.Repository, b *model.Bios) (*BiosResponse, error) {
	if b == nil {
		return nil, nil
	}
	vendorName, err := repo.GetVendorName(ctx, b.VendorID)
	if err != nil {
		return nil, err
	}
	out := &BiosResponse{
		Vendor:           vendorName,
		Version:          b.Version,
		Revision:         b.Revision,
		FirmwareRevision: b.FirmwareRevision,
	}
	if b.ReleaseDate != nil {
		out.ReleaseDate = b.ReleaseDate.Format(releaseDateLayout)
	}
	return out, nil
}

func availableReleases(pairs []store.ReleaseKernel) []AvailableRelease {
	out := make([]AvailableRelease, 0, len(pairs))
	for _, rk := range pairs {
		ar := AvailableRelease{
			Distributor: "Ubuntu",
			Version:     rk.Release.ReleaseStr,
			Codename:    rk.Release.Codename,
		}
		if rk.Kernel != nil {
			ar.Kernel = KernelResponse{
				Name:          rk.Kernel.Name,
				Version:       rk.Kernel.Version,
				Signature:     rk.Kernel.Signature,
				LoadedModules: []string{},
			}
		} else {
			ar.Kernel = KernelResponse{LoadedModules: []string{}}
		}
		out = append(out, ar)
	}
	return out
}

package certengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canonical/hardware-api/internal/model"
	"github.com/canonical/hardware-api/internal/store"
)

// seedScenario builds the store fixture described in spec §8's
// end-to-end scenarios table: vendor V, board {V,"BRD","v1"}, bios
// {V,"1.0",rev "A"}, release {noble,24.04}, machine M/202401-1,
// certificate C referencing M and noble, report R referencing C with
// architecture amd64, processor device {"i5-7300U", codename "Raptor
// Lake"} (seeded under vendor V) attached to R, board attached to R, CpuId
// {pattern "0xb0671", codename "Raptor Lake"}.
func seedScenario(t *testing.T) *store.Fake {
	t.Helper()
	f := store.NewFake()

	v := f.SeedVendor("V")
	board := f.SeedDevice(model.Device{VendorID: v.ID, Name: "BRD", Version: "v1", Category: model.CategoryBoard})
	bios := f.SeedBios(model.Bios{VendorID: v.ID, Version: "1.0", Revision: "A"})
	release := f.SeedRelease(model.Release{Codename: "noble", ReleaseStr: "24.04", IVersion: 2404})
	machine := f.SeedMachine(model.Machine{CanonicalID: "M/202401-1"})
	cert := f.SeedCertificate(model.Certificate{MachineID: machine.ID, ReleaseID: release.ID, Name: "C"})
	cpu := f.SeedDevice(model.Device{VendorID: v.ID, Name: "i5-7300U", Category: model.CategoryProcessor, Codename: "Raptor Lake", Version: "i5-7300U-hw"})
	f.SeedReport(model.Report{CertificateID: cert.ID, Architecture: "amd64", BiosID: &bios.ID}, board.ID, cpu.ID)
	f.SeedCpuID("0xb0671", "Raptor Lake")

	return f
}

func baseRequest() Request {
	return Request{
		Vendor:       "V",
		Model:        "whatever",
		Architecture: "amd64",
		Board:        Board{Manufacturer: "V", ProductName: "BRD", Version: "v1"},
		Bios:         &BiosInfo{Vendor: "V", Version: "1.0"},
		OS:           OSInfo{Distributor: "Ubuntu", Version: "24.04", Codename: "noble"},
		Processor:    ProcessorInfo{Manufacturer: "Intel Corp.", Version: "i5-7300U-hw"},
	}
}

func TestScenario1UnknownVendor(t *testing.T) {
	f := seedScenario(t)
	req := baseRequest()
	req.Vendor = "Unknown"

	resp, detail, err := Classify(context.Background(), f, req)
	require.NoError(t, err)
	require.NotNil(t, detail)
	require.Equal(t, StatusNotSeen, resp.Status)
}

func TestScenario2BoardMismatch(t *testing.T) {
	f := seedScenario(t)
	req := baseRequest()
	req.Board.ProductName = "Different"

	resp, detail, err := Classify(context.Background(), f, req)
	require.NoError(t, err)
	require.NotNil(t, detail)
	require.Equal(t, StatusNotSeen, resp.Status)
}

func TestScenario3BiosMismatch(t *testing.T) {
	f := seedScenario(t)
	req := baseRequest()
	req.Bios = &BiosInfo{Vendor: "V", Version: "9.9"}

	resp, _, err := Classify(context.Background(), f, req)
	require.NoError(t, err)
	require.Equal(t, StatusNotSeen, resp.Status)
}

func TestScenario4CPUIncompatibleRelated(t *testing.T) {
	f := seedScenario(t)
	f.SeedCpuID("0x80671", "Amber Lake")
	req := baseRequest()
	req.Processor.Identifier = []byte{0x71, 0x06, 0x08}

	resp, detail, err := Classify(context.Background(), f, req)
	require.NoError(t, err)
	require.Nil(t, detail)
	require.Equal(t, StatusRelatedCertifiedSystem, resp.Status)
	require.Len(t, resp.AvailableReleases, 1)
	require.Equal(t, "noble", resp.AvailableReleases[0].Codename)
}

func TestScenario5CompatibleDifferentRelease(t *testing.T) {
	f := seedScenario(t)
	req := baseRequest()
	req.Processor.Identifier = []byte{0x71, 0x06, 0x0B}
	req.OS = OSInfo{Distributor: "Ubuntu", Version: "20.04", Codename: "focal"}

	resp, _, err := Classify(context.Background(), f, req)
	require.NoError(t, err)
	require.Equal(t, StatusCertifiedImageExists, resp.Status)
}

func TestScenario6CompatibleSameRelease(t *testing.T) {
	f := seedScenario(t)
	req := baseRequest()
	req.Processor.Identifier = []byte{0x71, 0x06, 0x0B}
	req.OS = OSInfo{Distributor: "Ubuntu", Version: "24.04", Codename: "noble"}

	resp, _, err := Classify(context.Background(), f, req)
	require.NoError(t, err)
	require.Equal(t, StatusCertified, resp.Status)
}

func TestBiosResponseCanonicalizesFromStore(t *testing.T) {
	// The request's free-text bios block (revision, firmware_revision) is
	// echoed nowhere; the response's bios block must come from the
	// matched store row instead, so two requests that match the same row
	// but disagree on free-text fields get identical responses.
	f := seedScenario(t)
	req := baseRequest()
	req.Bios.Revision = "this-does-not-match-the-store-row"
	req.Bios.FirmwareRevision = "neither-does-this"

	resp, _, err := Classify(context.Background(), f, req)
	require.NoError(t, err)
	require.Equal(t, StatusCertified, resp.Status)
	require.NotNil(t, resp.Bios)
	require.Equal(t, "V", resp.Bios.Vendor)
	require.Equal(t, "A", resp.Bios.Revision)
	require.Empty(t, resp.Bios.FirmwareRevision)
}

func TestMonotonicNarrowing(t *testing.T) {
	// If the full match yields Certified, changing only the release
	// should yield Certified Image Exists; changing the CPU too yields
	// Related Certified System Exists; changing board/bios yields Not
	// Seen - holding the store constant (testable property 1).
	f := seedScenario(t)
	certified := baseRequest()
	certified.Processor.Identifier = []byte{0x71, 0x06, 0x0B}
	certified.OS = OSInfo{Version: "24.04", Codename: "noble"}
	resp, _, err := Classify(context.Background(), f, certified)
	require.NoError(t, err)
	require.Equal(t, StatusCertified, resp.Status)

	imageExists := certified
	imageExists.OS = OSInfo{Version: "20.04", Codename: "focal"}
	resp, _, err = Classify(context.Background(), f, imageExists)
	require.NoError(t, err)
	require.Equal(t, StatusCertifiedImageExists, resp.Status)

	f.SeedCpuID("0x80671", "Amber Lake")
	related := imageExists
	related.Processor.Identifier = []byte{0x71, 0x06, 0x08}
	resp, _, err = Classify(context.Background(), f, related)
	require.NoError(t, err)
	require.Equal(t, StatusRelatedCertifiedSystem, resp.Status)

	notSeen := related
	notSeen.Board.ProductName = "Different"
	resp, _, err = Classify(context.Background(), f, notSeen)
	require.NoError(t, err)
	require.Equal(t, StatusNotSeen, resp.Status)
}

package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canonical/hardware-api/internal/model"
	"github.com/canonical/hardware-api/internal/store"
	"github.com/canonical/hardware-api/internal/upstream"
)

// fakeFetcher drives the loaders from in-memory fixtures instead of a
// real upstream.Client, so the pagination and skip-safety behavior can
// be exercised without any network access.
type fakeFetcher struct {
	catalog      upstream.CpuIDCatalog
	certPages    [][]upstream.CertificateDTO
	devicePages  [][]upstream.DeviceInstanceDTO
	catalogErr   error
	certErr      error
	deviceErr    error
}

func (f *fakeFetcher) FetchCpuIDCatalog(ctx context.Context) (upstream.CpuIDCatalog, error) {
	return f.catalog, f.catalogErr
}

func (f *fakeFetcher) FetchCertificates(ctx context.Context, handle upstream.CertificatePageHandler) error {
	if f.certErr != nil {
		return f.certErr
	}
	for _, page := range f.certPages {
		if err := handle(ctx, page); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeFetcher) FetchDeviceInstances(ctx context.Context, handle upstream.DeviceInstancePageHandler) error {
	if f.deviceErr != nil {
		return f.deviceErr
	}
	for _, page := range f.devicePages {
		if err := handle(ctx, page); err != nil {
			return err
		}
	}
	return nil
}

func TestImportCpuIDs(t *testing.T) {
	repo := store.NewFake()
	f := &fakeFetcher{catalog: upstream.CpuIDCatalog{
		"Coffee Lake": {"0x906ea", "0x906eb"},
	}}
	im := New(repo, f, nil)

	require.NoError(t, im.ImportCpuIDs(context.Background()))
	require.Equal(t, "Coffee Lake", repo.LookupCpuID("0x906ea"))
	require.Equal(t, "Coffee Lake", repo.LookupCpuID("0x906eb"))
}

// TestImportCertificatesStripsLTS covers scenario 7: a certificate page
// with release "22.04 LTS" creates a Release whose release string is
// "22.04".
func TestImportCertificatesStripsLTS(t *testing.T) {
	repo := store.NewFake()
	f := &fakeFetcher{certPages: [][]upstream.CertificateDTO{
		{
			{
				CanonicalID:     "M/202401-1",
				VendorName:      "Dell Inc.",
				PlatformName:    "Latitude",
				ConfigName:      "base",
				CertificateName: "C1",
				Release:         "22.04 LTS",
				Codename:        "jammy",
				Architecture:    "amd64",
			},
		},
	}}
	im := New(repo, f, nil)

	require.NoError(t, im.ImportCertificates(context.Background()))

	machine, err := repo.GetMachineByCanonicalID(context.Background(), "M/202401-1")
	require.NoError(t, err)
	require.NotNil(t, machine)

	release, err := repo.GetReleaseObject(context.Background(), "22.04", "jammy")
	require.NoError(t, err)
	require.Equal(t, "22.04", release.ReleaseStr)
	require.Equal(t, 2204, release.IVersion)

	cert, err := repo.GetCertificateByName(context.Background(), "C1")
	require.NoError(t, err)
	require.Equal(t, machine.ID, cert.MachineID)
}

// TestImportCertificatesBiosVersionDefaultsToName covers the §4.7 rule
// that an empty bios.version falls back to bios.name.
func TestImportCertificatesBiosVersionDefaultsToName(t *testing.T) {
	repo := store.NewFake()
	f := &fakeFetcher{certPages: [][]upstream.CertificateDTO{
		{
			{
				CanonicalID:     "M/202401-2",
				VendorName:      "Dell Inc.",
				PlatformName:    "Latitude",
				ConfigName:      "base",
				CertificateName: "C2",
				Release:         "24.04",
				Codename:        "noble",
				Architecture:    "amd64",
				Bios: &upstream.BiosDTO{
					Vendor: "Dell Inc.",
					Name:   "A07",
				},
			},
		},
	}}
	im := New(repo, f, nil)

	require.NoError(t, im.ImportCertificates(context.Background()))

	biosList, err := repo.GetBiosList(context.Background(), "Dell Inc.", "A07")
	require.NoError(t, err)
	require.Len(t, biosList, 1)
}

// TestImportDeviceInstancesSkipsUnknownMachine covers testable property
// 5 / scenario 8: an item referencing a machine that does not exist is
// skipped and leaves the store unchanged.
func TestImportDeviceInstancesSkipsUnknownMachine(t *testing.T) {
	repo := store.NewFake()
	f := &fakeFetcher{devicePages: [][]upstream.DeviceInstanceDTO{
		{
			{
				MachineCanonicalID: "does-not-exist",
				CertificateName:    "nope",
				VendorName:         "Intel Corp.",
				Name:               "i5-7300U",
				Category:           "PROCESSOR",
			},
		},
	}}
	im := New(repo, f, nil)

	require.NoError(t, im.ImportDeviceInstances(context.Background()))
	require.Equal(t, 0, repo.DeviceCount())
}

func TestImportDeviceInstancesAttachesAndUpdatesCodename(t *testing.T) {
	repo := store.NewFake()
	vendor := repo.SeedVendor("Intel Corp.")
	machine := repo.SeedMachine(model.Machine{CanonicalID: "M/202401-3"})
	release := repo.SeedRelease(model.Release{Codename: "noble", ReleaseStr: "24.04"})
	cert := repo.SeedCertificate(model.Certificate{MachineID: machine.ID, ReleaseID: release.ID, Name: "C3"})
	report := repo.SeedReport(model.Report{CertificateID: cert.ID, Architecture: "amd64"})
	_ = vendor

	f := &fakeFetcher{devicePages: [][]upstream.DeviceInstanceDTO{
		{
			{
				MachineCanonicalID: "M/202401-3",
				CertificateName:    "C3",
				VendorName:         "Intel Corp.",
				Name:               "i5-7300U",
				Category:           "PROCESSOR",
				CPUCodename:        "Raptor Lake",
			},
		},
	}}
	im := New(repo, f, nil)

	require.NoError(t, im.ImportDeviceInstances(context.Background()))

	devices := repo.DevicesForReport(report)
	require.Len(t, devices, 1)
	require.Equal(t, "Raptor Lake", devices[0].Codename)
}

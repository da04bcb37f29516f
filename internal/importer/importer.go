// Package importer implements the loaders (component H) that translate
// upstream DTOs into the entity store (A) via the repository (B) and the
// vendor normalizer (C), per spec §4.7.
package importer

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/canonical/hardware-api/internal/cpuid"
	"github.com/canonical/hardware-api/internal/model"
	"github.com/canonical/hardware-api/internal/normalize"
	"github.com/canonical/hardware-api/internal/store"
	"github.com/canonical/hardware-api/internal/upstream"
	"github.com/canonical/hardware-api/internal/zaperr"
)

// fetcher is the subset of *upstream.Client the loaders need; narrowing
// to an interface lets tests drive the loaders against a fake without
// making real HTTP calls.
type fetcher interface {
	FetchCpuIDCatalog(ctx context.Context) (upstream.CpuIDCatalog, error)
	FetchCertificates(ctx context.Context, handle upstream.CertificatePageHandler) error
	FetchDeviceInstances(ctx context.Context, handle upstream.DeviceInstancePageHandler) error
}

// Importer pulls the three upstream endpoints in order and writes rows
// via get-or-create, isolating one bad item from the rest of the batch
// (§4.7 "Integrity-error discipline").
type Importer struct {
	Repo     store.Repository
	Upstream fetcher
	Log      *zap.Logger
}

// New returns an Importer; a nil logger is replaced with a no-op one so
// callers need not special-case logging in tests.
func New(repo store.Repository, client fetcher, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{Repo: repo, Upstream: client, Log: log}
}

// Run executes the three loaders in the order the endpoints are listed
// in §4.7: CPU-ID catalog, public certificates, public device instances.
// A fetch failure that exhausts retries aborts the whole run (upstream
// I/O is non-recoverable within this call); per-item integrity errors
// are logged and skipped.
func (im *Importer) Run(ctx context.Context) error {
	if err := im.ImportCpuIDs(ctx); err != nil {
		return err
	}
	if err := im.ImportCertificates(ctx); err != nil {
		return err
	}
	if err := im.ImportDeviceInstances(ctx); err != nil {
		return err
	}
	return nil
}

// ImportCpuIDs loads /api/v2/cpuids/, one CpuId row per (codename,
// pattern) pair.
func (im *Importer) ImportCpuIDs(ctx context.Context) error {
	catalog, err := im.Upstream.FetchCpuIDCatalog(ctx)
	if err != nil {
		return err
	}
	for codename, patterns := range catalog {
		for _, pattern := range patterns {
			_, _, err := im.Repo.GetOrCreateCpuID(ctx, strings.ToLower(pattern), codename)
			if err != nil {
				im.Log.Warn("cpuid ingest skipped", zap.Any("detail", zaperr.Errorw(
					"cpuid ingest skipped", "codename", codename, "pattern", pattern, "error", err)))
				continue
			}
		}
	}
	return nil
}

// ImportCertificates loads /api/v2/public-certificates/, materializing
// Vendor, Platform, Configuration, Machine, optional Kernel, optional
// Bios, Release (with trailing "LTS" stripped), Certificate and a
// Report per item.
func (im *Importer) ImportCertificates(ctx context.Context) error {
	return im.Upstream.FetchCertificates(ctx, func(ctx context.Context, items []upstream.CertificateDTO) error {
		for _, item := range items {
			if err := im.ingestCertificate(ctx, item); err != nil {
				im.Log.Warn("certificate ingest skipped", zap.Any("detail", zaperr.Errorw(
					"certificate ingest skipped",
					"canonical_id", item.CanonicalID,
					"certificate_name", item.CertificateName,
					"error", err)))
				continue
			}
		}
		return nil
	})
}

func (im *Importer) ingestCertificate(ctx context.Context, item upstream.CertificateDTO) error {
	vendor, _, err := im.Repo.GetOrCreateVendor(ctx, item.VendorName)
	if err != nil {
		return err
	}
	platform, _, err := im.Repo.GetOrCreatePlatform(ctx, vendor.ID, item.PlatformName)
	if err != nil {
		return err
	}
	config, _, err := im.Repo.GetOrCreateConfiguration(ctx, platform.ID, item.ConfigName)
	if err != nil {
		return err
	}
	machine, _, err := im.Repo.GetOrCreateMachine(ctx, config.ID, item.CanonicalID)
	if err != nil {
		return err
	}

	var kernelID *int64
	if item.Kernel != nil {
		kernel, _, err := im.Repo.GetOrCreateKernel(ctx, item.Kernel.Name, item.Kernel.Version, item.Kernel.Signature)
		if err != nil {
			return err
		}
		kernelID = &kernel.ID
	}

	var biosID *int64
	if item.Bios != nil {
		biosVendor, _, err := im.Repo.GetOrCreateVendor(ctx, normalize.Vendor(item.Bios.Vendor))
		if err != nil {
			return err
		}
		// The BIOS version defaults to the upstream's bios.name when
		// bios.version is left empty (§4.7).
		version := item.Bios.Version
		if version == "" {
			version = item.Bios.Name
		}
		var releaseDate *string
		if item.Bios.ReleaseDate != "" {
			rd := item.Bios.ReleaseDate
			releaseDate = &rd
		}
		bios, _, err := im.Repo.GetOrCreateBios(ctx, biosVendor.ID, version, item.Bios.Revision, item.Bios.FirmwareRevision, releaseDate)
		if err != nil {
			return err
		}
		biosID = &bios.ID
	}

	releaseStr := stripLTS(item.Release)
	release, _, err := im.Repo.GetOrCreateRelease(ctx, item.Codename, releaseStr, iVersion(releaseStr))
	if err != nil {
		return err
	}

	cert, _, err := im.Repo.GetOrCreateCertificate(ctx, machine.ID, release.ID, item.CertificateName)
	if err != nil {
		return err
	}

	_, err = im.Repo.CreateReport(ctx, cert.ID, kernelID, biosID, item.Architecture)
	return err
}

// ImportDeviceInstances loads /api/v2/public-device-instances/. An item
// referencing a machine or certificate that does not already exist is
// logged and skipped without writing any row (testable property 5,
// scenario 8).
func (im *Importer) ImportDeviceInstances(ctx context.Context) error {
	return im.Upstream.FetchDeviceInstances(ctx, func(ctx context.Context, items []upstream.DeviceInstanceDTO) error {
		for _, item := range items {
			if err := im.ingestDeviceInstance(ctx, item); err != nil {
				im.Log.Warn("device instance ingest skipped", zap.Any("detail", zaperr.Errorw(
					"device instance ingest skipped",
					"machine_canonical_id", item.MachineCanonicalID,
					"certificate_name", item.CertificateName,
					"error", err)))
				continue
			}
		}
		return nil
	})
}

func (im *Importer) ingestDeviceInstance(ctx context.Context, item upstream.DeviceInstanceDTO) error {
	machine, err := im.Repo.GetMachineByCanonicalID(ctx, item.MachineCanonicalID)
	if err != nil {
		return err
	}
	cert, err := im.Repo.GetCertificateByName(ctx, item.CertificateName)
	if err != nil {
		return err
	}
	report, err := im.Repo.GetReportForCertificate(ctx, cert.ID)
	if err != nil {
		return err
	}
	_ = machine // referenced only to confirm the machine exists

	vendor, _, err := im.Repo.GetOrCreateVendor(ctx, item.VendorName)
	if err != nil {
		return err
	}

	category := model.DeviceCategory(strings.ToUpper(item.Category))
	if category == "" {
		category = model.CategoryOther
	}

	device, _, err := im.Repo.GetOrCreateDevice(ctx, vendor.ID, item.Name, item.Version, item.Subsystem, item.Bus, category)
	if err != nil {
		return err
	}

	if err := im.Repo.AttachDeviceToReport(ctx, report.ID, device.ID); err != nil {
		return err
	}

	if category == model.CategoryProcessor && item.CPUCodename != "" && item.CPUCodename != cpuid.Unknown {
		if err := im.Repo.UpdateDeviceCodename(ctx, device.ID, item.CPUCodename); err != nil {
			return err
		}
	}

	return nil
}

// Package store implements the entity store (component A) and repository
// (component B): a typed query surface over the vendor/platform/
// configuration/machine/release/certificate/kernel/bios/report/device/
// cpuid graph, backed by either Postgres (jmoiron/sqlx + lib/pq) or
// SQLite (mattn/go-sqlite3) through the same Repository interface.
package store

import (
	"context"

	"github.com/canonical/hardware-api/internal/cpuid"
	"github.com/canonical/hardware-api/internal/model"
)

// ReleaseKernel pairs a Release with the Kernel it was observed under in a
// Report; get_releases_and_kernels_for_machine returns distinct pairs.
type ReleaseKernel struct {
	Release model.Release
	Kernel  *model.Kernel
}

// Repository is the typed query surface the decision engine and importer
// depend on. Every method opens no transaction of its own wider than the
// single statement(s) it needs; the decision engine's gates are read-only
// and the importer commits per item (§5).
type Repository interface {
	// Decision engine reads (§4.3).
	GetVendorByName(ctx context.Context, name string) (*model.Vendor, error)
	GetBoard(ctx context.Context, vendorName, productName string) (*model.Device, error)
	GetBiosList(ctx context.Context, vendorName, version string) ([]model.Bios, error)
	GetMachineWithSameHardwareParams(ctx context.Context, arch string, board *model.Device, biosIDs []int64) (*model.Machine, error)
	GetCPUForMachine(ctx context.Context, machine *model.Machine) (*model.Device, error)
	GetReleasesAndKernelsForMachine(ctx context.Context, machine *model.Machine) ([]ReleaseKernel, error)
	GetReleaseObject(ctx context.Context, version, codename string) (*model.Release, error)
	GetMachineArchitecture(ctx context.Context, machine *model.Machine) (string, error)
	CpuIDPatterns(ctx context.Context) ([]cpuid.Pattern, error)
	GetVendorName(ctx context.Context, vendorID int64) (string, error)

	// Importer writes (§4.7), all via get-or-create semantics.
	GetOrCreateVendor(ctx context.Context, name string) (*model.Vendor, bool, error)
	GetOrCreatePlatform(ctx context.Context, vendorID int64, name string) (*model.Platform, bool, error)
	GetOrCreateConfiguration(ctx context.Context, platformID int64, name string) (*model.Configuration, bool, error)
	GetOrCreateMachine(ctx context.Context, configID int64, canonicalID string) (*model.Machine, bool, error)
	GetOrCreateKernel(ctx context.Context, name, version, signature string) (*model.Kernel, bool, error)
	GetOrCreateBios(ctx context.Context, vendorID int64, version, revision, firmwareRevision string, releaseDate *string) (*model.Bios, bool, error)
	GetOrCreateRelease(ctx context.Context, codename, releaseStr string, iVersion int) (*model.Release, bool, error)
	GetOrCreateCertificate(ctx context.Context, machineID, releaseID int64, name string) (*model.Certificate, bool, error)
	CreateReport(ctx context.Context, certificateID int64, kernelID, biosID *int64, architecture string) (*model.Report, error)
	GetMachineByCanonicalID(ctx context.Context, canonicalID string) (*model.Machine, error)
	GetCertificateByName(ctx context.Context, name string) (*model.Certificate, error)
	GetReportForCertificate(ctx context.Context, certificateID int64) (*model.Report, error)
	GetOrCreateDevice(ctx context.Context, vendorID int64, name, version, subsystem, bus string, category model.DeviceCategory) (*model.Device, bool, error)
	AttachDeviceToReport(ctx context.Context, reportID, deviceID int64) error
	UpdateDeviceCodename(ctx context.Context, deviceID int64, codename string) error
	GetOrCreateCpuID(ctx context.Context, idPattern, codename string) (*model.CpuId, bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// GetOrCreate implements Design Note 9's generic get-or-create constraint:
// look up by key; on NotFoundError, insert using defaults; on a unique
// violation racing another inserter, re-read the row the other inserter
// committed (no transaction is open, so there is nothing to roll back). It is generic
// over the row type R only — lookup and insert closures capture whatever
// key/defaults shape the caller needs, which keeps this helper usable for
// every entity in the graph without repeating the lookup-insert-reread
// dance per type.
func GetOrCreate[R any](
	ctx context.Context,
	lookup func(ctx context.Context) (*R, error),
	insert func(ctx context.Context) (*R, error),
) (*R, bool, error) {
	row, err := lookup(ctx)
	if err == nil {
		return row, false, nil
	}
	if !IsNotFound(err) {
		return nil, false, err
	}

	row, err = insert(ctx)
	if err == nil {
		return row, true, nil
	}
	if !IsUniqueViolation(err) {
		return nil, false, err
	}

	// Lost the insert race: another session committed the same key
	// first. Re-read rather than treating this as a caller-visible
	// error (§5: "must tolerate concurrent inserters").
	row, rerr := lookup(ctx)
	if rerr != nil {
		return nil, false, rerr
	}
	return row, false, nil
}

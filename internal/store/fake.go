package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/canonical/hardware-api/internal/cpuid"
	"github.com/canonical/hardware-api/internal/model"
	"github.com/canonical/hardware-api/internal/normalize"
)

// Fake is an in-memory Repository used by the decision engine, importer
// and response builder tests in place of a live Postgres/SQLite
// connection. The teacher's own store tests depend on a Docker-provisioned
// ephemeral Postgres (bg/common/briefpg) that this module has no way to
// exercise without running anything, so business logic here is tested
// against Fake instead, keeping PostgresStore/SqliteStore as structural
// grounding rather than directly unit-tested code paths.
type Fake struct {
	mu sync.Mutex

	nextID int64

	vendors   []model.Vendor
	devices   []model.Device
	bioses    []model.Bios
	machines  []model.Machine
	certs     []model.Certificate
	reports   []model.Report
	releases  []model.Release
	kernels   []model.Kernel
	cpuids    []model.CpuId
	reportDev map[int64][]int64 // reportID -> deviceIDs
	configs   []model.Configuration
	platforms []model.Platform
}

// NewFake returns an empty in-memory Repository.
func NewFake() *Fake {
	return &Fake{reportDev: make(map[int64][]int64)}
}

func (f *Fake) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *Fake) Ping(ctx context.Context) error { return nil }
func (f *Fake) Close() error                   { return nil }

// --- seeding helpers (not part of Repository; used directly by tests) ---

func (f *Fake) SeedVendor(name string) *model.Vendor {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := model.Vendor{ID: f.id(), Name: name}
	f.vendors = append(f.vendors, v)
	return &f.vendors[len(f.vendors)-1]
}

func (f *Fake) SeedDevice(d model.Device) *model.Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.ID = f.id()
	f.devices = append(f.devices, d)
	return &f.devices[len(f.devices)-1]
}

func (f *Fake) SeedBios(b model.Bios) *model.Bios {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = f.id()
	f.bioses = append(f.bioses, b)
	return &f.bioses[len(f.bioses)-1]
}

func (f *Fake) SeedRelease(r model.Release) *model.Release {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = f.id()
	f.releases = append(f.releases, r)
	return &f.releases[len(f.releases)-1]
}

func (f *Fake) SeedMachine(m model.Machine) *model.Machine {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = f.id()
	f.machines = append(f.machines, m)
	return &f.machines[len(f.machines)-1]
}

func (f *Fake) SeedCertificate(c model.Certificate) *model.Certificate {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.id()
	f.certs = append(f.certs, c)
	return &f.certs[len(f.certs)-1]
}

func (f *Fake) SeedKernel(k model.Kernel) *model.Kernel {
	f.mu.Lock()
	defer f.mu.Unlock()
	k.ID = f.id()
	f.kernels = append(f.kernels, k)
	return &f.kernels[len(f.kernels)-1]
}

func (f *Fake) SeedReport(r model.Report, deviceIDs ...int64) *model.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = f.id()
	f.reports = append(f.reports, r)
	f.reportDev[r.ID] = append(f.reportDev[r.ID], deviceIDs...)
	return &f.reports[len(f.reports)-1]
}

func (f *Fake) SeedCpuID(pattern, codename string) *model.CpuId {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := model.CpuId{ID: f.id(), IDPattern: pattern, Codename: codename}
	f.cpuids = append(f.cpuids, c)
	return &f.cpuids[len(f.cpuids)-1]
}

// --- test-support accessors (not part of Repository) ---

// LookupCpuID returns the codename stored for an exact IDPattern match,
// or "" if none; used by importer tests to assert ingested rows.
func (f *Fake) LookupCpuID(pattern string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cpuids {
		if c.IDPattern == pattern {
			return c.Codename
		}
	}
	return ""
}

// DeviceCount returns the number of Device rows currently stored.
func (f *Fake) DeviceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.devices)
}

// DevicesForReport returns the Devices attached to report via the
// report/device association table.
func (f *Fake) DevicesForReport(report *model.Report) []model.Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Device
	for _, did := range f.reportDev[report.ID] {
		if d := f.deviceByID(did); d != nil {
			out = append(out, *d)
		}
	}
	return out
}

// --- Repository reads ---

func (f *Fake) GetVendorByName(ctx context.Context, name string) (*model.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.vendors {
		if normalize.VendorsMatch(f.vendors[i].Name, name) {
			return &f.vendors[i], nil
		}
	}
	return nil, NotFoundError{Message: fmt.Sprintf("no vendor matching %q", name)}
}

func (f *Fake) GetBoard(ctx context.Context, vendorName, productName string) (*model.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.devices {
		d := &f.devices[i]
		if d.Category != model.CategoryBoard && d.Category != model.CategoryOther {
			continue
		}
		v := f.vendorByID(d.VendorID)
		if v == nil || !normalize.VendorsMatch(v.Name, vendorName) {
			continue
		}
		if !equalFold(d.Name, productName) {
			continue
		}
		return d, nil
	}
	return nil, NotFoundError{Message: fmt.Sprintf("no board matching vendor=%q product=%q", vendorName, productName)}
}

func (f *Fake) vendorByID(id int64) *model.Vendor {
	for i := range f.vendors {
		if f.vendors[i].ID == id {
			return &f.vendors[i]
		}
	}
	return nil
}

func equalFold(a, b string) bool {
	return strEqualFold(a, b)
}

func (f *Fake) GetBiosList(ctx context.Context, vendorName, version string) ([]model.Bios, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Bios
	for _, b := range f.bioses {
		v := f.vendorByID(b.VendorID)
		if v == nil || !normalize.VendorsMatch(v.Name, vendorName) {
			continue
		}
		if b.Version != version {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *Fake) GetMachineWithSameHardwareParams(ctx context.Context, arch string, board *model.Device, biosIDs []int64) (*model.Machine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	biosSet := make(map[int64]bool, len(biosIDs))
	for _, id := range biosIDs {
		biosSet[id] = true
	}
	for _, r := range f.reports {
		if r.Architecture != arch {
			continue
		}
		if len(biosIDs) == 0 {
			if r.BiosID != nil {
				continue
			}
		} else {
			if r.BiosID == nil || !biosSet[*r.BiosID] {
				continue
			}
		}
		attached := f.reportDev[r.ID]
		hasBoard := false
		for _, did := range attached {
			if did == board.ID {
				hasBoard = true
				break
			}
		}
		if !hasBoard {
			continue
		}
		cert := f.certByID(r.CertificateID)
		if cert == nil {
			continue
		}
		m := f.machineByID(cert.MachineID)
		if m != nil {
			return m, nil
		}
	}
	return nil, NotFoundError{Message: "no machine with matching hardware params"}
}

func (f *Fake) certByID(id int64) *model.Certificate {
	for i := range f.certs {
		if f.certs[i].ID == id {
			return &f.certs[i]
		}
	}
	return nil
}

func (f *Fake) machineByID(id int64) *model.Machine {
	for i := range f.machines {
		if f.machines[i].ID == id {
			return &f.machines[i]
		}
	}
	return nil
}

func (f *Fake) deviceByID(id int64) *model.Device {
	for i := range f.devices {
		if f.devices[i].ID == id {
			return &f.devices[i]
		}
	}
	return nil
}

func (f *Fake) GetCPUForMachine(ctx context.Context, machine *model.Machine) (*model.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *model.Device
	var bestCertID int64 = -1
	for _, r := range f.reports {
		cert := f.certByID(r.CertificateID)
		if cert == nil || cert.MachineID != machine.ID {
			continue
		}
		for _, did := range f.reportDev[r.ID] {
			d := f.deviceByID(did)
			if d != nil && d.Category == model.CategoryProcessor {
				if cert.ID > bestCertID {
					bestCertID = cert.ID
					found = d
				}
			}
		}
	}
	return found, nil
}

func (f *Fake) GetReleasesAndKernelsForMachine(ctx context.Context, machine *model.Machine) ([]ReleaseKernel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var out []ReleaseKernel
	for _, r := range f.reports {
		cert := f.certByID(r.CertificateID)
		if cert == nil || cert.MachineID != machine.ID {
			continue
		}
		rel := f.releaseByID(cert.ReleaseID)
		if rel == nil {
			continue
		}
		var kernel *model.Kernel
		if r.KernelID != nil {
			kernel = f.kernelByID(*r.KernelID)
		}
		key := fmt.Sprintf("%d", rel.ID)
		if kernel != nil {
			key = fmt.Sprintf("%d-%d", rel.ID, kernel.ID)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ReleaseKernel{Release: *rel, Kernel: kernel})
	}
	return out, nil
}

func (f *Fake) releaseByID(id int64) *model.Release {
	for i := range f.releases {
		if f.releases[i].ID == id {
			return &f.releases[i]
		}
	}
	return nil
}

func (f *Fake) kernelByID(id int64) *model.Kernel {
	for i := range f.kernels {
		if f.kernels[i].ID == id {
			return &f.kernels[i]
		}
	}
	return nil
}

func (f *Fake) GetReleaseObject(ctx context.Context, version, codename string) (*model.Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.releases {
		if f.releases[i].ReleaseStr == version && f.releases[i].Codename == codename {
			return &f.releases[i], nil
		}
	}
	return nil, nil
}

func (f *Fake) GetMachineArchitecture(ctx context.Context, machine *model.Machine) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var arch string
	var bestCertID int64 = -1
	for _, r := range f.reports {
		cert := f.certByID(r.CertificateID)
		if cert == nil || cert.MachineID != machine.ID {
			continue
		}
		if cert.ID > bestCertID {
			bestCertID = cert.ID
			arch = r.Architecture
		}
	}
	if bestCertID == -1 {
		return "", NotFoundError{Message: "no report found for machine"}
	}
	return arch, nil
}

func (f *Fake) GetVendorName(ctx context.Context, vendorID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.vendorByID(vendorID)
	if v == nil {
		return "", NotFoundError{Message: fmt.Sprintf("no vendor with id %d", vendorID)}
	}
	return v.Name, nil
}

func (f *Fake) CpuIDPatterns(ctx context.Context) ([]cpuid.Pattern, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]cpuid.Pattern, len(f.cpuids))
	for i, c := range f.cpuids {
		out[i] = cpuid.Pattern{IDPattern: c.IDPattern, Codename: c.Codename}
	}
	return out, nil
}

// --- Repository writes (importer) ---

func (f *Fake) GetOrCreateVendor(ctx context.Context, name string) (*model.Vendor, bool, error) {
	lookup := func(ctx context.Context) (*model.Vendor, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.vendors {
			if f.vendors[i].Name == name {
				return &f.vendors[i], nil
			}
		}
		return nil, NotFoundError{Message: "vendor " + name}
	}
	insert := func(ctx context.Context) (*model.Vendor, error) {
		return f.SeedVendor(name), nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (f *Fake) GetOrCreatePlatform(ctx context.Context, vendorID int64, name string) (*model.Platform, bool, error) {
	lookup := func(ctx context.Context) (*model.Platform, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.platforms {
			if f.platforms[i].VendorID == vendorID && f.platforms[i].Name == name {
				return &f.platforms[i], nil
			}
		}
		return nil, NotFoundError{Message: "platform " + name}
	}
	insert := func(ctx context.Context) (*model.Platform, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		p := model.Platform{ID: f.id(), VendorID: vendorID, Name: name}
		f.platforms = append(f.platforms, p)
		return &f.platforms[len(f.platforms)-1], nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (f *Fake) GetOrCreateConfiguration(ctx context.Context, platformID int64, name string) (*model.Configuration, bool, error) {
	lookup := func(ctx context.Context) (*model.Configuration, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.configs {
			if f.configs[i].PlatformID == platformID && f.configs[i].Name == name {
				return &f.configs[i], nil
			}
		}
		return nil, NotFoundError{Message: "configuration " + name}
	}
	insert := func(ctx context.Context) (*model.Configuration, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		c := model.Configuration{ID: f.id(), PlatformID: platformID, Name: name}
		f.configs = append(f.configs, c)
		return &f.configs[len(f.configs)-1], nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (f *Fake) GetOrCreateMachine(ctx context.Context, configID int64, canonicalID string) (*model.Machine, bool, error) {
	lookup := func(ctx context.Context) (*model.Machine, error) {
		m, err := f.GetMachineByCanonicalID(ctx, canonicalID)
		return m, err
	}
	insert := func(ctx context.Context) (*model.Machine, error) {
		return f.SeedMachine(model.Machine{ConfigurationID: configID, CanonicalID: canonicalID}), nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (f *Fake) GetOrCreateKernel(ctx context.Context, name, version, signature string) (*model.Kernel, bool, error) {
	lookup := func(ctx context.Context) (*model.Kernel, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.kernels {
			k := &f.kernels[i]
			if k.Name == name && k.Version == version && k.Signature == signature {
				return k, nil
			}
		}
		return nil, NotFoundError{Message: "kernel " + version}
	}
	insert := func(ctx context.Context) (*model.Kernel, error) {
		return f.SeedKernel(model.Kernel{Name: name, Version: version, Signature: signature}), nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (f *Fake) GetOrCreateBios(ctx context.Context, vendorID int64, version, revision, firmwareRevision string, releaseDate *string) (*model.Bios, bool, error) {
	lookup := func(ctx context.Context) (*model.Bios, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.bioses {
			b := &f.bioses[i]
			if b.VendorID == vendorID && b.Version == version && b.Revision == revision && b.FirmwareRevision == firmwareRevision {
				return b, nil
			}
		}
		return nil, NotFoundError{Message: "bios " + version}
	}
	insert := func(ctx context.Context) (*model.Bios, error) {
		return f.SeedBios(model.Bios{VendorID: vendorID, Version: version, Revision: revision, FirmwareRevision: firmwareRevision}), nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (f *Fake) GetOrCreateRelease(ctx context.Context, codename, releaseStr string, iVersion int) (*model.Release, bool, error) {
	lookup := func(ctx context.Context) (*model.Release, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.releases {
			r := &f.releases[i]
			if r.Codename == codename && r.ReleaseStr == releaseStr {
				return r, nil
			}
		}
		return nil, NotFoundError{Message: "release " + releaseStr}
	}
	insert := func(ctx context.Context) (*model.Release, error) {
		return f.SeedRelease(model.Release{Codename: codename, ReleaseStr: releaseStr, IVersion: iVersion}), nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (f *Fake) GetOrCreateCertificate(ctx context.Context, machineID, releaseID int64, name string) (*model.Certificate, bool, error) {
	lookup := func(ctx context.Context) (*model.Certificate, error) {
		return f.GetCertificateByName(ctx, name)
	}
	insert := func(ctx context.Context) (*model.Certificate, error) {
		return f.SeedCertificate(model.Certificate{MachineID: machineID, ReleaseID: releaseID, Name: name}), nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (f *Fake) CreateReport(ctx context.Context, certificateID int64, kernelID, biosID *int64, architecture string) (*model.Report, error) {
	return f.SeedReport(model.Report{CertificateID: certificateID, KernelID: kernelID, BiosID: biosID, Architecture: architecture}), nil
}

func (f *Fake) GetMachineByCanonicalID(ctx context.Context, canonicalID string) (*model.Machine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.machines {
		if f.machines[i].CanonicalID == canonicalID {
			return &f.machines[i], nil
		}
	}
	return nil, NotFoundError{Message: fmt.Sprintf("no machine with canonical_id %q", canonicalID)}
}

func (f *Fake) GetCertificateByName(ctx context.Context, name string) (*model.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.certs {
		if f.certs[i].Name == name {
			return &f.certs[i], nil
		}
	}
	return nil, NotFoundError{Message: fmt.Sprintf("no certificate named %q", name)}
}

func (f *Fake) GetReportForCertificate(ctx context.Context, certificateID int64) (*model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *model.Report
	for i := range f.reports {
		if f.reports[i].CertificateID == certificateID {
			if best == nil || f.reports[i].ID > best.ID {
				best = &f.reports[i]
			}
		}
	}
	if best == nil {
		return nil, NotFoundError{Message: fmt.Sprintf("no report for certificate %d", certificateID)}
	}
	return best, nil
}

func (f *Fake) GetOrCreateDevice(ctx context.Context, vendorID int64, name, version, subsystem, bus string, category model.DeviceCategory) (*model.Device, bool, error) {
	lookup := func(ctx context.Context) (*model.Device, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.devices {
			d := &f.devices[i]
			if d.VendorID == vendorID && d.Name == name && d.Version == version && d.Subsystem == subsystem && d.Bus == bus && d.Category == category {
				return d, nil
			}
		}
		return nil, NotFoundError{Message: "device " + name}
	}
	insert := func(ctx context.Context) (*model.Device, error) {
		return f.SeedDevice(model.Device{VendorID: vendorID, Name: name, Version: version, Subsystem: subsystem, Bus: bus, Category: category}), nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (f *Fake) AttachDeviceToReport(ctx context.Context, reportID, deviceID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.reportDev[reportID] {
		if id == deviceID {
			return nil
		}
	}
	f.reportDev[reportID] = append(f.reportDev[reportID], deviceID)
	return nil
}

func (f *Fake) UpdateDeviceCodename(ctx context.Context, deviceID int64, codename string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.devices {
		if f.devices[i].ID == deviceID {
			if f.devices[i].Codename == "" || f.devices[i].Codename == "Unknown" {
				f.devices[i].Codename = codename
			}
			return nil
		}
	}
	return nil
}

func (f *Fake) GetOrCreateCpuID(ctx context.Context, idPattern, codename string) (*model.CpuId, bool, error) {
	lookup := func(ctx context.Context) (*model.CpuId, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.cpuids {
			if f.cpuids[i].IDPattern == idPattern && f.cpuids[i].Codename == codename {
				return &f.cpuids[i], nil
			}
		}
		return nil, NotFoundError{Message: "cpuid " + idPattern}
	}
	insert := func(ctx context.Context) (*model.CpuId, error) {
		return f.SeedCpuID(idPattern, codename), nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func strEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

var _ Repository = (*Fake)(nil)
var _ Repository = (*PostgresStore)(nil)
var _ Repository = (*SqliteStore)(nil)

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	// Registers the "postgres" driver with database/sql.
	_ "github.com/lib/pq"

	"github.com/canonical/hardware-api/internal/cpuid"
	"github.com/canonical/hardware-api/internal/model"
	"github.com/canonical/hardware-api/internal/normalize"
)

// PostgresStore is the Repository implementation backed by
// github.com/jmoiron/sqlx and github.com/lib/pq, following
// bg/cloud_models/appliancedb's pattern of a thin struct wrapping
// *sqlx.DB and translating sql.ErrNoRows / *pq.Error at the query
// boundary rather than letting driver errors leak to callers.
type PostgresStore struct {
	db *sqlx.DB
}

// ConnectPostgres opens a connection pool against dataSource (a
// postgres:// URI or libpq keyword string) and loads the entity-store
// schema if it isn't present yet. It mirrors appliancedb.Connect's
// SetMaxOpenConns tuning: this service issues narrow, short-lived
// queries per request (§5), so a modest pool is enough.
func ConnectPostgres(dataSource string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dataSource)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}
	db.SetMaxOpenConns(16)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to load schema")
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// --- decision engine reads (§4.3) ---

func (s *PostgresStore) GetVendorByName(ctx context.Context, name string) (*model.Vendor, error) {
	vendors, err := s.vendorsLike(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(vendors) == 0 {
		return nil, NotFoundError{Message: fmt.Sprintf("no vendor matching %q", name)}
	}
	v := vendors[0]
	return &v, nil
}

// vendorsLike fetches every vendor and filters through normalize.VendorsMatch
// in Go, rather than reimplementing the suffix-stripping rule as a SQL
// expression, so the repository and the decision engine agree on exactly
// one definition of "same vendor" (mirrors SqliteStore.vendorsLike).
func (s *PostgresStore) vendorsLike(ctx context.Context, name string) ([]model.Vendor, error) {
	var all []model.Vendor
	if err := s.db.SelectContext(ctx, &all, `SELECT id, name FROM vendor`); err != nil {
		return nil, translatePQError(err)
	}
	var matched []model.Vendor
	for _, v := range all {
		if normalize.VendorsMatch(v.Name, name) {
			matched = append(matched, v)
		}
	}
	return matched, nil
}

func (s *PostgresStore) GetBoard(ctx context.Context, vendorName, productName string) (*model.Device, error) {
	vendors, err := s.vendorsLike(ctx, vendorName)
	if err != nil {
		return nil, err
	}
	const q = `
SELECT id, vendor_id, identifier, name, subproduct_name, device_type, bus, version, subsystem, category, codename
FROM device WHERE vendor_id = $1 AND lower(name) = lower($2) AND category IN ('BOARD', 'OTHER') LIMIT 1`
	for _, v := range vendors {
		var d model.Device
		err := s.db.GetContext(ctx, &d, q, v.ID, productName)
		if err == nil {
			return &d, nil
		}
		if err != sql.ErrNoRows {
			return nil, translatePQError(err)
		}
	}
	return nil, NotFoundError{Message: fmt.Sprintf("no board matching vendor=%q product=%q", vendorName, productName)}
}

func (s *PostgresStore) GetBiosList(ctx context.Context, vendorName, version string) ([]model.Bios, error) {
	vendors, err := s.vendorsLike(ctx, vendorName)
	if err != nil {
		return nil, err
	}
	const q = `
SELECT id, vendor_id, version, revision, firmware_revision, release_date FROM bios
WHERE vendor_id = $1 AND version = $2 ORDER BY id`
	var out []model.Bios
	for _, v := range vendors {
		var rows []model.Bios
		if err := s.db.SelectContext(ctx, &rows, q, v.ID, version); err != nil {
			return nil, translatePQError(err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (s *PostgresStore) GetMachineWithSameHardwareParams(ctx context.Context, arch string, board *model.Device, biosIDs []int64) (*model.Machine, error) {
	var m model.Machine
	var q string
	var args []interface{}

	base := `
SELECT DISTINCT m.id, m.configuration_id, m.canonical_id
FROM machine m
JOIN certificate c ON c.machine_id = m.id
JOIN report r ON r.certificate_id = c.id
JOIN report_device rd ON rd.report_id = r.id
WHERE rd.device_id = $1 AND r.architecture = $2`

	if len(biosIDs) == 0 {
		q = base + " AND r.bios_id IS NULL LIMIT 1"
		args = []interface{}{board.ID, arch}
	} else {
		inQ, inArgs, err := sqlx.In(base+" AND r.bios_id IN (?) LIMIT 1", board.ID, arch, biosIDs)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build bios_id IN clause")
		}
		q = s.db.Rebind(inQ)
		args = inArgs
	}

	err := s.db.GetContext(ctx, &m, q, args...)
	switch err {
	case nil:
		return &m, nil
	case sql.ErrNoRows:
		return nil, NotFoundError{Message: "no machine with matching hardware params"}
	default:
		return nil, translatePQError(err)
	}
}

func (s *PostgresStore) GetCPUForMachine(ctx context.Context, machine *model.Machine) (*model.Device, error) {
	var d model.Device
	const q = `
SELECT d.id, d.vendor_id, d.identifier, d.name, d.subproduct_name, d.device_type,
       d.bus, d.version, d.subsystem, d.category, d.codename
FROM device d
JOIN report_device rd ON rd.device_id = d.id
JOIN report r ON r.id = rd.report_id
JOIN certificate c ON c.id = r.certificate_id
WHERE c.machine_id = $1 AND d.category = 'PROCESSOR'
ORDER BY c.id DESC, r.id DESC
LIMIT 1`
	err := s.db.GetContext(ctx, &d, q, machine.ID)
	switch err {
	case nil:
		return &d, nil
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, translatePQError(err)
	}
}

func (s *PostgresStore) GetReleasesAndKernelsForMachine(ctx context.Context, machine *model.Machine) ([]ReleaseKernel, error) {
	type row struct {
		model.Release
		KernelID        sql.NullInt64  `db:"kernel_id"`
		KernelName      sql.NullString `db:"kernel_name"`
		KernelVersion   sql.NullString `db:"kernel_version"`
		KernelSignature sql.NullString `db:"kernel_signature"`
	}
	var rows []row
	const q = `
SELECT DISTINCT rel.id, rel.codename, rel.release_str, rel.release_date, rel.supported_until, rel.i_version,
       k.id AS kernel_id, k.name AS kernel_name, k.version AS kernel_version, k.signature AS kernel_signature
FROM release rel
JOIN certificate c ON c.release_id = rel.id
JOIN report r ON r.certificate_id = c.id
LEFT JOIN kernel k ON k.id = r.kernel_id
WHERE c.machine_id = $1`
	if err := s.db.SelectContext(ctx, &rows, q, machine.ID); err != nil {
		return nil, translatePQError(err)
	}

	out := make([]ReleaseKernel, 0, len(rows))
	for _, r := range rows {
		rk := ReleaseKernel{Release: r.Release}
		if r.KernelID.Valid {
			rk.Kernel = &model.Kernel{
				ID:        r.KernelID.Int64,
				Name:      r.KernelName.String,
				Version:   r.KernelVersion.String,
				Signature: r.KernelSignature.String,
			}
		}
		out = append(out, rk)
	}
	return out, nil
}

func (s *PostgresStore) GetReleaseObject(ctx context.Context, version, codename string) (*model.Release, error) {
	var rel model.Release
	const q = `SELECT id, codename, release_str, release_date, supported_until, i_version FROM release WHERE release_str = $1 AND codename = $2`
	err := s.db.GetContext(ctx, &rel, q, version, codename)
	switch err {
	case nil:
		return &rel, nil
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, translatePQError(err)
	}
}

func (s *PostgresStore) GetMachineArchitecture(ctx context.Context, machine *model.Machine) (string, error) {
	var arch string
	const q = `
SELECT r.architecture
FROM report r
JOIN certificate c ON c.id = r.certificate_id
WHERE c.machine_id = $1
ORDER BY c.id DESC, r.id DESC
LIMIT 1`
	err := s.db.GetContext(ctx, &arch, q, machine.ID)
	switch err {
	case nil:
		return arch, nil
	case sql.ErrNoRows:
		return "", NotFoundError{Message: "no report found for machine"}
	default:
		return "", translatePQError(err)
	}
}

func (s *PostgresStore) GetVendorName(ctx context.Context, vendorID int64) (string, error) {
	var name string
	err := s.db.GetContext(ctx, &name, `SELECT name FROM vendor WHERE id = $1`, vendorID)
	switch err {
	case nil:
		return name, nil
	case sql.ErrNoRows:
		return "", NotFoundError{Message: fmt.Sprintf("no vendor with id %d", vendorID)}
	default:
		return "", translatePQError(err)
	}
}

func (s *PostgresStore) CpuIDPatterns(ctx context.Context) ([]cpuid.Pattern, error) {
	var rows []struct {
		IDPattern string `db:"id_pattern"`
		Codename  string `db:"codename"`
	}
	const q = `SELECT id_pattern, codename FROM cpu_id ORDER BY id`
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, translatePQError(err)
	}
	out := make([]cpuid.Pattern, len(rows))
	for i, r := range rows {
		out[i] = cpuid.Pattern{IDPattern: r.IDPattern, Codename: r.Codename}
	}
	return out, nil
}

// --- importer writes (§4.7), each via GetOrCreate ---

func (s *PostgresStore) GetOrCreateVendor(ctx context.Context, name string) (*model.Vendor, bool, error) {
	lookup := func(ctx context.Context) (*model.Vendor, error) {
		var v model.Vendor
		err := s.db.GetContext(ctx, &v, `SELECT id, name FROM vendor WHERE name = $1`, name)
		return rowOrNotFound(&v, err, "vendor %q", name)
	}
	insert := func(ctx context.Context) (*model.Vendor, error) {
		var v model.Vendor
		err := s.db.GetContext(ctx, &v,
			`INSERT INTO vendor (name) VALUES ($1) RETURNING id, name`, name)
		if err != nil {
			return nil, translatePQError(err)
		}
		return &v, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *PostgresStore) GetOrCreatePlatform(ctx context.Context, vendorID int64, name string) (*model.Platform, bool, error) {
	lookup := func(ctx context.Context) (*model.Platform, error) {
		var p model.Platform
		err := s.db.GetContext(ctx, &p,
			`SELECT id, vendor_id, name FROM platform WHERE vendor_id = $1 AND name = $2`, vendorID, name)
		return rowOrNotFound(&p, err, "platform %q/%d", name, vendorID)
	}
	insert := func(ctx context.Context) (*model.Platform, error) {
		var p model.Platform
		err := s.db.GetContext(ctx, &p,
			`INSERT INTO platform (vendor_id, name) VALUES ($1, $2) RETURNING id, vendor_id, name`,
			vendorID, name)
		if err != nil {
			return nil, translatePQError(err)
		}
		return &p, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *PostgresStore) GetOrCreateConfiguration(ctx context.Context, platformID int64, name string) (*model.Configuration, bool, error) {
	lookup := func(ctx context.Context) (*model.Configuration, error) {
		var c model.Configuration
		err := s.db.GetContext(ctx, &c,
			`SELECT id, platform_id, name FROM configuration WHERE platform_id = $1 AND name = $2`, platformID, name)
		return rowOrNotFound(&c, err, "configuration %q/%d", name, platformID)
	}
	insert := func(ctx context.Context) (*model.Configuration, error) {
		var c model.Configuration
		err := s.db.GetContext(ctx, &c,
			`INSERT INTO configuration (platform_id, name) VALUES ($1, $2) RETURNING id, platform_id, name`,
			platformID, name)
		if err != nil {
			return nil, translatePQError(err)
		}
		return &c, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *PostgresStore) GetOrCreateMachine(ctx context.Context, configID int64, canonicalID string) (*model.Machine, bool, error) {
	lookup := func(ctx context.Context) (*model.Machine, error) {
		var m model.Machine
		err := s.db.GetContext(ctx, &m,
			`SELECT id, configuration_id, canonical_id FROM machine WHERE canonical_id = $1`, canonicalID)
		return rowOrNotFound(&m, err, "machine %q", canonicalID)
	}
	insert := func(ctx context.Context) (*model.Machine, error) {
		var m model.Machine
		err := s.db.GetContext(ctx, &m,
			`INSERT INTO machine (configuration_id, canonical_id) VALUES ($1, $2) RETURNING id, configuration_id, canonical_id`,
			configID, canonicalID)
		if err != nil {
			return nil, translatePQError(err)
		}
		return &m, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *PostgresStore) GetOrCreateKernel(ctx context.Context, name, version, signature string) (*model.Kernel, bool, error) {
	lookup := func(ctx context.Context) (*model.Kernel, error) {
		var k model.Kernel
		err := s.db.GetContext(ctx, &k,
			`SELECT id, name, version, signature FROM kernel WHERE name = $1 AND version = $2 AND signature = $3`,
			name, version, signature)
		return rowOrNotFound(&k, err, "kernel %q/%q", name, version)
	}
	insert := func(ctx context.Context) (*model.Kernel, error) {
		var k model.Kernel
		err := s.db.GetContext(ctx, &k,
			`INSERT INTO kernel (name, version, signature) VALUES ($1, $2, $3) RETURNING id, name, version, signature`,
			name, version, signature)
		if err != nil {
			return nil, translatePQError(err)
		}
		return &k, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *PostgresStore) GetOrCreateBios(ctx context.Context, vendorID int64, version, revision, firmwareRevision string, releaseDate *string) (*model.Bios, bool, error) {
	lookup := func(ctx context.Context) (*model.Bios, error) {
		var b model.Bios
		err := s.db.GetContext(ctx, &b,
			`SELECT id, vendor_id, version, revision, firmware_revision, release_date FROM bios
			 WHERE vendor_id = $1 AND version = $2 AND revision = $3 AND firmware_revision = $4`,
			vendorID, version, revision, firmwareRevision)
		return rowOrNotFound(&b, err, "bios %d/%q", vendorID, version)
	}
	insert := func(ctx context.Context) (*model.Bios, error) {
		var b model.Bios
		err := s.db.GetContext(ctx, &b,
			`INSERT INTO bios (vendor_id, version, revision, firmware_revision, release_date)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, vendor_id, version, revision, firmware_revision, release_date`,
			vendorID, version, revision, firmwareRevision, releaseDate)
		if err != nil {
			return nil, translatePQError(err)
		}
		return &b, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *PostgresStore) GetOrCreateRelease(ctx context.Context, codename, releaseStr string, iVersion int) (*model.Release, bool, error) {
	lookup := func(ctx context.Context) (*model.Release, error) {
		var r model.Release
		err := s.db.GetContext(ctx, &r,
			`SELECT id, codename, release_str, release_date, supported_until, i_version FROM release
			 WHERE codename = $1 AND release_str = $2`, codename, releaseStr)
		return rowOrNotFound(&r, err, "release %q/%q", codename, releaseStr)
	}
	insert := func(ctx context.Context) (*model.Release, error) {
		var r model.Release
		err := s.db.GetContext(ctx, &r,
			`INSERT INTO release (codename, release_str, i_version) VALUES ($1, $2, $3)
			 RETURNING id, codename, release_str, release_date, supported_until, i_version`,
			codename, releaseStr, iVersion)
		if err != nil {
			return nil, translatePQError(err)
		}
		return &r, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *PostgresStore) GetOrCreateCertificate(ctx context.Context, machineID, releaseID int64, name string) (*model.Certificate, bool, error) {
	lookup := func(ctx context.Context) (*model.Certificate, error) {
		var c model.Certificate
		err := s.db.GetContext(ctx, &c,
			`SELECT id, machine_id, release_id, name, created_at, completed_at FROM certificate WHERE name = $1`, name)
		return rowOrNotFound(&c, err, "certificate %q", name)
	}
	insert := func(ctx context.Context) (*model.Certificate, error) {
		var c model.Certificate
		err := s.db.GetContext(ctx, &c,
			`INSERT INTO certificate (machine_id, release_id, name) VALUES ($1, $2, $3)
			 RETURNING id, machine_id, release_id, name, created_at, completed_at`,
			machineID, releaseID, name)
		if err != nil {
			return nil, translatePQError(err)
		}
		return &c, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *PostgresStore) CreateReport(ctx context.Context, certificateID int64, kernelID, biosID *int64, architecture string) (*model.Report, error) {
	var r model.Report
	err := s.db.GetContext(ctx, &r,
		`INSERT INTO report (certificate_id, kernel_id, bios_id, architecture) VALUES ($1, $2, $3, $4)
		 RETURNING id, certificate_id, kernel_id, bios_id, architecture`,
		certificateID, kernelID, biosID, architecture)
	if err != nil {
		return nil, translatePQError(err)
	}
	return &r, nil
}

func (s *PostgresStore) GetMachineByCanonicalID(ctx context.Context, canonicalID string) (*model.Machine, error) {
	var m model.Machine
	err := s.db.GetContext(ctx, &m,
		`SELECT id, configuration_id, canonical_id FROM machine WHERE canonical_id = $1`, canonicalID)
	switch err {
	case nil:
		return &m, nil
	case sql.ErrNoRows:
		return nil, NotFoundError{Message: fmt.Sprintf("no machine with canonical_id %q", canonicalID)}
	default:
		return nil, translatePQError(err)
	}
}

func (s *PostgresStore) GetCertificateByName(ctx context.Context, name string) (*model.Certificate, error) {
	var c model.Certificate
	err := s.db.GetContext(ctx, &c,
		`SELECT id, machine_id, release_id, name, created_at, completed_at FROM certificate WHERE name = $1`, name)
	switch err {
	case nil:
		return &c, nil
	case sql.ErrNoRows:
		return nil, NotFoundError{Message: fmt.Sprintf("no certificate named %q", name)}
	default:
		return nil, translatePQError(err)
	}
}

func (s *PostgresStore) GetReportForCertificate(ctx context.Context, certificateID int64) (*model.Report, error) {
	var r model.Report
	err := s.db.GetContext(ctx, &r,
		`SELECT id, certificate_id, kernel_id, bios_id, architecture FROM report WHERE certificate_id = $1 ORDER BY id DESC LIMIT 1`,
		certificateID)
	switch err {
	case nil:
		return &r, nil
	case sql.ErrNoRows:
		return nil, NotFoundError{Message: fmt.Sprintf("no report for certificate %d", certificateID)}
	default:
		return nil, translatePQError(err)
	}
}

func (s *PostgresStore) GetOrCreateDevice(ctx context.Context, vendorID int64, name, version, subsystem, bus string, category model.DeviceCategory) (*model.Device, bool, error) {
	lookup := func(ctx context.Context) (*model.Device, error) {
		var d model.Device
		err := s.db.GetContext(ctx, &d, `
SELECT id, vendor_id, identifier, name, subproduct_name, device_type, bus, version, subsystem, category, codename
FROM device WHERE vendor_id = $1 AND name = $2 AND version = $3 AND subsystem = $4 AND bus = $5 AND category = $6`,
			vendorID, name, version, subsystem, bus, category)
		return rowOrNotFound(&d, err, "device %q", name)
	}
	insert := func(ctx context.Context) (*model.Device, error) {
		var d model.Device
		err := s.db.GetContext(ctx, &d, `
INSERT INTO device (vendor_id, name, version, subsystem, bus, category)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, vendor_id, identifier, name, subproduct_name, device_type, bus, version, subsystem, category, codename`,
			vendorID, name, version, subsystem, bus, category)
		if err != nil {
			return nil, translatePQError(err)
		}
		return &d, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *PostgresStore) AttachDeviceToReport(ctx context.Context, reportID, deviceID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO report_device (report_id, device_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		reportID, deviceID)
	return translatePQError(err)
}

func (s *PostgresStore) UpdateDeviceCodename(ctx context.Context, deviceID int64, codename string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE device SET codename = $1 WHERE id = $2 AND (codename = '' OR codename = 'Unknown')`,
		codename, deviceID)
	return translatePQError(err)
}

func (s *PostgresStore) GetOrCreateCpuID(ctx context.Context, idPattern, codename string) (*model.CpuId, bool, error) {
	lookup := func(ctx context.Context) (*model.CpuId, error) {
		var c model.CpuId
		err := s.db.GetContext(ctx, &c,
			`SELECT id, id_pattern, codename FROM cpu_id WHERE id_pattern = $1 AND codename = $2`,
			strings.ToLower(idPattern), codename)
		return rowOrNotFound(&c, err, "cpuid %q/%q", idPattern, codename)
	}
	insert := func(ctx context.Context) (*model.CpuId, error) {
		var c model.CpuId
		err := s.db.GetContext(ctx, &c,
			`INSERT INTO cpu_id (id_pattern, codename) VALUES ($1, $2) RETURNING id, id_pattern, codename`,
			strings.ToLower(idPattern), codename)
		if err != nil {
			return nil, translatePQError(err)
		}
		return &c, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

// rowOrNotFound is the appliancedb.go idiom of switching on the driver
// error and turning sql.ErrNoRows into a typed NotFoundError, spelled as
// a helper since every GetOrCreate lookup closure in this file needs it.
func rowOrNotFound[R any](row *R, err error, format string, args ...interface{}) (*R, error) {
	switch err {
	case nil:
		return row, nil
	case sql.ErrNoRows:
		return nil, NotFoundError{Message: fmt.Sprintf(format, args...)}
	default:
		return nil, translatePQError(err)
	}
}

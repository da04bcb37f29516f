package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/canonical/hardware-api/internal/cpuid"
	"github.com/canonical/hardware-api/internal/model"
	"github.com/canonical/hardware-api/internal/normalize"
)

// SqliteStore is the alternate Repository backend, for local development
// and tests without a Postgres server (Design Note 9: "SQLite and
// Postgres both admit this" get-or-create implementation). It shares the
// entity graph and the generic GetOrCreate helper with PostgresStore but
// keeps its own "?"-placeholder query strings, and its inserts read the new
// id from LastInsertId instead of a RETURNING clause. Only the bios-id IN
// list is built through sqlx.In and Rebind.
type SqliteStore struct {
	db *sqlx.DB
}

// ConnectSqlite opens (creating if absent) a SQLite database file at path
// and loads the entity-store schema.
func ConnectSqlite(path string) (*SqliteStore, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite database")
	}
	db.SetMaxOpenConns(1) // sqlite3 serializes writers regardless; avoid lock storms

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to load schema")
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *SqliteStore) Close() error                   { return s.db.Close() }

func classifySqliteError(err error) error {
	sqErr, ok := err.(sqlite3.Error)
	if !ok {
		return nil
	}
	switch sqErr.Code {
	case sqlite3.ErrConstraint:
		if sqErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return ForeignKeyError{Message: sqErr.Error()}
		}
		return UniqueViolationError{Message: sqErr.Error()}
	}
	return nil
}

func sqliteTranslate(err error) error {
	if err == nil {
		return nil
	}
	if classified := classifySqliteError(err); classified != nil {
		return classified
	}
	return err
}

func sqliteRowOrNotFound[R any](row *R, err error, format string, args ...interface{}) (*R, error) {
	switch err {
	case nil:
		return row, nil
	case sql.ErrNoRows:
		return nil, NotFoundError{Message: fmt.Sprintf(format, args...)}
	default:
		return nil, sqliteTranslate(err)
	}
}

func (s *SqliteStore) GetVendorByName(ctx context.Context, name string) (*model.Vendor, error) {
	var v model.Vendor
	rows, err := s.vendorsLike(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, NotFoundError{Message: fmt.Sprintf("no vendor matching %q", name)}
	}
	v = rows[0]
	return &v, nil
}

// vendorsLike fetches all vendors and filters them through
// normalize.VendorsMatch in Go, as PostgresStore.vendorsLike does. It is
// O(vendor count) per call.
func (s *SqliteStore) vendorsLike(ctx context.Context, name string) ([]model.Vendor, error) {
	var all []model.Vendor
	if err := s.db.SelectContext(ctx, &all, `SELECT id, name FROM vendor`); err != nil {
		return nil, sqliteTranslate(err)
	}
	var matched []model.Vendor
	for _, v := range all {
		if normalize.VendorsMatch(v.Name, name) {
			matched = append(matched, v)
		}
	}
	return matched, nil
}

func (s *SqliteStore) GetBoard(ctx context.Context, vendorName, productName string) (*model.Device, error) {
	vendors, err := s.vendorsLike(ctx, vendorName)
	if err != nil {
		return nil, err
	}
	for _, v := range vendors {
		var d model.Device
		err := s.db.GetContext(ctx, &d, `
SELECT id, vendor_id, identifier, name, subproduct_name, device_type, bus, version, subsystem, category, codename
FROM device WHERE vendor_id = ? AND lower(name) = lower(?) AND category IN ('BOARD', 'OTHER') LIMIT 1`,
			v.ID, productName)
		if err == nil {
			return &d, nil
		}
		if err != sql.ErrNoRows {
			return nil, sqliteTranslate(err)
		}
	}
	return nil, NotFoundError{Message: fmt.Sprintf("no board matching vendor=%q product=%q", vendorName, productName)}
}

func (s *SqliteStore) GetBiosList(ctx context.Context, vendorName, version string) ([]model.Bios, error) {
	vendors, err := s.vendorsLike(ctx, vendorName)
	if err != nil {
		return nil, err
	}
	var out []model.Bios
	for _, v := range vendors {
		var rows []model.Bios
		err := s.db.SelectContext(ctx, &rows, `
SELECT id, vendor_id, version, revision, firmware_revision, release_date FROM bios
WHERE vendor_id = ? AND version = ? ORDER BY id`, v.ID, version)
		if err != nil {
			return nil, sqliteTranslate(err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (s *SqliteStore) GetMachineWithSameHardwareParams(ctx context.Context, arch string, board *model.Device, biosIDs []int64) (*model.Machine, error) {
	var m model.Machine
	base := `
SELECT DISTINCT m.id, m.configuration_id, m.canonical_id
FROM machine m
JOIN certificate c ON c.machine_id = m.id
JOIN report r ON r.certificate_id = c.id
JOIN report_device rd ON rd.report_id = r.id
WHERE rd.device_id = ? AND r.architecture = ?`

	var err error
	if len(biosIDs) == 0 {
		err = s.db.GetContext(ctx, &m, base+" AND r.bios_id IS NULL LIMIT 1", board.ID, arch)
	} else {
		q, args, inErr := sqlx.In(base+" AND r.bios_id IN (?) LIMIT 1", board.ID, arch, biosIDs)
		if inErr != nil {
			return nil, errors.Wrap(inErr, "failed to build bios_id IN clause")
		}
		err = s.db.GetContext(ctx, &m, s.db.Rebind(q), args...)
	}
	switch err {
	case nil:
		return &m, nil
	case sql.ErrNoRows:
		return nil, NotFoundError{Message: "no machine with matching hardware params"}
	default:
		return nil, sqliteTranslate(err)
	}
}

func (s *SqliteStore) GetCPUForMachine(ctx context.Context, machine *model.Machine) (*model.Device, error) {
	var d model.Device
	err := s.db.GetContext(ctx, &d, `
SELECT d.id, d.vendor_id, d.identifier, d.name, d.subproduct_name, d.device_type,
       d.bus, d.version, d.subsystem, d.category, d.codename
FROM device d
JOIN report_device rd ON rd.device_id = d.id
JOIN report r ON r.id = rd.report_id
JOIN certificate c ON c.id = r.certificate_id
WHERE c.machine_id = ? AND d.category = 'PROCESSOR'
ORDER BY c.id DESC, r.id DESC LIMIT 1`, machine.ID)
	switch err {
	case nil:
		return &d, nil
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, sqliteTranslate(err)
	}
}

func (s *SqliteStore) GetReleasesAndKernelsForMachine(ctx context.Context, machine *model.Machine) ([]ReleaseKernel, error) {
	type row struct {
		model.Release
		KernelID        sql.NullInt64  `db:"kernel_id"`
		KernelName      sql.NullString `db:"kernel_name"`
		KernelVersion   sql.NullString `db:"kernel_version"`
		KernelSignature sql.NullString `db:"kernel_signature"`
	}
	var rows []row
	err := s.db.SelectContext(ctx, &rows, `
SELECT DISTINCT rel.id, rel.codename, rel.release_str, rel.release_date, rel.supported_until, rel.i_version,
       k.id AS kernel_id, k.name AS kernel_name, k.version AS kernel_version, k.signature AS kernel_signature
FROM release rel
JOIN certificate c ON c.release_id = rel.id
JOIN report r ON r.certificate_id = c.id
LEFT JOIN kernel k ON k.id = r.kernel_id
WHERE c.machine_id = ?`, machine.ID)
	if err != nil {
		return nil, sqliteTranslate(err)
	}
	out := make([]ReleaseKernel, 0, len(rows))
	for _, r := range rows {
		rk := ReleaseKernel{Release: r.Release}
		if r.KernelID.Valid {
			rk.Kernel = &model.Kernel{ID: r.KernelID.Int64, Name: r.KernelName.String, Version: r.KernelVersion.String, Signature: r.KernelSignature.String}
		}
		out = append(out, rk)
	}
	return out, nil
}

func (s *SqliteStore) GetReleaseObject(ctx context.Context, version, codename string) (*model.Release, error) {
	var rel model.Release
	err := s.db.GetContext(ctx, &rel, `SELECT id, codename, release_str, release_date, supported_until, i_version FROM release WHERE release_str = ? AND codename = ?`, version, codename)
	switch err {
	case nil:
		return &rel, nil
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, sqliteTranslate(err)
	}
}

func (s *SqliteStore) GetMachineArchitecture(ctx context.Context, machine *model.Machine) (string, error) {
	var arch string
	err := s.db.GetContext(ctx, &arch, `
SELECT r.architecture FROM report r JOIN certificate c ON c.id = r.certificate_id
WHERE c.machine_id = ? ORDER BY c.id DESC, r.id DESC LIMIT 1`, machine.ID)
	switch err {
	case nil:
		return arch, nil
	case sql.ErrNoRows:
		return "", NotFoundError{Message: "no report found for machine"}
	default:
		return "", sqliteTranslate(err)
	}
}

func (s *SqliteStore) GetVendorName(ctx context.Context, vendorID int64) (string, error) {
	var name string
	err := s.db.GetContext(ctx, &name, `SELECT name FROM vendor WHERE id = ?`, vendorID)
	switch err {
	case nil:
		return name, nil
	case sql.ErrNoRows:
		return "", NotFoundError{Message: fmt.Sprintf("no vendor with id %d", vendorID)}
	default:
		return "", sqliteTranslate(err)
	}
}

func (s *SqliteStore) CpuIDPatterns(ctx context.Context) ([]cpuid.Pattern, error) {
	var rows []struct {
		IDPattern string `db:"id_pattern"`
		Codename  string `db:"codename"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT id_pattern, codename FROM cpu_id ORDER BY id`); err != nil {
		return nil, sqliteTranslate(err)
	}
	out := make([]cpuid.Pattern, len(rows))
	for i, r := range rows {
		out[i] = cpuid.Pattern{IDPattern: r.IDPattern, Codename: r.Codename}
	}
	return out, nil
}

func (s *SqliteStore) GetOrCreateVendor(ctx context.Context, name string) (*model.Vendor, bool, error) {
	lookup := func(ctx context.Context) (*model.Vendor, error) {
		var v model.Vendor
		err := s.db.GetContext(ctx, &v, `SELECT id, name FROM vendor WHERE name = ?`, name)
		return sqliteRowOrNotFound(&v, err, "vendor %q", name)
	}
	insert := func(ctx context.Context) (*model.Vendor, error) {
		res, err := s.db.ExecContext(ctx, `INSERT INTO vendor (name) VALUES (?)`, name)
		if err != nil {
			return nil, sqliteTranslate(err)
		}
		id, _ := res.LastInsertId()
		return &model.Vendor{ID: id, Name: name}, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *SqliteStore) GetOrCreatePlatform(ctx context.Context, vendorID int64, name string) (*model.Platform, bool, error) {
	lookup := func(ctx context.Context) (*model.Platform, error) {
		var p model.Platform
		err := s.db.GetContext(ctx, &p, `SELECT id, vendor_id, name FROM platform WHERE vendor_id = ? AND name = ?`, vendorID, name)
		return sqliteRowOrNotFound(&p, err, "platform %q/%d", name, vendorID)
	}
	insert := func(ctx context.Context) (*model.Platform, error) {
		res, err := s.db.ExecContext(ctx, `INSERT INTO platform (vendor_id, name) VALUES (?, ?)`, vendorID, name)
		if err != nil {
			return nil, sqliteTranslate(err)
		}
		id, _ := res.LastInsertId()
		return &model.Platform{ID: id, VendorID: vendorID, Name: name}, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *SqliteStore) GetOrCreateConfiguration(ctx context.Context, platformID int64, name string) (*model.Configuration, bool, error) {
	lookup := func(ctx context.Context) (*model.Configuration, error) {
		var c model.Configuration
		err := s.db.GetContext(ctx, &c, `SELECT id, platform_id, name FROM configuration WHERE platform_id = ? AND name = ?`, platformID, name)
		return sqliteRowOrNotFound(&c, err, "configuration %q/%d", name, platformID)
	}
	insert := func(ctx context.Context) (*model.Configuration, error) {
		res, err := s.db.ExecContext(ctx, `INSERT INTO configuration (platform_id, name) VALUES (?, ?)`, platformID, name)
		if err != nil {
			return nil, sqliteTranslate(err)
		}
		id, _ := res.LastInsertId()
		return &model.Configuration{ID: id, PlatformID: platformID, Name: name}, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *SqliteStore) GetOrCreateMachine(ctx context.Context, configID int64, canonicalID string) (*model.Machine, bool, error) {
	lookup := func(ctx context.Context) (*model.Machine, error) {
		var m model.Machine
		err := s.db.GetContext(ctx, &m, `SELECT id, configuration_id, canonical_id FROM machine WHERE canonical_id = ?`, canonicalID)
		return sqliteRowOrNotFound(&m, err, "machine %q", canonicalID)
	}
	insert := func(ctx context.Context) (*model.Machine, error) {
		res, err := s.db.ExecContext(ctx, `INSERT INTO machine (configuration_id, canonical_id) VALUES (?, ?)`, configID, canonicalID)
		if err != nil {
			return nil, sqliteTranslate(err)
		}
		id, _ := res.LastInsertId()
		return &model.Machine{ID: id, ConfigurationID: configID, CanonicalID: canonicalID}, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *SqliteStore) GetOrCreateKernel(ctx context.Context, name, version, signature string) (*model.Kernel, bool, error) {
	lookup := func(ctx context.Context) (*model.Kernel, error) {
		var k model.Kernel
		err := s.db.GetContext(ctx, &k, `SELECT id, name, version, signature FROM kernel WHERE name = ? AND version = ? AND signature = ?`, name, version, signature)
		return sqliteRowOrNotFound(&k, err, "kernel %q/%q", name, version)
	}
	insert := func(ctx context.Context) (*model.Kernel, error) {
		res, err := s.db.ExecContext(ctx, `INSERT INTO kernel (name, version, signature) VALUES (?, ?, ?)`, name, version, signature)
		if err != nil {
			return nil, sqliteTranslate(err)
		}
		id, _ := res.LastInsertId()
		return &model.Kernel{ID: id, Name: name, Version: version, Signature: signature}, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *SqliteStore) GetOrCreateBios(ctx context.Context, vendorID int64, version, revision, firmwareRevision string, releaseDate *string) (*model.Bios, bool, error) {
	lookup := func(ctx context.Context) (*model.Bios, error) {
		var b model.Bios
		err := s.db.GetContext(ctx, &b, `
SELECT id, vendor_id, version, revision, firmware_revision, release_date FROM bios
WHERE vendor_id = ? AND version = ? AND revision = ? AND firmware_revision = ?`, vendorID, version, revision, firmwareRevision)
		return sqliteRowOrNotFound(&b, err, "bios %d/%q", vendorID, version)
	}
	insert := func(ctx context.Context) (*model.Bios, error) {
		res, err := s.db.ExecContext(ctx, `
INSERT INTO bios (vendor_id, version, revision, firmware_revision, release_date) VALUES (?, ?, ?, ?, ?)`,
			vendorID, version, revision, firmwareRevision, releaseDate)
		if err != nil {
			return nil, sqliteTranslate(err)
		}
		id, _ := res.LastInsertId()
		return &model.Bios{ID: id, VendorID: vendorID, Version: version, Revision: revision, FirmwareRevision: firmwareRevision}, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *SqliteStore) GetOrCreateRelease(ctx context.Context, codename, releaseStr string, iVersion int) (*model.Release, bool, error) {
	lookup := func(ctx context.Context) (*model.Release, error) {
		var r model.Release
		err := s.db.GetContext(ctx, &r, `SELECT id, codename, release_str, release_date, supported_until, i_version FROM release WHERE codename = ? AND release_str = ?`, codename, releaseStr)
		return sqliteRowOrNotFound(&r, err, "release %q/%q", codename, releaseStr)
	}
	insert := func(ctx context.Context) (*model.Release, error) {
		res, err := s.db.ExecContext(ctx, `INSERT INTO release (codename, release_str, i_version) VALUES (?, ?, ?)`, codename, releaseStr, iVersion)
		if err != nil {
			return nil, sqliteTranslate(err)
		}
		id, _ := res.LastInsertId()
		return &model.Release{ID: id, Codename: codename, ReleaseStr: releaseStr, IVersion: iVersion}, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *SqliteStore) GetOrCreateCertificate(ctx context.Context, machineID, releaseID int64, name string) (*model.Certificate, bool, error) {
	lookup := func(ctx context.Context) (*model.Certificate, error) {
		var c model.Certificate
		err := s.db.GetContext(ctx, &c, `SELECT id, machine_id, release_id, name, created_at, completed_at FROM certificate WHERE name = ?`, name)
		return sqliteRowOrNotFound(&c, err, "certificate %q", name)
	}
	insert := func(ctx context.Context) (*model.Certificate, error) {
		res, err := s.db.ExecContext(ctx, `INSERT INTO certificate (machine_id, release_id, name) VALUES (?, ?, ?)`, machineID, releaseID, name)
		if err != nil {
			return nil, sqliteTranslate(err)
		}
		id, _ := res.LastInsertId()
		return &model.Certificate{ID: id, MachineID: machineID, ReleaseID: releaseID, Name: name}, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *SqliteStore) CreateReport(ctx context.Context, certificateID int64, kernelID, biosID *int64, architecture string) (*model.Report, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO report (certificate_id, kernel_id, bios_id, architecture) VALUES (?, ?, ?, ?)`,
		certificateID, kernelID, biosID, architecture)
	if err != nil {
		return nil, sqliteTranslate(err)
	}
	id, _ := res.LastInsertId()
	return &model.Report{ID: id, CertificateID: certificateID, KernelID: kernelID, BiosID: biosID, Architecture: architecture}, nil
}

func (s *SqliteStore) GetMachineByCanonicalID(ctx context.Context, canonicalID string) (*model.Machine, error) {
	var m model.Machine
	err := s.db.GetContext(ctx, &m, `SELECT id, configuration_id, canonical_id FROM machine WHERE canonical_id = ?`, canonicalID)
	switch err {
	case nil:
		return &m, nil
	case sql.ErrNoRows:
		return nil, NotFoundError{Message: fmt.Sprintf("no machine with canonical_id %q", canonicalID)}
	default:
		return nil, sqliteTranslate(err)
	}
}

func (s *SqliteStore) GetCertificateByName(ctx context.Context, name string) (*model.Certificate, error) {
	var c model.Certificate
	err := s.db.GetContext(ctx, &c, `SELECT id, machine_id, release_id, name, created_at, completed_at FROM certificate WHERE name = ?`, name)
	switch err {
	case nil:
		return &c, nil
	case sql.ErrNoRows:
		return nil, NotFoundError{Message: fmt.Sprintf("no certificate named %q", name)}
	default:
		return nil, sqliteTranslate(err)
	}
}

func (s *SqliteStore) GetReportForCertificate(ctx context.Context, certificateID int64) (*model.Report, error) {
	var r model.Report
	err := s.db.GetContext(ctx, &r, `SELECT id, certificate_id, kernel_id, bios_id, architecture FROM report WHERE certificate_id = ? ORDER BY id DESC LIMIT 1`, certificateID)
	switch err {
	case nil:
		return &r, nil
	case sql.ErrNoRows:
		return nil, NotFoundError{Message: fmt.Sprintf("no report for certificate %d", certificateID)}
	default:
		return nil, sqliteTranslate(err)
	}
}

func (s *SqliteStore) GetOrCreateDevice(ctx context.Context, vendorID int64, name, version, subsystem, bus string, category model.DeviceCategory) (*model.Device, bool, error) {
	lookup := func(ctx context.Context) (*model.Device, error) {
		var d model.Device
		err := s.db.GetContext(ctx, &d, `
SELECT id, vendor_id, identifier, name, subproduct_name, device_type, bus, version, subsystem, category, codename
FROM device WHERE vendor_id = ? AND name = ? AND version = ? AND subsystem = ? AND bus = ? AND category = ?`,
			vendorID, name, version, subsystem, bus, category)
		return sqliteRowOrNotFound(&d, err, "device %q", name)
	}
	insert := func(ctx context.Context) (*model.Device, error) {
		res, err := s.db.ExecContext(ctx, `
INSERT INTO device (vendor_id, name, version, subsystem, bus, category) VALUES (?, ?, ?, ?, ?, ?)`,
			vendorID, name, version, subsystem, bus, category)
		if err != nil {
			return nil, sqliteTranslate(err)
		}
		id, _ := res.LastInsertId()
		return &model.Device{ID: id, VendorID: vendorID, Name: name, Version: version, Subsystem: subsystem, Bus: bus, Category: category}, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}

func (s *SqliteStore) AttachDeviceToReport(ctx context.Context, reportID, deviceID int64) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO report_device (report_id, device_id) VALUES (?, ?)`, reportID, deviceID)
	return sqliteTranslate(err)
}

func (s *SqliteStore) UpdateDeviceCodename(ctx context.Context, deviceID int64, codename string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE device SET codename = ? WHERE id = ? AND (codename = '' OR codename = 'Unknown')`, codename, deviceID)
	return sqliteTranslate(err)
}

func (s *SqliteStore) GetOrCreateCpuID(ctx context.Context, idPattern, codename string) (*model.CpuId, bool, error) {
	lowered := strings.ToLower(idPattern)
	lookup := func(ctx context.Context) (*model.CpuId, error) {
		var c model.CpuId
		err := s.db.GetContext(ctx, &c, `SELECT id, id_pattern, codename FROM cpu_id WHERE id_pattern = ? AND codename = ?`, lowered, codename)
		return sqliteRowOrNotFound(&c, err, "cpuid %q/%q", idPattern, codename)
	}
	insert := func(ctx context.Context) (*model.CpuId, error) {
		res, err := s.db.ExecContext(ctx, `INSERT INTO cpu_id (id_pattern, codename) VALUES (?, ?)`, lowered, codename)
		if err != nil {
			return nil, sqliteTranslate(err)
		}
		id, _ := res.LastInsertId()
		return &model.CpuId{ID: id, IDPattern: lowered, Codename: codename}, nil
	}
	return GetOrCreate(ctx, lookup, insert)
}
